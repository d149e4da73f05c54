package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/vasasync/internal/models"
)

// HerdIDPattern формат номера телёнка и номера матери
var HerdIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{1,20}$`)

// ErrInvalidEntry is wrapped by every entry validation failure.
var ErrInvalidEntry = errors.New("invalid entry")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// herdid: латиница, цифры и дефис
		_ = validate.RegisterValidation("herdid", func(fl validator.FieldLevel) bool {
			return HerdIDPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateMarking проверяет номера телёнка и матери
func ValidateMarking(m models.Marking) error {
	if err := instance().Struct(m); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEntry, describe(err))
	}
	return nil
}

// ValidateEntry checks the fields the sync core relies on and the marking payload.
func ValidateEntry(e *models.Entry) error {
	if e == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if e.GroupID == "" {
		return fmt.Errorf("%w: groupId is required", ErrInvalidEntry)
	}
	if e.CreatedBy == "" {
		return fmt.Errorf("%w: createdBy is required", ErrInvalidEntry)
	}
	return ValidateMarking(e.Marking())
}

// describe превращает ошибки validator в короткое сообщение
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
