package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// UserIDPattern допустимый идентификатор пользователя. Он входит в имя
// устройства в эфире и в адрес линка, поэтому только латиница, цифры, _ и -.
var UserIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	MinUserIDLen = 2
	MaxUserIDLen = 32
)

var ErrInvalidUserID = errors.New("invalid user id")

// ValidateUserID checks the id a device advertises and stamps on entries
func ValidateUserID(userID string) error {
	switch {
	case userID == "":
		return fmt.Errorf("%w: cannot be empty", ErrInvalidUserID)
	case len(userID) < MinUserIDLen:
		return fmt.Errorf("%w: must be at least %d characters long", ErrInvalidUserID, MinUserIDLen)
	case len(userID) > MaxUserIDLen:
		return fmt.Errorf("%w: must not exceed %d characters", ErrInvalidUserID, MaxUserIDLen)
	case !UserIDPattern.MatchString(userID):
		return fmt.Errorf("%w: can only contain letters, numbers, '_' and '-'", ErrInvalidUserID)
	}
	return nil
}
