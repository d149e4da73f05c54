package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vasasync/internal/models"
)

func TestValidateMarking(t *testing.T) {
	tests := []struct {
		name    string
		marking models.Marking
		wantErr bool
	}{
		{name: "valid", marking: models.Marking{VasaNumber: "123", EmoNumber: "456"}},
		{name: "valid with dash and notes", marking: models.Marking{VasaNumber: "A-12", EmoNumber: "B-7", Notes: "musta"}},
		{name: "missing vasa", marking: models.Marking{EmoNumber: "456"}, wantErr: true},
		{name: "missing emo", marking: models.Marking{VasaNumber: "123"}, wantErr: true},
		{name: "vasa too long", marking: models.Marking{VasaNumber: strings.Repeat("1", 21), EmoNumber: "1"}, wantErr: true},
		{name: "emo with space", marking: models.Marking{VasaNumber: "1", EmoNumber: "4 5"}, wantErr: true},
		{name: "notes too long", marking: models.Marking{VasaNumber: "1", EmoNumber: "2", Notes: strings.Repeat("x", 501)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarking(tt.marking)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidEntry)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEntry(t *testing.T) {
	valid := models.NewEntry("g1", "user-1", "aili", models.Marking{VasaNumber: "123", EmoNumber: "456"}.Payload())
	require.NoError(t, ValidateEntry(valid))

	tests := []struct {
		mutate func(e *models.Entry)
		name   string
		errMsg string
	}{
		{name: "no id", mutate: func(e *models.Entry) { e.ID = "" }, errMsg: "id is required"},
		{name: "no group", mutate: func(e *models.Entry) { e.GroupID = "" }, errMsg: "groupId is required"},
		{name: "no author", mutate: func(e *models.Entry) { e.CreatedBy = "" }, errMsg: "createdBy is required"},
		{name: "bad payload", mutate: func(e *models.Entry) { e.Payload = nil }, errMsg: "VasaNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid.Clone()
			tt.mutate(e)
			err := ValidateEntry(e)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidEntry)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.ErrorIs(t, ValidateEntry(nil), ErrInvalidEntry)
}
