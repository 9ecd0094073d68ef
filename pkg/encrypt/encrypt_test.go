package encrypt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "Ab1!", true},
		{"no uppercase", "abcdefg1!", true},
		{"no digit", "Abcdefgh!", true},
		{"no special", "Abcdefg12", true},
		{"strong", "Hablamos1!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrWeakPassword))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Bonjour12!")
	require.NoError(t, err)
	assert.NotEqual(t, "Bonjour12!", hash)

	assert.NoError(t, CheckPassword(hash, "Bonjour12!"))
	assert.ErrorIs(t, CheckPassword(hash, "bonjour12!"), ErrPasswordMismatch)
}

func TestHashPasswordRejectsWeak(t *testing.T) {
	_, err := HashPassword("weak")
	assert.ErrorIs(t, err, ErrWeakPassword)
}
