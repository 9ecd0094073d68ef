package domain

import (
	"testing"
	"time"

	errprocess "language_exchange_service/pkg/err"

	"github.com/stretchr/testify/assert"
)

func TestRegisterParamValidate(t *testing.T) {
	valid := RegisterParam{
		Email:             " Ana@Example.com ",
		Password:          "!!Securepassword111",
		DisplayName:       " Ana ",
		NativeLanguage:    "ES",
		LearningLanguages: []string{"fr", " FR ", "en"},
	}

	t.Run("normalized", func(t *testing.T) {
		p := valid.Normalize()
		assert.NoError(t, p.Validate())
		assert.Equal(t, "ana@example.com", p.Email)
		assert.Equal(t, "Ana", p.DisplayName)
		assert.Equal(t, "es", p.NativeLanguage)
		assert.Equal(t, []string{"fr", "en"}, p.LearningLanguages)
	})

	tests := []struct {
		name   string
		mutate func(p *RegisterParam)
	}{
		{"bad email", func(p *RegisterParam) { p.Email = "nope" }},
		{"empty display name", func(p *RegisterParam) { p.DisplayName = "  " }},
		{"no native", func(p *RegisterParam) { p.NativeLanguage = "" }},
		{"no learning", func(p *RegisterParam) { p.LearningLanguages = nil }},
		{"learning own language", func(p *RegisterParam) { p.LearningLanguages = []string{"es"} }},
		{"weak password", func(p *RegisterParam) { p.Password = "123" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Normalize().Validate(), errprocess.ErrValidation)
		})
	}
}

func TestSessionExpired(t *testing.T) {
	assert.True(t, (&MemberSession{ExpiredAt: time.Now().Add(-time.Second)}).IsExpired())
	assert.False(t, (&MemberSession{ExpiredAt: time.Now().Add(time.Hour)}).IsExpired())
}
