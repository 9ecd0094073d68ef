package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"fr", "es"}, "es"))
	assert.False(t, Contains([]string{"fr", "es"}, "de"))
	assert.False(t, Contains([]int{}, 1))
}

func TestNormalizeLanguages(t *testing.T) {
	assert.Equal(t, "fr", NormalizeLanguage("  FR "))
	assert.Equal(t, []string{"es", "de"}, NormalizeLanguages([]string{"ES", " es", "", "De"}))
}
