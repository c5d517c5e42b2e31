package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Gold Ring", "gold-ring"},
		{"  Solitaire   Diamond  ", "solitaire-diamond"},
		{"Boucles d'Oreilles Émeraude", "boucles-d-oreilles-emeraude"},
		{"Smykke i Sølv", "smykke-i-solv"},
		{"Perlenkette Größe M", "perlenkette-grosse-m"},
		{"18K / White Gold!!", "18k-white-gold"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("gold-ring"))
	assert.True(t, IsValid("ring18k"))
	assert.False(t, IsValid("Gold-Ring"))
	assert.False(t, IsValid("gold--ring"))
	assert.False(t, IsValid("-gold"))
	assert.False(t, IsValid(""))
}

func TestGenerate_OutputIsValid(t *testing.T) {
	for _, name := range []string{"Émeraude Pendant", "Tennis Bracelet 2.5ct", "Ørestikker"} {
		assert.True(t, IsValid(Generate(name)), name)
	}
}
