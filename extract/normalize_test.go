package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  Hello   World!!  ", "Hello World!!"},
		{"newlines and tabs", "Line one\n\n\tLine two", "Line one Line two"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
		{"keeps french letters", "L'été à Orléans : œuvre, ça déçoit ?", "L'été à Orléans : œuvre, ça déçoit ?"},
		{"keeps typographic quotes", "« Bonjour » – dit-il…", "« Bonjour » – dit-il…"},
		{"strips symbols", "Price <b>10€</b> | ~sale~ ^^", "Price b10€/b sale"},
		{"strips emoji", "Launch 🚀 day", "Launch day"},
		{"keeps currency and percent", "$5 + 20% = £6", "$5 + 20% = £6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"  a  b ", "Réseaux — sociaux", "x<>y", "1er janvier 2024"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalizing twice changes %q", in)
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 2, WordCount("Hello World!!"))
	assert.Equal(t, 4, WordCount("  un  deux\ntrois\tquatre "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "éèà...", Truncate("éèàùç", 3))
	assert.Equal(t, "whole", Truncate("whole", 0))
}
