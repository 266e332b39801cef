package validation

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/templui/goalplanner/internal/apperr"
	"golang.org/x/text/unicode/norm"
)

const (
	MinPromptLength = 3
	MaxPromptLength = 500
)

// SanitizePrompt normalizes a raw goal description before it is embedded in
// the generation prompt. Over-long input is truncated, never rejected.
func SanitizePrompt(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", apperr.New(apperr.ErrInvalidInput, "prompt is required")
	}

	prompt := norm.NFC.String(raw)
	prompt = stripControl(prompt)
	prompt = stripStrayBackslashes(prompt)
	prompt = strings.Join(strings.Fields(prompt), " ")

	length := utf8.RuneCountInString(prompt)
	if length < MinPromptLength {
		return "", apperr.New(apperr.ErrInvalidInput,
			fmt.Sprintf("prompt too short (minimum %d characters)", MinPromptLength))
	}

	if length > MaxPromptLength {
		slog.Warn("prompt truncated", "from", length, "to", MaxPromptLength)
		prompt = truncateRunes(prompt, MaxPromptLength)
		// A cut can leave a trailing space or split an escaped quote.
		prompt = strings.TrimRight(prompt, " \\")
	}

	return prompt, nil
}

// IsValidPrompt reports whether SanitizePrompt would accept raw.
func IsValidPrompt(raw string) bool {
	_, err := SanitizePrompt(raw)
	return err == nil
}

// stripControl drops control characters but keeps whitespace, which is
// collapsed afterwards.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// stripStrayBackslashes removes every backslash that does not escape a
// double quote.
func stripStrayBackslashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && (i+1 >= len(s) || s[i+1] != '"') {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
