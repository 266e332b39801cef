package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/templui/goalplanner/internal/apperr"
)

const MaxTitleLength = 200

var (
	ErrTitleRequired = apperr.New(apperr.ErrInvalidInput, "title is required")
	ErrTitleTooLong  = apperr.New(apperr.ErrInvalidInput, "title is too long (max 200 characters)")
)

// ValidateTitle validates a goal or subgoal title
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return ErrTitleRequired
	}

	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return ErrTitleTooLong
	}

	return nil
}
