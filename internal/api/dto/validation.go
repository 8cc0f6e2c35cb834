package dto

import (
	"unicode/utf8"

	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// FieldErrors collects per-field validation messages.
type FieldErrors map[string]any

func (f FieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// Err returns a validation error carrying the fields, or nil when empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError("", map[string]any(f))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
