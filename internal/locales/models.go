package locales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLocaleNotFound     = errors.New("locales: locale not found")
	ErrLocaleCodeRequired = errors.New("locales: code is required")
)

// NotFoundError identifies a missing locale code.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("locales: locale %q not found", e.Code)
}

func (e *NotFoundError) Unwrap() error { return ErrLocaleNotFound }

// Locale is one language content can be translated into.
type Locale struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeCode trims and lowercases a locale code. Region suffixes keep
// their separator (en-us, pt_br).
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
