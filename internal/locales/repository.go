package locales

import "context"

// Registry lists the locales publish fans out to.
type Registry interface {
	ListEnabled(ctx context.Context) ([]Locale, error)
}

// Repository persists the locale list.
type Repository interface {
	Registry
	Upsert(ctx context.Context, locale Locale) (*Locale, error)
	Get(ctx context.Context, code string) (*Locale, error)
	List(ctx context.Context) ([]Locale, error)
	SetEnabled(ctx context.Context, code string, enabled bool) (*Locale, error)
	Delete(ctx context.Context, code string) error
}

// StaticRegistry serves a fixed list of enabled locale codes.
type StaticRegistry []string

func (s StaticRegistry) ListEnabled(context.Context) ([]Locale, error) {
	out := make([]Locale, 0, len(s))
	for _, code := range s {
		if normalized := NormalizeCode(code); normalized != "" {
			out = append(out, Locale{Code: normalized, Name: normalized, Enabled: true})
		}
	}
	return out, nil
}
