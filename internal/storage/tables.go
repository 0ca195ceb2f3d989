package storage

import "strings"

// Tables holds the table names used by the raw bun stores. The i18n prefix
// is applied to the term, definition and locale tables.
type Tables struct {
	I18nPrefix  string `yaml:"i18n_prefix" json:"i18n_prefix"`
	Terms       string `yaml:"terms" json:"terms"`
	Definitions string `yaml:"definitions" json:"definitions"`
	Locales     string `yaml:"locales" json:"locales"`
	Meta        string `yaml:"meta" json:"meta"`
	Pages       string `yaml:"pages" json:"pages"`
}

func DefaultTables() Tables {
	return Tables{
		Terms:       "i18n_terms",
		Definitions: "i18n_definitions",
		Locales:     "i18n_locales",
		Meta:        "revision_meta",
		Pages:       "pages",
	}
}

// Resolve fills blank names with defaults and applies the i18n prefix.
func (t Tables) Resolve() Tables {
	defaults := DefaultTables()
	out := Tables{
		I18nPrefix:  strings.TrimSpace(t.I18nPrefix),
		Terms:       pick(t.Terms, defaults.Terms),
		Definitions: pick(t.Definitions, defaults.Definitions),
		Locales:     pick(t.Locales, defaults.Locales),
		Meta:        pick(t.Meta, defaults.Meta),
		Pages:       pick(t.Pages, defaults.Pages),
	}
	if out.I18nPrefix != "" {
		out.Terms = withPrefix(out.I18nPrefix, out.Terms)
		out.Definitions = withPrefix(out.I18nPrefix, out.Definitions)
		out.Locales = withPrefix(out.I18nPrefix, out.Locales)
	}
	return out
}

func pick(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func withPrefix(prefix, name string) string {
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}
