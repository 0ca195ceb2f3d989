package templates

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Template groups the ordered fields one content kind can hold.
type Template struct {
	bun.BaseModel `bun:"table:revision_templates,alias:rt"`

	ID        uuid.UUID        `bun:",pk,type:uuid" json:"id"`
	Slug      string           `bun:"slug,notnull,unique" json:"slug"`
	Name      string           `bun:"name,notnull" json:"name"`
	Fields    []*TemplateField `bun:"-" json:"fields,omitempty"`
	CreatedAt time.Time        `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time        `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// TemplateField describes how one field is stored.
//
// Translated fields become terms with a definition per locale. Untranslated
// fields are kept in meta. Repeater fields hold a list of rows whose leaves
// are stored one term per row and sub key.
type TemplateField struct {
	bun.BaseModel `bun:"table:revision_template_fields,alias:rtf"`

	ID         uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	TemplateID uuid.UUID      `bun:"template_id,notnull,type:uuid,unique:template_field_key" json:"template_id"`
	Key        string         `bun:"key,notnull,unique:template_field_key" json:"key"`
	Name       string         `bun:"name" json:"name"`
	Type       string         `bun:"type,notnull" json:"type"`
	Translated bool           `bun:"translated,notnull" json:"translated"`
	Repeater   bool           `bun:"repeater,notnull" json:"repeater"`
	SortIndex  int            `bun:"sort_index,notnull" json:"sort_index"`
	Options    map[string]any `bun:"options,type:jsonb" json:"options,omitempty"`
	CreatedAt  time.Time      `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time      `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Schema returns the JSON schema stored under options.schema, if any.
func (f *TemplateField) Schema() map[string]any {
	if f == nil || f.Options == nil {
		return nil
	}
	schema, _ := f.Options["schema"].(map[string]any)
	return schema
}

// DisplayName is the field name, or its key when no name was given.
func (f *TemplateField) DisplayName() string {
	if f == nil {
		return ""
	}
	if f.Name != "" {
		return f.Name
	}
	return f.Key
}

func cloneTemplate(src *Template) *Template {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Fields = cloneFields(src.Fields)
	return &copied
}

func cloneFields(src []*TemplateField) []*TemplateField {
	if src == nil {
		return nil
	}
	out := make([]*TemplateField, 0, len(src))
	for _, field := range src {
		out = append(out, cloneField(field))
	}
	return out
}

func cloneField(src *TemplateField) *TemplateField {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Options = maps.Clone(src.Options)
	return &copied
}

func sortFields(fields []*TemplateField) {
	slices.SortStableFunc(fields, func(a, b *TemplateField) int {
		return a.SortIndex - b.SortIndex
	})
}
