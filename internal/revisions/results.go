package revisions

import (
	"encoding/json"

	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/terms"
)

// Storage path a field took on write.
const (
	PathMeta     = "meta"
	PathTerm     = "term"
	PathRepeater = "repeater"
)

// WriteResult reports how one field was stored.
type WriteResult struct {
	Field string `json:"field"`
	Path  string `json:"path"`
	// Identifier is the term key, or the field prefix for repeater leaves.
	Identifier  string              `json:"identifier,omitempty"`
	Content     json.RawMessage     `json:"content,omitempty"`
	Term        *terms.Term         `json:"term,omitempty"`
	Definition  *terms.Definition   `json:"definition,omitempty"`
	Meta        *meta.Meta          `json:"meta,omitempty"`
	Identifiers []map[string]string `json:"identifiers,omitempty"`
}

// WriteResults keeps per field results in write order.
type WriteResults []WriteResult

func (r WriteResults) Field(key string) (WriteResult, bool) {
	for _, result := range r {
		if result.Field == key {
			return result, true
		}
	}
	return WriteResult{}, false
}

func (r WriteResults) Fields() []string {
	out := make([]string, 0, len(r))
	for _, result := range r {
		out = append(out, result.Field)
	}
	return out
}

// Changes converts the results into the event payload.
func (r WriteResults) Changes() []events.Change {
	out := make([]events.Change, 0, len(r))
	for _, result := range r {
		out = append(out, events.Change{
			Field:       result.Field,
			Path:        result.Path,
			Identifier:  result.Identifier,
			Content:     result.Content,
			Identifiers: result.Identifiers,
		})
	}
	return out
}
