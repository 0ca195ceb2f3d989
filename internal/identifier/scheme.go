package identifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultDelimiter separates identifier segments unless overridden.
const DefaultDelimiter = "_"

// LikeEscape is the escape character paired with Like patterns.
const LikeEscape = `\`

var (
	ErrInvalidDelimiter = errors.New("identifier: delimiter must be a single non alphanumeric character")
	ErrInvalidSegment   = errors.New("identifier: invalid key segment")
	ErrInvalidKey       = errors.New("identifier: key does not match scheme")
	ErrInvalidOwner     = errors.New("identifier: owner table or id is empty or contains the delimiter")
)

// reservedDelimiters appear inside owner ids (UUIDs use '-').
const reservedDelimiters = "-"

// Scheme builds and parses term identifiers of the form
// <table><d><owner><d><revision><d><field>[<d><d><index><d><subkey>].
type Scheme struct {
	delimiter string
}

// Parts is the decoded form of an identifier.
type Parts struct {
	Table    string
	OwnerID  string
	Revision int
	FieldKey string
	Index    int
	SubKey   string
	Repeater bool
}

// NewScheme validates the delimiter and returns a scheme.
func NewScheme(delimiter string) (Scheme, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return Scheme{}, ErrInvalidDelimiter
	}
	r, _ := utf8.DecodeRuneInString(delimiter)
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(reservedDelimiters, r) {
		return Scheme{}, ErrInvalidDelimiter
	}
	return Scheme{delimiter: delimiter}, nil
}

// MustScheme panics when the delimiter is invalid.
func MustScheme(delimiter string) Scheme {
	s, err := NewScheme(delimiter)
	if err != nil {
		panic(err)
	}
	return s
}

// Delimiter returns the configured delimiter.
func (s Scheme) Delimiter() string {
	if s.delimiter == "" {
		return DefaultDelimiter
	}
	return s.delimiter
}

// CheckOwner reports whether table and ownerID can be encoded without
// colliding with another owner. Neither may be empty or hold the delimiter.
func (s Scheme) CheckOwner(table, ownerID string) error {
	d := s.Delimiter()
	if table == "" || ownerID == "" || strings.Contains(table, d) || strings.Contains(ownerID, d) {
		return fmt.Errorf("%w: %q %q", ErrInvalidOwner, table, ownerID)
	}
	return nil
}

// OwnerPrefix matches every key of one owner across revisions. table and
// ownerID must pass CheckOwner.
func (s Scheme) OwnerPrefix(table, ownerID string) string {
	d := s.Delimiter()
	return table + d + ownerID + d
}

// Prefix matches every key of one owner revision and nothing else.
func (s Scheme) Prefix(table, ownerID string, revision int) string {
	return s.OwnerPrefix(table, ownerID) + strconv.Itoa(revision) + s.Delimiter()
}

// Build returns the identifier of a top level field.
func (s Scheme) Build(table, ownerID string, revision int, fieldKey string) (string, error) {
	if err := s.CheckOwner(table, ownerID); err != nil {
		return "", err
	}
	if err := s.checkSegment(fieldKey); err != nil {
		return "", err
	}
	return s.Prefix(table, ownerID, revision) + fieldKey, nil
}

// FieldPrefix matches the repeater leaves stored below one field.
func (s Scheme) FieldPrefix(table, ownerID string, revision int, fieldKey string) string {
	d := s.Delimiter()
	return s.Prefix(table, ownerID, revision) + fieldKey + d + d
}

// BuildRepeater returns the identifier of a repeater leaf.
func (s Scheme) BuildRepeater(table, ownerID string, revision int, fieldKey string, index int, subKey string) (string, error) {
	if err := s.CheckOwner(table, ownerID); err != nil {
		return "", err
	}
	if err := s.checkSegment(fieldKey); err != nil {
		return "", err
	}
	if err := s.checkSegment(subKey); err != nil {
		return "", err
	}
	d := s.Delimiter()
	return s.FieldPrefix(table, ownerID, revision, fieldKey) + strconv.Itoa(index) + d + subKey, nil
}

// Like turns a prefix into a LIKE pattern escaped with LikeEscape.
func (s Scheme) Like(prefix string) string {
	return LikePrefix(prefix)
}

// LikePrefix escapes the LIKE wildcards in prefix and appends %. The result
// is meant for `LIKE ? ESCAPE '\'`.
func LikePrefix(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 8)
	for _, r := range prefix {
		switch r {
		case '\\', '%', '_':
			b.WriteString(LikeEscape)
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}

// Parse decodes a key produced by Build or BuildRepeater for table.
func (s Scheme) Parse(table, key string) (Parts, error) {
	d := s.Delimiter()
	head := table + d
	if table == "" || strings.Contains(table, d) || !strings.HasPrefix(key, head) {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	rest := key[len(head):]

	owner, rest, ok := strings.Cut(rest, d)
	if !ok || owner == "" {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	rawRevision, rest, ok := strings.Cut(rest, d)
	if !ok {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	revision, err := strconv.Atoi(rawRevision)
	if err != nil {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	parts := Parts{Table: table, OwnerID: owner, Revision: revision}
	field, leaf, repeater := strings.Cut(rest, d+d)
	if s.checkSegment(field) != nil {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	parts.FieldKey = field
	if !repeater {
		return parts, nil
	}

	rawIndex, subKey, ok := strings.Cut(leaf, d)
	if !ok || s.checkSegment(subKey) != nil {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	parts.Index = index
	parts.SubKey = subKey
	parts.Repeater = true
	return parts, nil
}

func (s Scheme) checkSegment(segment string) error {
	if segment == "" {
		return ErrInvalidSegment
	}
	d := s.Delimiter()
	if strings.Contains(segment, d+d) || strings.HasPrefix(segment, d) || strings.HasSuffix(segment, d) {
		return fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
	}
	return nil
}
