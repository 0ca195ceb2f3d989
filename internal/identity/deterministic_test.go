package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestTermUUIDIsStable(t *testing.T) {
	first := TermUUID("pages_1_5_headline")
	second := TermUUID("pages_1_5_headline")
	if first == uuid.Nil {
		t.Fatal("expected non-nil id")
	}
	if first != second {
		t.Fatalf("expected stable id, got %s and %s", first, second)
	}
}

func TestTermUUIDDistinguishesKeys(t *testing.T) {
	if TermUUID("pages_1_1_headline") == TermUUID("pages_1_10_headline") {
		t.Fatal("expected distinct ids for distinct revisions")
	}
}

func TestDefinitionUUIDScopesByLocale(t *testing.T) {
	term := TermUUID("pages_1_1_headline")
	if DefinitionUUID(term, "en") == DefinitionUUID(term, "sv") {
		t.Fatal("expected locale to change definition id")
	}
	if DefinitionUUID(term, "EN") != DefinitionUUID(term, "en") {
		t.Fatal("expected locale codes to be case folded")
	}
}

func TestMetaUUIDUsesCompoundKey(t *testing.T) {
	a := MetaUUID("pages", "1", 1, "order")
	b := MetaUUID("pages", "1", 2, "order")
	c := MetaUUID("posts", "1", 1, "order")
	if a == b || a == c || b == c {
		t.Fatalf("expected distinct ids, got %s %s %s", a, b, c)
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if UUID("   ") != uuid.Nil {
		t.Fatal("expected nil id for blank key")
	}
}

func TestTermUUIDKeepsSurroundingWhitespace(t *testing.T) {
	keys := []string{
		"pages_1_1_boxes__0_title",
		"pages_1_1_boxes__0_title ",
		" pages_1_1_boxes__0_title",
	}
	seen := make(map[uuid.UUID]string, len(keys))
	for _, key := range keys {
		id := TermUUID(key)
		if prev, ok := seen[id]; ok {
			t.Fatalf("keys %q and %q share id %s", prev, key, id)
		}
		seen[id] = key
	}
}
