package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const namespace = "go-revisions:"

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys are hashed verbatim, surrounding whitespace included. Callers that
// want trimming or case folding do it themselves. A blank key maps to
// uuid.Nil.
func UUID(key string) uuid.UUID {
	if strings.TrimSpace(key) == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(false))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return uid
}

// TermUUID is the id of the term stored under key.
func TermUUID(key string) uuid.UUID {
	return UUID(namespace + "term:" + key)
}

// DefinitionUUID is the id of the definition of one term in one locale.
func DefinitionUUID(termID uuid.UUID, locale string) uuid.UUID {
	return UUID(namespace + "definition:" + termID.String() + ":" + strings.ToLower(strings.TrimSpace(locale)))
}

// MetaUUID is the id of a meta row addressed by its compound key.
func MetaUUID(ownerType, ownerID string, revision int, metaKey string) uuid.UUID {
	return UUID(namespace + "meta:" + ownerType + ":" + ownerID + ":" + strconv.Itoa(revision) + ":" + metaKey)
}

func TemplateUUID(slug string) uuid.UUID {
	return UUID(namespace + "template:" + strings.ToLower(strings.TrimSpace(slug)))
}

func TemplateFieldUUID(templateID uuid.UUID, key string) uuid.UUID {
	return UUID(namespace + "template_field:" + templateID.String() + ":" + strings.TrimSpace(key))
}

func LocaleUUID(code string) uuid.UUID {
	return UUID(namespace + "locale:" + strings.ToLower(strings.TrimSpace(code)))
}
