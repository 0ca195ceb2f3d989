package revisionscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-revisions/internal/revisions"
)

const (
	updateContentMessageType   = "revisions.content.update"
	updateMetaMessageType      = "revisions.meta.update"
	publishRevisionMessageType = "revisions.publish"
	purgeRevisionMessageType   = "revisions.purge"
	deleteOwnerMessageType     = "revisions.owner.delete"
)

// OwnerRef addresses the owner a command acts on.
type OwnerRef struct {
	Kind    string `json:"kind"`
	OwnerID string `json:"owner_id"`
}

func (r OwnerRef) Owner() revisions.Owner {
	return revisions.Owner{Kind: strings.TrimSpace(r.Kind), ID: strings.TrimSpace(r.OwnerID)}
}

func (r OwnerRef) validate(errs validation.Errors, prefix string) {
	if strings.TrimSpace(r.Kind) == "" {
		errs["kind"] = validation.NewError(prefix+".kind_required", "kind is required")
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		errs["owner_id"] = validation.NewError(prefix+".owner_id_required", "owner_id is required")
	}
}

func (r OwnerRef) fields() map[string]any {
	return map[string]any{"owner_type": r.Kind, "owner_id": r.OwnerID}
}

func result(errs validation.Errors) error {
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateContentCommand writes field data into one revision and locale. A
// zero revision targets the owner's current draft and an empty locale the
// engine default.
type UpdateContentCommand struct {
	OwnerRef
	Revision int                 `json:"revision,omitempty"`
	Locale   string              `json:"locale,omitempty"`
	Fields   revisions.FieldData `json:"fields"`
}

func (UpdateContentCommand) Type() string { return updateContentMessageType }

func (m UpdateContentCommand) Validate() error {
	errs := validation.Errors{}
	m.OwnerRef.validate(errs, updateContentMessageType)
	if m.Revision < 0 {
		errs["revision"] = validation.NewError(updateContentMessageType+".revision_invalid", "revision cannot be negative")
	}
	return result(errs)
}

// UpdateMetaCommand writes one untranslated value without a template lookup.
type UpdateMetaCommand struct {
	OwnerRef
	Revision int    `json:"revision,omitempty"`
	Key      string `json:"key"`
	Value    any    `json:"value"`
}

func (UpdateMetaCommand) Type() string { return updateMetaMessageType }

func (m UpdateMetaCommand) Validate() error {
	errs := validation.Errors{}
	m.OwnerRef.validate(errs, updateMetaMessageType)
	if strings.TrimSpace(m.Key) == "" {
		errs["key"] = validation.NewError(updateMetaMessageType+".key_required", "key is required")
	}
	if m.Revision < 0 {
		errs["revision"] = validation.NewError(updateMetaMessageType+".revision_invalid", "revision cannot be negative")
	}
	return result(errs)
}

// PublishRevisionCommand promotes a revision in every enabled locale. A
// zero revision publishes the current draft.
type PublishRevisionCommand struct {
	OwnerRef
	Revision int `json:"revision,omitempty"`
}

func (PublishRevisionCommand) Type() string { return publishRevisionMessageType }

func (m PublishRevisionCommand) Validate() error {
	errs := validation.Errors{}
	m.OwnerRef.validate(errs, publishRevisionMessageType)
	if m.Revision < 0 {
		errs["revision"] = validation.NewError(publishRevisionMessageType+".revision_invalid", "revision cannot be negative")
	}
	return result(errs)
}

// PurgeRevisionCommand deletes the terms of one revision and the meta rows
// up to it.
type PurgeRevisionCommand struct {
	OwnerRef
	Revision int `json:"revision"`
}

func (PurgeRevisionCommand) Type() string { return purgeRevisionMessageType }

func (m PurgeRevisionCommand) Validate() error {
	errs := validation.Errors{}
	m.OwnerRef.validate(errs, purgeRevisionMessageType)
	if m.Revision <= 0 {
		errs["revision"] = validation.NewError(purgeRevisionMessageType+".revision_invalid", "revision must be greater than zero")
	}
	return result(errs)
}

// DeleteOwnerCommand removes every revision of an owner.
type DeleteOwnerCommand struct {
	OwnerRef
}

func (DeleteOwnerCommand) Type() string { return deleteOwnerMessageType }

func (m DeleteOwnerCommand) Validate() error {
	errs := validation.Errors{}
	m.OwnerRef.validate(errs, deleteOwnerMessageType)
	return result(errs)
}
