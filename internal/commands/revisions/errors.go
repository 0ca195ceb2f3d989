package revisionscmd

import (
	"github.com/goliatone/go-revisions/internal/commands"
	"github.com/goliatone/go-revisions/internal/identifier"
	"github.com/goliatone/go-revisions/internal/revisions"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/goliatone/go-revisions/internal/templates"

	goerrors "github.com/goliatone/go-errors"
)

// mapError tags engine errors so callers can tell a template mismatch from
// a store outage.
var mapError = commands.ErrorMapper(
	commands.ErrorRule{Target: templates.ErrFieldKeyNotFound, Category: goerrors.CategoryNotFound, Code: "REVISIONS_FIELD_KEY_NOT_FOUND"},
	commands.ErrorRule{Target: templates.ErrFieldValueInvalid, Category: goerrors.CategoryValidation, Code: "REVISIONS_FIELD_VALUE_INVALID"},
	commands.ErrorRule{Target: revisions.ErrUnknownOwnerKind, Category: goerrors.CategoryBadInput, Code: "REVISIONS_UNKNOWN_OWNER_KIND"},
	commands.ErrorRule{Target: identifier.ErrInvalidOwner, Category: goerrors.CategoryBadInput, Code: "REVISIONS_INVALID_OWNER"},
	commands.ErrorRule{Target: identifier.ErrInvalidSegment, Category: goerrors.CategoryBadInput, Code: "REVISIONS_INVALID_FIELD_KEY"},
	commands.ErrorRule{Target: revisions.ErrInvalidRevision, Category: goerrors.CategoryBadInput, Code: "REVISIONS_INVALID_REVISION"},
	commands.ErrorRule{Target: revisions.ErrPublishInProgress, Category: goerrors.CategoryConflict, Code: "REVISIONS_PUBLISH_IN_PROGRESS"},
	commands.ErrorRule{Target: revisions.ErrGetterInvocation, Category: goerrors.CategoryExternal, Code: "REVISIONS_GETTER_FAILED"},
	commands.ErrorRule{Target: storage.ErrConflict, Category: goerrors.CategoryConflict, Code: "REVISIONS_STORE_CONFLICT"},
)
