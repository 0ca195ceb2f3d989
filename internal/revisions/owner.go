package revisions

import (
	"strings"
	"time"
)

// Owner references a revisioned record by kind and id. The kind doubles as
// the table segment of every identifier the owner produces.
type Owner struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (o Owner) IsZero() bool {
	return strings.TrimSpace(o.Kind) == "" || strings.TrimSpace(o.ID) == ""
}

func (o Owner) String() string {
	return o.Kind + "/" + o.ID
}

// Revisionable is implemented by content records that keep numbered
// revisions of their field data.
//
// CurrentRevision is the next writable draft. MarkPublished records that
// revision went live at the given time and advances the draft pointer to
// revision+1.
type Revisionable interface {
	RevisionOwner() Owner
	RevisionTitle() string
	CurrentRevision() int
	PublishedRevision() (int, bool)
	MarkPublished(revision int, at time.Time)
}

// Templated owners pick the template their fields are looked up in. An
// empty slug falls back to the kind's default template.
type Templated interface {
	RevisionTemplate() string
}

// Phase is the publish state of an owner.
type Phase string

const (
	PhaseDraft      Phase = "draft"
	PhasePublishing Phase = "publishing"
	PhasePublished  Phase = "published"
)

// State pairs a phase with the revision it refers to: the writable draft
// for PhaseDraft, the live revision for PhasePublished.
type State struct {
	Phase    Phase `json:"phase"`
	Revision int   `json:"revision"`
}

// StateOf reports the resting state of owner.
func StateOf(owner Revisionable) State {
	if owner == nil {
		return State{}
	}
	if published, ok := owner.PublishedRevision(); ok && published+1 == owner.CurrentRevision() {
		return State{Phase: PhasePublished, Revision: published}
	}
	return State{Phase: PhaseDraft, Revision: owner.CurrentRevision()}
}
