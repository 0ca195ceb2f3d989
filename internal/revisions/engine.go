package revisions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/identifier"
	"github.com/goliatone/go-revisions/internal/locales"
	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/goliatone/go-revisions/internal/templates"
	"github.com/goliatone/go-revisions/internal/terms"
	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// DefaultLocale is used when neither the call nor the engine names one.
const DefaultLocale = "en"

// Dependencies are the stores the engine reads and writes.
type Dependencies struct {
	Terms     terms.Repository
	Meta      meta.Repository
	Templates templates.Service
	Locales   locales.Registry
	Kinds     *Kinds
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithScheme(scheme identifier.Scheme) EngineOption {
	return func(e *Engine) {
		if scheme.Delimiter() != "" {
			e.scheme = scheme
		}
	}
}

func WithSink(sink events.Sink) EngineOption {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

func WithTransactor(tx storage.Transactor) EngineOption {
	return func(e *Engine) {
		if tx != nil {
			e.tx = tx
		}
	}
}

func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithDefaultLocale(locale string) EngineOption {
	return func(e *Engine) {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			e.defaultLocale = trimmed
		}
	}
}

// Engine stores revisioned field data as terms, definitions and meta rows
// and promotes revisions on publish. It is safe for concurrent use.
type Engine struct {
	terms         terms.Repository
	meta          meta.Repository
	templates     templates.Service
	locales       locales.Registry
	kinds         *Kinds
	scheme        identifier.Scheme
	sink          events.Sink
	tx            storage.Transactor
	now           func() time.Time
	logger        interfaces.Logger
	defaultLocale string

	mu         sync.Mutex
	publishing map[Owner]struct{}
}

func NewEngine(deps Dependencies, opts ...EngineOption) (*Engine, error) {
	switch {
	case deps.Terms == nil:
		return nil, errors.New("revisions: term repository is required")
	case deps.Meta == nil:
		return nil, errors.New("revisions: meta repository is required")
	case deps.Templates == nil:
		return nil, errors.New("revisions: template service is required")
	}

	e := &Engine{
		terms:         deps.Terms,
		meta:          deps.Meta,
		templates:     deps.Templates,
		locales:       deps.Locales,
		kinds:         deps.Kinds,
		scheme:        identifier.MustScheme(identifier.DefaultDelimiter),
		sink:          events.NopSink{},
		tx:            storage.NoopTransactor{},
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logging.NoOp(),
		defaultLocale: DefaultLocale,
		publishing:    make(map[Owner]struct{}),
	}
	if e.locales == nil {
		e.locales = locales.StaticRegistry{}
	}
	if e.kinds == nil {
		e.kinds, _ = NewKinds()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Kinds() *Kinds { return e.kinds }

func (e *Engine) Scheme() identifier.Scheme { return e.scheme }

// State reports the publish state of owner, including publishes in flight.
func (e *Engine) State(owner Revisionable) State {
	if owner == nil {
		return State{}
	}
	e.mu.Lock()
	_, inFlight := e.publishing[owner.RevisionOwner()]
	e.mu.Unlock()
	if inFlight {
		return State{Phase: PhasePublishing, Revision: owner.CurrentRevision()}
	}
	return StateOf(owner)
}

// call carries the resolved context of one engine operation.
type call struct {
	owner    Revisionable
	ref      Owner
	kind     Kind
	revision int
	locale   string
	template string
	logger   interfaces.Logger
	fields   map[string]*templates.TemplateField
}

func (e *Engine) begin(ctx context.Context, owner Revisionable, revision int, locale string) (*call, error) {
	if owner == nil {
		return nil, ErrOwnerRequired
	}
	ref := owner.RevisionOwner()
	if ref.IsZero() {
		return nil, ErrOwnerRequired
	}
	if err := e.scheme.CheckOwner(ref.Kind, ref.ID); err != nil {
		return nil, err
	}
	kind, err := e.kinds.Lookup(ref.Kind)
	if err != nil {
		return nil, err
	}
	if revision <= 0 {
		revision = owner.CurrentRevision()
	}
	if revision <= 0 {
		return nil, ErrInvalidRevision
	}
	if strings.TrimSpace(locale) == "" {
		locale = e.defaultLocale
	}
	template := kind.Options.DefaultTemplate
	if templated, ok := owner.(Templated); ok {
		if slug := strings.TrimSpace(templated.RevisionTemplate()); slug != "" {
			template = slug
		}
	}
	logger := logging.WithRevisionContext(logging.FromContext(ctx, e.logger), ref.Kind, ref.ID, revision, locale)
	return &call{
		owner:    owner,
		ref:      ref,
		kind:     kind,
		revision: revision,
		locale:   locale,
		template: template,
		logger:   logger,
		fields:   make(map[string]*templates.TemplateField),
	}, nil
}

func (c *call) metaOwner() meta.Owner {
	return meta.Owner{Type: c.ref.Kind, ID: c.ref.ID}
}

// field resolves a template field once per call.
func (e *Engine) field(ctx context.Context, c *call, key string) (*templates.TemplateField, error) {
	if field, ok := c.fields[key]; ok {
		return field, nil
	}
	field, err := e.templates.FieldByKey(ctx, key, c.template)
	if err != nil {
		return nil, err
	}
	c.fields[key] = field
	return field, nil
}

func (e *Engine) publishEvent(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	e.sink.Publish(ctx, event)
}

func subject(owner Revisionable) events.Subject {
	ref := owner.RevisionOwner()
	return events.Subject{Kind: ref.Kind, ID: ref.ID, Title: owner.RevisionTitle()}
}
