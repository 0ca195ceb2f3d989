package revisions

import (
	"context"

	"github.com/goliatone/go-revisions/internal/di"
	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/locales"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/pages"
	core "github.com/goliatone/go-revisions/internal/revisions"
	"github.com/goliatone/go-revisions/internal/templates"
	"github.com/goliatone/go-revisions/pkg/interfaces"
	"github.com/uptrace/bun"
)

type (
	Owner          = core.Owner
	Revisionable   = core.Revisionable
	Templated      = core.Templated
	FieldData      = core.FieldData
	Content        = core.Content
	WriteResult    = core.WriteResult
	WriteResults   = core.WriteResults
	State          = core.State
	Phase          = core.Phase
	Kind           = core.Kind
	KindOptions    = core.Options
	OwnerStore     = core.OwnerStore
	MetaValue      = core.MetaValue
	GetterFunc     = core.GetterFunc
	GetterRegistry = core.GetterRegistry

	Meta              = meta.Meta
	Page              = pages.Page
	CreatePageRequest = pages.CreatePageRequest
	Template          = templates.Template
	Locale            = locales.Locale

	Event      = events.Event
	Subscriber = events.Subscriber
	Indexer    = events.Indexer
	Document   = events.Document

	PageService     = *pages.Service
	TemplateService = templates.Service
	LocaleService   = locales.Repository
	RevisionService = *core.Service
)

var (
	ErrUnknownOwnerKind  = core.ErrUnknownOwnerKind
	ErrOwnerRequired     = core.ErrOwnerRequired
	ErrInvalidRevision   = core.ErrInvalidRevision
	ErrPublishInProgress = core.ErrPublishInProgress
	ErrGetterInvocation  = core.ErrGetterInvocation
	ErrFieldKeyNotFound  = templates.ErrFieldKeyNotFound
	ErrFieldValueInvalid = templates.ErrFieldValueInvalid
)

const (
	PhaseDraft      = core.PhaseDraft
	PhasePublishing = core.PhasePublishing
	PhasePublished  = core.PhasePublished
)

const (
	EventRevisionUpdated   = events.RevisionUpdated
	EventRevisionPublished = events.RevisionPublished
	EventRevisionDeleted   = events.RevisionDeleted
)

// NewFieldData builds ordered field data from key/value pairs.
func NewFieldData(pairs ...any) (FieldData, error) {
	return core.NewFieldData(pairs...)
}

type Option = di.Option

func WithBunDB(db *bun.DB) Option { return di.WithBunDB(db) }

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

func WithRedis(client events.KeyDeleter) Option { return di.WithRedis(client) }

func WithActivitySink(sink interfaces.ActivitySink) Option { return di.WithActivitySink(sink) }

func WithIndexer(indexer Indexer) Option { return di.WithIndexer(indexer) }

func WithSubscribers(subscribers ...Subscriber) Option { return di.WithSubscribers(subscribers...) }

func WithGetters(kind string, getters GetterRegistry) Option { return di.WithGetters(kind, getters) }

func WithOwnerStore(kind string, store OwnerStore) Option { return di.WithOwnerStore(kind, store) }

// Module is the entry point host applications use to reach the revision
// services.
type Module struct {
	container     *di.Container
	subscriptions []CommandSubscription
}

// New wires the module, creates the bun tables when migrations are enabled
// and seeds the configured locales. Command handlers are subscribed to the
// go-command dispatcher when Commands.AutoRegisterDispatcher is set.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := container.Bootstrap(ctx); err != nil {
		_ = container.Close()
		return nil, err
	}

	m := &Module{container: container}
	if cfg.Commands.Enabled && cfg.Commands.AutoRegisterDispatcher {
		m.subscriptions = SubscribeDispatcher(container.Handlers(), cfg.Commands.MaxRetries)
	}
	return m, nil
}

// Container exposes the underlying DI container.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Revisions() RevisionService {
	return m.container.RevisionService()
}

func (m *Module) Pages() PageService {
	return m.container.PageService()
}

func (m *Module) Templates() TemplateService {
	return m.container.TemplateService()
}

func (m *Module) Locales() LocaleService {
	return m.container.LocaleRepository()
}

func (m *Module) Events() *events.Dispatcher {
	return m.container.Dispatcher()
}

// Migrate creates the bun tables regardless of Storage.Migrate.
func (m *Module) Migrate(ctx context.Context) error {
	return m.container.Migrate(ctx)
}

func (m *Module) UpdateContent(ctx context.Context, ref Owner, data FieldData, locale string, revision int) (WriteResults, error) {
	return m.Revisions().UpdateContent(ctx, ref, data, locale, revision)
}

func (m *Module) GetFieldContent(ctx context.Context, ref Owner, revision int, locale string) (Content, error) {
	return m.Revisions().GetFieldContent(ctx, ref, revision, locale)
}

func (m *Module) Publish(ctx context.Context, ref Owner, revision int) (Revisionable, error) {
	return m.Revisions().Publish(ctx, ref, revision)
}

func (m *Module) PurgeOldRevisions(ctx context.Context, ref Owner, revision int) error {
	return m.Revisions().PurgeOldRevisions(ctx, ref, revision)
}

func (m *Module) DeleteOwner(ctx context.Context, ref Owner) error {
	return m.Revisions().DeleteOwner(ctx, ref)
}

func (m *Module) TranslateByKey(ctx context.Context, key, locale string) (any, error) {
	return m.Revisions().TranslateByKey(ctx, key, locale)
}

func (m *Module) UpdateMetaItem(ctx context.Context, ref Owner, key string, value any, revision int) (*Meta, error) {
	return m.Revisions().UpdateMetaItem(ctx, ref, key, value, revision)
}

func (m *Module) UpdateMetaContent(ctx context.Context, ref Owner, data FieldData, revision int) ([]*Meta, error) {
	return m.Revisions().UpdateMetaContent(ctx, ref, data, revision)
}

func (m *Module) State(ctx context.Context, ref Owner) (State, error) {
	return m.Revisions().State(ctx, ref)
}

// Close drops the dispatcher subscriptions and the connections the module
// opened.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	for _, sub := range m.subscriptions {
		sub.Unsubscribe()
	}
	m.subscriptions = nil
	return m.container.Close()
}
