package di

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-revisions/internal/commands"
	revisionscmd "github.com/goliatone/go-revisions/internal/commands/revisions"
	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/identifier"
	"github.com/goliatone/go-revisions/internal/locales"
	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/internal/logging/gologger"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/pages"
	"github.com/goliatone/go-revisions/internal/revisions"
	"github.com/goliatone/go-revisions/internal/runtimeconfig"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/goliatone/go-revisions/internal/templates"
	"github.com/goliatone/go-revisions/internal/terms"
	"github.com/goliatone/go-revisions/pkg/interfaces"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// ErrOwnerStoreMissing reports a configured owner kind nothing can load.
var ErrOwnerStoreMissing = errors.New("di: owner kind has no store")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	redisClient  events.KeyDeleter
	ownedRedis   *redis.Client
	activitySink interfaces.ActivitySink
	indexer      events.Indexer
	subscribers  []events.Subscriber

	getters     map[string]revisions.GetterRegistry
	ownerStores map[string]revisions.OwnerStore

	scheme       identifier.Scheme
	transactor   storage.Transactor
	termRepo     terms.Repository
	metaRepo     meta.Repository
	templateRepo templates.Repository
	localeRepo   locales.Repository
	pageRepo     pages.Repository

	templateSvc templates.Service
	pageSvc     *pages.Service
	kinds       *revisions.Kinds
	dispatcher  *events.Dispatcher
	engine      *revisions.Engine
	revisionSvc *revisions.Service
	handlers    revisionscmd.Handlers
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB uses db instead of opening one from the storage config.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the cache used by the template repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRedis overrides the client used to flush cache keys.
func WithRedis(client events.KeyDeleter) Option {
	return func(c *Container) {
		c.redisClient = client
	}
}

// WithActivitySink records every revision event on sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activitySink = sink
	}
}

// WithIndexer receives the documents of indexable kinds.
func WithIndexer(indexer events.Indexer) Option {
	return func(c *Container) {
		c.indexer = indexer
	}
}

// WithSubscribers adds event subscribers after the built-in ones.
func WithSubscribers(subscribers ...events.Subscriber) Option {
	return func(c *Container) {
		c.subscribers = append(c.subscribers, subscribers...)
	}
}

// WithGetters registers the getters of one owner kind.
func WithGetters(kind string, getters revisions.GetterRegistry) Option {
	return func(c *Container) {
		if c.getters == nil {
			c.getters = make(map[string]revisions.GetterRegistry)
		}
		c.getters[kind] = getters
	}
}

// WithOwnerStore registers the store of an owner kind other than pages.
func WithOwnerStore(kind string, store revisions.OwnerStore) Option {
	return func(c *Container) {
		if c.ownerStores == nil {
			c.ownerStores = make(map[string]revisions.OwnerStore)
		}
		c.ownerStores[kind] = store
	}
}

// NewContainer validates cfg and wires every module. A bun database is
// opened when the config selects bun storage and none was provided.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLoggerProvider,
		c.configureStorage,
		c.configureCacheDefaults,
		c.configureRepositories,
		c.configureRedis,
		c.configureServices,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	format := c.Config.Logging.Format
	if strings.EqualFold(strings.TrimSpace(c.Config.Logging.Provider), "console") && strings.TrimSpace(format) == "" {
		format = "console"
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureStorage() error {
	if !c.Config.UsesBun() || c.bunDB != nil {
		return nil
	}
	db, err := storage.Open(context.Background(), storage.Config{
		Driver:       c.Config.Storage.Driver,
		DSN:          c.Config.Storage.DSN,
		MaxOpenConns: c.Config.Storage.MaxOpenConns,
		MaxIdleConns: c.Config.Storage.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureCacheDefaults() error {
	if !c.Config.Storage.CacheTemplates {
		return nil
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Storage.CacheTTL > 0 {
			cfg.TTL = c.Config.Storage.CacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: template cache: %w", err)
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories() error {
	scheme, err := identifier.NewScheme(c.Config.Delimiter)
	if err != nil {
		return err
	}
	c.scheme = scheme

	if c.bunDB != nil {
		tables := c.Config.Tables
		c.transactor = storage.NewTransactor(c.bunDB)
		c.termRepo = terms.NewBunRepository(c.bunDB, tables)
		c.metaRepo = meta.NewBunRepository(c.bunDB, tables)
		c.localeRepo = locales.NewBunRepository(c.bunDB, tables)
		c.pageRepo = pages.NewBunRepository(c.bunDB, tables)
		if c.cacheService != nil {
			c.templateRepo = templates.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.templateRepo = templates.NewBunRepository(c.bunDB)
		}
		return nil
	}

	c.transactor = storage.NoopTransactor{}
	c.termRepo = terms.NewMemoryRepository()
	c.metaRepo = meta.NewMemoryRepository()
	c.localeRepo = locales.NewMemoryRepository()
	c.pageRepo = pages.NewMemoryRepository()
	c.templateRepo = templates.NewMemoryRepository()
	return nil
}

func (c *Container) configureRedis() error {
	if c.redisClient != nil || !c.Config.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	c.redisClient = client
	c.ownedRedis = client
	return nil
}

func (c *Container) configureServices() error {
	c.templateSvc = templates.NewService(c.templateRepo,
		templates.WithClock(c.clock),
		templates.WithLogger(logging.TemplatesLogger(c.loggerProvider)),
	)
	c.pageSvc = pages.NewService(c.pageRepo,
		pages.WithClock(c.clock),
		pages.WithLogger(logging.PagesLogger(c.loggerProvider)),
	)

	kinds, err := c.buildKinds()
	if err != nil {
		return err
	}
	c.kinds = kinds

	c.dispatcher = events.NewDispatcher(
		events.WithLogger(logging.EventsLogger(c.loggerProvider)),
		events.WithClock(c.clock),
		events.WithSubscribers(c.eventSubscribers()...),
	)

	engine, err := revisions.NewEngine(revisions.Dependencies{
		Terms:     c.termRepo,
		Meta:      c.metaRepo,
		Templates: c.templateSvc,
		Locales:   c.localeRepo,
		Kinds:     c.kinds,
	},
		revisions.WithScheme(c.scheme),
		revisions.WithSink(c.dispatcher),
		revisions.WithTransactor(c.transactor),
		revisions.WithClock(c.clock),
		revisions.WithLogger(logging.EngineLogger(c.loggerProvider)),
		revisions.WithDefaultLocale(c.Config.DefaultLocale),
	)
	if err != nil {
		return err
	}
	c.engine = engine
	c.pageSvc.SetCleaner(engine)
	c.revisionSvc = revisions.NewService(engine)
	c.handlers = revisionscmd.NewHandlers(
		c.revisionSvc,
		commands.Logger(c.loggerProvider, "revisions"),
		c.Config.Commands.Timeout,
	)
	return nil
}

func (c *Container) buildKinds() (*revisions.Kinds, error) {
	stores := maps.Clone(c.ownerStores)
	if stores == nil {
		stores = make(map[string]revisions.OwnerStore)
	}
	if _, ok := stores[pages.Kind]; !ok {
		stores[pages.Kind] = c.pageSvc
	}

	kinds, err := revisions.NewKinds()
	if err != nil {
		return nil, err
	}
	for name, cfg := range c.Config.Kinds {
		store, ok := stores[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrOwnerStoreMissing, name)
		}
		if err := kinds.Register(revisions.Kind{
			Name:    name,
			Options: kindOptions(cfg, c.getters[name]),
			Store:   store,
		}); err != nil {
			return nil, err
		}
	}
	return kinds, nil
}

func kindOptions(cfg runtimeconfig.KindConfig, getters revisions.GetterRegistry) revisions.Options {
	return revisions.Options{
		DefaultTemplate:  cfg.DefaultTemplate,
		SpecialTypes:     cfg.SpecialTypes,
		Getters:          getters,
		CacheKeysToFlush: cfg.CacheKeysToFlush,
		Indexable:        cfg.Indexable,
		IndexableKeys:    cfg.IndexableKeys,
		TitleKey:         cfg.TitleKey,
	}
}

func (c *Container) eventSubscribers() []events.Subscriber {
	var subscribers []events.Subscriber
	if keys := c.kinds.CacheKeys(); c.redisClient != nil && len(keys) > 0 {
		subscribers = append(subscribers, events.NewCacheFlusher(c.redisClient, keys))
	}
	if c.activitySink != nil {
		subscribers = append(subscribers, events.ActivityHook{Sink: c.activitySink})
	}
	if rules := c.kinds.IndexRules(); len(rules) > 0 {
		if c.indexer == nil {
			c.indexer = events.NewMemoryIndex()
		}
		subscribers = append(subscribers, events.NewIndexHook(c.indexer, rules))
	}
	return append(subscribers, c.subscribers...)
}

// Bootstrap creates the bun tables when migrations are enabled and seeds
// the configured locales.
func (c *Container) Bootstrap(ctx context.Context) error {
	if c.bunDB != nil && c.Config.Storage.Migrate {
		if err := c.Migrate(ctx); err != nil {
			return err
		}
	}
	return c.seedLocales(ctx)
}

// Migrate creates every table the bun repositories use.
func (c *Container) Migrate(ctx context.Context) error {
	if c.bunDB == nil {
		return nil
	}
	return storage.Migrate(ctx, c.bunDB, c.Config.Tables,
		terms.Schema(),
		meta.Schema(),
		templates.Schema(),
		locales.Schema(),
		pages.Schema(),
	)
}

func (c *Container) seedLocales(ctx context.Context) error {
	logger := logging.StorageLogger(c.loggerProvider)
	for _, locale := range c.Config.Locales {
		if _, err := c.localeRepo.Upsert(ctx, locales.Locale{
			Code:    locale.Code,
			Name:    locale.Name,
			Enabled: locale.Enabled,
		}); err != nil {
			return fmt.Errorf("di: seed locale %q: %w", locale.Code, err)
		}
	}
	logger.Debug("locales.seeded", "count", len(c.Config.Locales))
	return nil
}

// Close releases the database and redis connections the container opened.
func (c *Container) Close() error {
	var errs []error
	if c.ownedRedis != nil {
		errs = append(errs, c.ownedRedis.Close())
		c.ownedRedis = nil
	}
	if c.ownsDB && c.bunDB != nil {
		errs = append(errs, c.bunDB.Close())
		c.ownsDB = false
	}
	return errors.Join(errs...)
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) DB() *bun.DB { return c.bunDB }

func (c *Container) Scheme() identifier.Scheme { return c.scheme }

func (c *Container) TermRepository() terms.Repository { return c.termRepo }

func (c *Container) MetaRepository() meta.Repository { return c.metaRepo }

func (c *Container) LocaleRepository() locales.Repository { return c.localeRepo }

func (c *Container) TemplateService() templates.Service { return c.templateSvc }

func (c *Container) PageService() *pages.Service { return c.pageSvc }

func (c *Container) Kinds() *revisions.Kinds { return c.kinds }

func (c *Container) Dispatcher() *events.Dispatcher { return c.dispatcher }

func (c *Container) Engine() *revisions.Engine { return c.engine }

func (c *Container) RevisionService() *revisions.Service { return c.revisionSvc }

func (c *Container) Handlers() revisionscmd.Handlers { return c.handlers }

// Indexer returns the search index hook target, nil when no kind is
// indexable.
func (c *Container) Indexer() events.Indexer { return c.indexer }
