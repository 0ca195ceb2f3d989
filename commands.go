package revisions

import (
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	revisionscmd "github.com/goliatone/go-revisions/internal/commands/revisions"
)

type (
	OwnerRef               = revisionscmd.OwnerRef
	UpdateContentCommand   = revisionscmd.UpdateContentCommand
	UpdateMetaCommand      = revisionscmd.UpdateMetaCommand
	PublishRevisionCommand = revisionscmd.PublishRevisionCommand
	PurgeRevisionCommand   = revisionscmd.PurgeRevisionCommand
	DeleteOwnerCommand     = revisionscmd.DeleteOwnerCommand
	CommandHandlers        = revisionscmd.Handlers
)

// CommandRegistry records command handlers so hosts can expose them via CLI.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry   CommandRegistry
	Dispatcher CommandDispatcher
}

// RegistrationResult captures the registered handlers and any dispatcher
// subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// CommandHandlers returns the revision command handlers of the module.
func (m *Module) CommandHandlers() CommandHandlers {
	return m.container.Handlers()
}

// RegisterCommands hands every revision command handler to the registry and
// dispatcher in opts. Registration errors are joined; handlers that fail to
// register are still listed in the result.
func (m *Module) RegisterCommands(opts RegistrationOptions) (*RegistrationResult, error) {
	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}
	if m == nil || m.container == nil || !m.container.Config.Commands.Enabled {
		return result, nil
	}

	var errs error
	for _, handler := range m.container.Handlers().All() {
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}
	return result, errs
}

// SubscribeDispatcher subscribes the handlers to the global go-command
// dispatcher so callers can dispatch revision messages directly.
func SubscribeDispatcher(handlers CommandHandlers, maxRetries int) []CommandSubscription {
	if maxRetries < 0 {
		maxRetries = 0
	}
	retries := runner.WithMaxRetries(maxRetries)
	return []CommandSubscription{
		dispatcher.SubscribeCommand[UpdateContentCommand](handlers.Update, retries),
		dispatcher.SubscribeCommand[UpdateMetaCommand](handlers.Meta, retries),
		dispatcher.SubscribeCommand[PublishRevisionCommand](handlers.Publish, retries),
		dispatcher.SubscribeCommand[PurgeRevisionCommand](handlers.Purge, retries),
		dispatcher.SubscribeCommand[DeleteOwnerCommand](handlers.Delete, retries),
	}
}
