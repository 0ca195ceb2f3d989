package revisionscmd

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-revisions/internal/commands"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/revisions"
	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// Service is the slice of revisions.Service the handlers drive.
type Service interface {
	UpdateContent(ctx context.Context, ref revisions.Owner, data revisions.FieldData, locale string, revision int) (revisions.WriteResults, error)
	UpdateMetaItem(ctx context.Context, ref revisions.Owner, key string, value any, revision int) (*meta.Meta, error)
	Publish(ctx context.Context, ref revisions.Owner, revision int) (revisions.Revisionable, error)
	PurgeOldRevisions(ctx context.Context, ref revisions.Owner, revision int) error
	DeleteOwner(ctx context.Context, ref revisions.Owner) error
}

var _ Service = (*revisions.Service)(nil)

func handlerOptions[T command.Message](logger interfaces.Logger, operation string, fields func(T) map[string]any, extra []commands.HandlerOption[T]) []commands.HandlerOption[T] {
	opts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(fields),
		commands.WithErrorMapper[T](mapError),
	}
	return append(opts, extra...)
}

// UpdateContentHandler writes field data through the revision service.
type UpdateContentHandler struct {
	inner *commands.Handler[UpdateContentCommand]
}

func NewUpdateContentHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[UpdateContentCommand]) *UpdateContentHandler {
	exec := func(ctx context.Context, msg UpdateContentCommand) error {
		_, err := service.UpdateContent(ctx, msg.Owner(), msg.Fields, msg.Locale, msg.Revision)
		return err
	}
	fields := func(msg UpdateContentCommand) map[string]any {
		out := msg.fields()
		out["revision"] = msg.Revision
		out["locale"] = msg.Locale
		out["field_count"] = msg.Fields.Len()
		return out
	}
	return &UpdateContentHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, "revisions.update", fields, opts)...),
	}
}

func (h *UpdateContentHandler) Execute(ctx context.Context, msg UpdateContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (h *UpdateContentHandler) CLIHandler() any { return h }

func (h *UpdateContentHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"revisions", "write"},
		Group:       "revisions",
		Description: "Write field data into a revision and locale",
	}
}

// UpdateMetaHandler writes one meta value through the revision service.
type UpdateMetaHandler struct {
	inner *commands.Handler[UpdateMetaCommand]
}

func NewUpdateMetaHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[UpdateMetaCommand]) *UpdateMetaHandler {
	exec := func(ctx context.Context, msg UpdateMetaCommand) error {
		_, err := service.UpdateMetaItem(ctx, msg.Owner(), msg.Key, msg.Value, msg.Revision)
		return err
	}
	fields := func(msg UpdateMetaCommand) map[string]any {
		out := msg.fields()
		out["revision"] = msg.Revision
		out["meta_key"] = msg.Key
		return out
	}
	return &UpdateMetaHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, "revisions.meta", fields, opts)...),
	}
}

func (h *UpdateMetaHandler) Execute(ctx context.Context, msg UpdateMetaCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (h *UpdateMetaHandler) CLIHandler() any { return h }

func (h *UpdateMetaHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"revisions", "meta"},
		Group:       "revisions",
		Description: "Write one meta value into a revision",
	}
}

// PublishRevisionHandler promotes revisions through the revision service.
type PublishRevisionHandler struct {
	inner *commands.Handler[PublishRevisionCommand]
}

func NewPublishRevisionHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishRevisionCommand]) *PublishRevisionHandler {
	exec := func(ctx context.Context, msg PublishRevisionCommand) error {
		_, err := service.Publish(ctx, msg.Owner(), msg.Revision)
		return err
	}
	fields := func(msg PublishRevisionCommand) map[string]any {
		out := msg.fields()
		out["revision"] = msg.Revision
		return out
	}
	return &PublishRevisionHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, "revisions.publish", fields, opts)...),
	}
}

func (h *PublishRevisionHandler) Execute(ctx context.Context, msg PublishRevisionCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (h *PublishRevisionHandler) CLIHandler() any { return h }

func (h *PublishRevisionHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"revisions", "publish"},
		Group:       "revisions",
		Description: "Publish a revision in every enabled locale",
	}
}

// PurgeRevisionHandler deletes superseded revision data.
type PurgeRevisionHandler struct {
	inner *commands.Handler[PurgeRevisionCommand]
}

func NewPurgeRevisionHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[PurgeRevisionCommand]) *PurgeRevisionHandler {
	exec := func(ctx context.Context, msg PurgeRevisionCommand) error {
		return service.PurgeOldRevisions(ctx, msg.Owner(), msg.Revision)
	}
	fields := func(msg PurgeRevisionCommand) map[string]any {
		out := msg.fields()
		out["revision"] = msg.Revision
		return out
	}
	return &PurgeRevisionHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, "revisions.purge", fields, opts)...),
	}
}

func (h *PurgeRevisionHandler) Execute(ctx context.Context, msg PurgeRevisionCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (h *PurgeRevisionHandler) CLIHandler() any { return h }

func (h *PurgeRevisionHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"revisions", "purge"},
		Group:       "revisions",
		Description: "Delete the data of a superseded revision",
	}
}

// DeleteOwnerHandler removes all revision data of an owner.
type DeleteOwnerHandler struct {
	inner *commands.Handler[DeleteOwnerCommand]
}

func NewDeleteOwnerHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[DeleteOwnerCommand]) *DeleteOwnerHandler {
	exec := func(ctx context.Context, msg DeleteOwnerCommand) error {
		return service.DeleteOwner(ctx, msg.Owner())
	}
	fields := func(msg DeleteOwnerCommand) map[string]any {
		return msg.fields()
	}
	return &DeleteOwnerHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, "revisions.delete", fields, opts)...),
	}
}

func (h *DeleteOwnerHandler) Execute(ctx context.Context, msg DeleteOwnerCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (h *DeleteOwnerHandler) CLIHandler() any { return h }

func (h *DeleteOwnerHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"revisions", "delete"},
		Group:       "revisions",
		Description: "Delete every revision of an owner",
	}
}

// Handlers groups the revision command handlers.
type Handlers struct {
	Update  *UpdateContentHandler
	Meta    *UpdateMetaHandler
	Publish *PublishRevisionHandler
	Purge   *PurgeRevisionHandler
	Delete  *DeleteOwnerHandler
}

// NewHandlers builds every revision handler against service. A positive
// timeout replaces the default command timeout.
func NewHandlers(service Service, logger interfaces.Logger, timeout time.Duration) Handlers {
	if timeout <= 0 {
		timeout = commands.DefaultCommandTimeout
	}
	return Handlers{
		Update:  NewUpdateContentHandler(service, logger, commands.WithTimeout[UpdateContentCommand](timeout)),
		Meta:    NewUpdateMetaHandler(service, logger, commands.WithTimeout[UpdateMetaCommand](timeout)),
		Publish: NewPublishRevisionHandler(service, logger, commands.WithTimeout[PublishRevisionCommand](timeout)),
		Purge:   NewPurgeRevisionHandler(service, logger, commands.WithTimeout[PurgeRevisionCommand](timeout)),
		Delete:  NewDeleteOwnerHandler(service, logger, commands.WithTimeout[DeleteOwnerCommand](timeout)),
	}
}

// All returns the handlers in registration order.
func (h Handlers) All() []any {
	return []any{h.Update, h.Meta, h.Publish, h.Purge, h.Delete}
}
