package revisions

import (
	"context"
	"fmt"

	"github.com/goliatone/go-revisions/internal/meta"
)

// Service resolves owner references through the kind registry and runs
// engine operations on the loaded owners.
type Service struct {
	engine *Engine
}

func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) Engine() *Engine { return s.engine }

// Resolve loads the owner behind ref from its kind store.
func (s *Service) Resolve(ctx context.Context, ref Owner) (Revisionable, error) {
	if ref.IsZero() {
		return nil, ErrOwnerRequired
	}
	kind, err := s.engine.kinds.Lookup(ref.Kind)
	if err != nil {
		return nil, err
	}
	if kind.Store == nil {
		return nil, fmt.Errorf("revisions: kind %q has no owner store: %w", ref.Kind, ErrUnknownOwnerKind)
	}
	owner, err := kind.Store.Load(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrOwnerRequired
	}
	return owner, nil
}

func (s *Service) UpdateContent(ctx context.Context, ref Owner, data FieldData, locale string, revision int) (WriteResults, error) {
	owner, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.engine.UpdateContent(ctx, owner, data, locale, revision)
}

func (s *Service) GetFieldContent(ctx context.Context, ref Owner, revision int, locale string) (Content, error) {
	owner, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.engine.GetFieldContent(ctx, owner, revision, locale)
}

func (s *Service) Publish(ctx context.Context, ref Owner, revision int) (Revisionable, error) {
	owner, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if revision <= 0 {
		revision = owner.CurrentRevision()
	}
	return s.engine.Publish(ctx, owner, revision)
}

func (s *Service) PurgeOldRevisions(ctx context.Context, ref Owner, revision int) error {
	if ref.IsZero() {
		return ErrOwnerRequired
	}
	if _, err := s.engine.kinds.Lookup(ref.Kind); err != nil {
		return err
	}
	return s.engine.purge(ctx, ref, revision)
}

// DeleteOwner removes the revision data of ref. The owner record itself is
// left to its kind.
func (s *Service) DeleteOwner(ctx context.Context, ref Owner) error {
	if _, err := s.engine.kinds.Lookup(ref.Kind); err != nil && !ref.IsZero() {
		return err
	}
	return s.engine.DeleteOwner(ctx, ref)
}

func (s *Service) UpdateMetaItem(ctx context.Context, ref Owner, key string, value any, revision int) (*meta.Meta, error) {
	owner, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.engine.UpdateMetaItem(ctx, owner, key, value, revision)
}

func (s *Service) UpdateMetaContent(ctx context.Context, ref Owner, data FieldData, revision int) ([]*meta.Meta, error) {
	owner, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.engine.UpdateMetaContent(ctx, owner, data, revision)
}

func (s *Service) TranslateByKey(ctx context.Context, key, locale string) (any, error) {
	return s.engine.TranslateByKey(ctx, key, locale)
}

func (s *Service) State(ctx context.Context, ref Owner) (State, error) {
	owner, err := s.Resolve(ctx, ref)
	if err != nil {
		return State{}, err
	}
	return s.engine.State(owner), nil
}
