package revisions

import (
	"context"
	"fmt"
	"slices"

	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/internal/meta"
)

// Publish promotes revision of owner in every enabled locale.
//
// Each locale runs in its own transaction: the revision content is copied
// to revision+1, the owner is marked published and saved through its kind
// store, and revision-1 is purged. A failure stops the loop and returns the
// owner as stored; locales already processed stay committed.
func (e *Engine) Publish(ctx context.Context, owner Revisionable, revision int) (Revisionable, error) {
	if owner == nil || owner.RevisionOwner().IsZero() {
		return nil, ErrOwnerRequired
	}
	if revision <= 0 {
		return nil, ErrInvalidRevision
	}
	ref := owner.RevisionOwner()
	if err := e.scheme.CheckOwner(ref.Kind, ref.ID); err != nil {
		return nil, err
	}
	kind, err := e.kinds.Lookup(ref.Kind)
	if err != nil {
		return nil, err
	}
	if !e.startPublishing(ref) {
		return nil, ErrPublishInProgress
	}
	defer e.finishPublishing(ref)

	logger := logging.WithRevisionContext(logging.FromContext(ctx, e.logger), ref.Kind, ref.ID, revision, "")
	enabled, err := e.locales.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	published := make(map[string]map[string]any, len(enabled))
	if len(enabled) == 0 {
		logger.Warn("revisions.publish_without_locales")
	}
	for _, locale := range enabled {
		content, err := e.publishLocale(ctx, owner, kind, revision, locale.Code)
		if err != nil {
			logger.Error("revisions.publish_failed", "locale", locale.Code, "error", err)
			return e.reload(ctx, kind, owner), err
		}
		published[locale.Code] = content
	}

	logger.Info("revisions.published", "locales", len(published))
	e.publishEvent(ctx, events.Event{
		Name:     events.RevisionPublished,
		Subject:  subject(owner),
		Revision: revision,
		Content:  published,
		Owner:    owner,
	})
	return owner, nil
}

func (e *Engine) publishLocale(ctx context.Context, owner Revisionable, kind Kind, revision int, locale string) (map[string]any, error) {
	var content Content
	err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := e.begin(ctx, owner, revision, locale)
		if err != nil {
			return err
		}
		read, unbound, err := e.read(ctx, c)
		if err != nil {
			return err
		}

		next := revision + 1

		fields := FieldData{}
		metaOnly := FieldData{}
		for _, key := range sortedKeys(read) {
			if slices.Contains(unbound, key) {
				metaOnly.Set(key, read[key])
				continue
			}
			fields.Set(key, read[key])
		}
		if _, err := e.updateContent(ctx, owner, fields, locale, next, false); err != nil {
			return err
		}
		if _, err := e.UpdateMetaContent(ctx, owner, metaOnly, next); err != nil {
			return err
		}

		owner.MarkPublished(revision, e.now())
		if kind.Store != nil {
			if err := kind.Store.Save(ctx, owner); err != nil {
				return fmt.Errorf("revisions: save %s: %w", owner.RevisionOwner(), err)
			}
		}
		if err := e.PurgeOldRevisions(ctx, owner, revision-1); err != nil {
			return err
		}
		content = read
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// reload returns the stored state of owner after a failed locale, or owner
// itself when the kind has no store.
func (e *Engine) reload(ctx context.Context, kind Kind, owner Revisionable) Revisionable {
	if kind.Store == nil {
		return owner
	}
	stored, err := kind.Store.Load(ctx, owner.RevisionOwner().ID)
	if err != nil || stored == nil {
		return owner
	}
	return stored
}

func (e *Engine) startPublishing(ref Owner) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.publishing[ref]; ok {
		return false
	}
	e.publishing[ref] = struct{}{}
	return true
}

func (e *Engine) finishPublishing(ref Owner) {
	e.mu.Lock()
	delete(e.publishing, ref)
	e.mu.Unlock()
}

// PurgeOldRevisions deletes the terms of revision and every meta row of
// owner up to and including revision. Purging twice is a no-op.
func (e *Engine) PurgeOldRevisions(ctx context.Context, owner Revisionable, revision int) error {
	if owner == nil || owner.RevisionOwner().IsZero() {
		return ErrOwnerRequired
	}
	ref := owner.RevisionOwner()
	return e.purge(ctx, ref, revision)
}

func (e *Engine) purge(ctx context.Context, ref Owner, revision int) error {
	if err := e.scheme.CheckOwner(ref.Kind, ref.ID); err != nil {
		return err
	}
	prefix := e.scheme.Prefix(ref.Kind, ref.ID, revision)
	removedTerms, err := e.terms.DeleteByPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	removedMeta, err := e.meta.DeleteThrough(ctx, meta.Owner{Type: ref.Kind, ID: ref.ID}, revision)
	if err != nil {
		return err
	}
	logging.WithRevisionContext(e.logger, ref.Kind, ref.ID, revision, "").
		Debug("revisions.purged", "terms", removedTerms, "meta", removedMeta)
	return nil
}

// DeleteOwner removes every term, definition and meta row of owner.
func (e *Engine) DeleteOwner(ctx context.Context, ref Owner) error {
	if ref.IsZero() {
		return ErrOwnerRequired
	}
	if err := e.scheme.CheckOwner(ref.Kind, ref.ID); err != nil {
		return err
	}
	err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := e.meta.DeleteOwner(ctx, meta.Owner{Type: ref.Kind, ID: ref.ID}); err != nil {
			return err
		}
		_, err := e.terms.DeleteByPrefix(ctx, e.scheme.OwnerPrefix(ref.Kind, ref.ID))
		return err
	})
	if err != nil {
		return err
	}
	logging.WithRevisionContext(logging.FromContext(ctx, e.logger), ref.Kind, ref.ID, 0, "").Info("revisions.owner_deleted")
	e.publishEvent(ctx, events.Event{
		Name:    events.RevisionDeleted,
		Subject: events.Subject{Kind: ref.Kind, ID: ref.ID},
	})
	return nil
}

func sortedKeys(content Content) []string {
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
