package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// KeyDeleter is the part of a redis client the cache flusher needs.
// *redis.Client and *redis.ClusterClient both satisfy it.
type KeyDeleter interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CacheFlusher deletes the configured cache keys of an owner kind whenever
// one of its owners changes. "{id}" in a key is replaced by the owner id.
type CacheFlusher struct {
	client KeyDeleter
	keys   map[string][]string
}

var _ Subscriber = (*CacheFlusher)(nil)

// NewCacheFlusher maps owner kinds to the cache keys to flush for them.
func NewCacheFlusher(client KeyDeleter, keysByKind map[string][]string) *CacheFlusher {
	keys := make(map[string][]string, len(keysByKind))
	for kind, list := range keysByKind {
		keys[kind] = append([]string(nil), list...)
	}
	return &CacheFlusher{client: client, keys: keys}
}

// Keys expands the cache keys configured for subject.
func (f *CacheFlusher) Keys(subject Subject) []string {
	templates := f.keys[subject.Kind]
	out := make([]string, 0, len(templates))
	for _, key := range templates {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out = append(out, strings.ReplaceAll(key, "{id}", subject.ID))
	}
	return out
}

func (f *CacheFlusher) Handle(ctx context.Context, event Event) error {
	if f == nil || f.client == nil {
		return nil
	}
	keys := f.Keys(event.Subject)
	if len(keys) == 0 {
		return nil
	}
	if err := f.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("events: flush cache keys for %s %s: %w", event.Subject.Kind, event.Subject.ID, err)
	}
	return nil
}
