// Package dedupe tracks keys that were already processed so a source is
// folded at most once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen keys together with the owner that claimed them first.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records owner
	// for it if not. It returns the first owner and whether key was seen before.
	SeenAndRecord(ctx context.Context, key, owner string) (string, bool)

	// Unrecord forgets key, e.g. when its source turned out to be unusable
	// and a later source for the same key should be tried.
	Unrecord(ctx context.Context, key string)

	Size() int
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]string // key -> first owner
}

// NewInMemoryDeduper creates an unbounded in-memory Deduper.
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{seen: make(map[string]string)}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, owner string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if first, ok := d.seen[key]; ok {
		return first, true
	}
	d.seen[key] = owner
	return owner, false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
