package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/teamsplit/internal/ir"
)

// MemoryBackend keeps snapshots in process memory.
//
// Thread-safety: safe for concurrent use.
type MemoryBackend struct {
	mu    sync.Mutex
	snaps map[string]ir.Snapshot
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{snaps: make(map[string]ir.Snapshot)}
}

// Write stores a copy of snap.
func (b *MemoryBackend) Write(_ context.Context, snap ir.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("write snapshot: empty id")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.snaps[snap.ID]; ok {
		return nil
	}
	b.snaps[snap.ID] = cloneSnapshot(snap)
	return nil
}

// Get returns a copy of the snapshot with id.
func (b *MemoryBackend) Get(_ context.Context, id string) (ir.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap, ok := b.snaps[id]
	if !ok {
		return ir.Snapshot{}, fmt.Errorf("%w: %s", ir.ErrNotFound, id)
	}
	return cloneSnapshot(snap), nil
}

// List returns copies of every snapshot, newest first.
func (b *MemoryBackend) List(context.Context) ([]ir.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ir.Snapshot, 0, len(b.snaps))
	for _, snap := range b.snaps {
		out = append(out, cloneSnapshot(snap))
	}
	sortNewestFirst(out)
	return out, nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error {
	return nil
}
