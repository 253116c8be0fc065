package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/teamsplit/internal/ir"
)

// FileBackend keeps every snapshot in a single JSON file.
//
// Each write rewrites the whole file through a temp file and rename, so a
// crash leaves either the old or the new document.
type FileBackend struct {
	mu   sync.Mutex
	Path string
}

type fileDocument struct {
	SchemaVersion string        `json:"schema_version"`
	Snapshots     []ir.Snapshot `json:"snapshots"`
}

// NewFileBackend creates a backend for path. The file is created on first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Write appends snap unless its ID is already stored.
func (b *FileBackend) Write(_ context.Context, snap ir.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("write snapshot: empty id")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}
	for _, existing := range doc.Snapshots {
		if existing.ID == snap.ID {
			return nil
		}
	}
	doc.Snapshots = append(doc.Snapshots, snap)
	sortNewestFirst(doc.Snapshots)
	return b.save(doc)
}

// Get returns the snapshot with id.
func (b *FileBackend) Get(_ context.Context, id string) (ir.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return ir.Snapshot{}, err
	}
	for _, snap := range doc.Snapshots {
		if snap.ID == id {
			return snap, nil
		}
	}
	return ir.Snapshot{}, fmt.Errorf("%w: %s", ir.ErrNotFound, id)
}

// List returns every stored snapshot, newest first.
func (b *FileBackend) List(context.Context) ([]ir.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.load()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(doc.Snapshots)
	return doc.Snapshots, nil
}

// Close is a no-op; every write is already flushed.
func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) load() (fileDocument, error) {
	doc := fileDocument{SchemaVersion: ir.SchemaVersion, Snapshots: []ir.Snapshot{}}
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", b.Path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", b.Path, err)
	}
	if doc.Snapshots == nil {
		doc.Snapshots = []ir.Snapshot{}
	}
	return doc, nil
}

func (b *FileBackend) save(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".teamsplit-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), b.Path); err != nil {
		return fmt.Errorf("replace %s: %w", b.Path, err)
	}
	return nil
}
