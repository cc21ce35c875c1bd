package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bevbrain/internal/model"
)

const (
	articlesFile   = "articles.json"
	lastUpdateFile = "last_update"
)

// FileStore keeps the snapshot as a JSON article array plus a small
// sidecar file with the last-update timestamp. Writes go through a
// temp file and rename, so readers see the old or the new document,
// never a torn one.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap.Articles, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding articles: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, articlesFile), data); err != nil {
		return fmt.Errorf("writing articles: %w", err)
	}

	stamp := snap.LastUpdate.UTC().Format(time.RFC3339)
	if err := writeAtomic(filepath.Join(s.dir, lastUpdateFile), []byte(stamp)); err != nil {
		return fmt.Errorf("writing last update: %w", err)
	}

	return nil
}

func (s *FileStore) Load(_ context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap model.Snapshot

	data, err := os.ReadFile(filepath.Join(s.dir, articlesFile))
	if os.IsNotExist(err) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("reading articles: %w", err)
	}
	if err := json.Unmarshal(data, &snap.Articles); err != nil {
		return snap, fmt.Errorf("decoding articles: %w", err)
	}

	if raw, err := os.ReadFile(filepath.Join(s.dir, lastUpdateFile)); err == nil {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(raw))); err == nil {
			snap.LastUpdate = t
		}
	}

	return snap, nil
}

func (s *FileStore) IsStale(ctx context.Context, maxAge time.Duration) bool {
	snap, err := s.Load(ctx)
	if err != nil || snap.LastUpdate.IsZero() {
		return true
	}
	return time.Since(snap.LastUpdate) > maxAge
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
