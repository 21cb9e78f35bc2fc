package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists conversation records. Load of an unknown key returns a
// fresh empty record, never an error.
type Store interface {
	Load(ctx context.Context, key string) (*Memory, error)
	Save(ctx context.Context, key string, mem *Memory) error
	Reset(ctx context.Context, key string) error
}

// FileStore keeps one JSON file per conversation under a directory.
// It is the zero-dependency default for single-node deployments.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	var b strings.Builder
	for _, ch := range key {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '_', ch == '-', ch == ':':
			b.WriteRune(ch)
		}
	}
	return filepath.Join(s.dir, b.String()+".json")
}

func (s *FileStore) Load(_ context.Context, key string) (*Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return &Memory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: read %s: %w", key, err)
	}
	var mem Memory
	if err := json.Unmarshal(data, &mem); err != nil {
		// a corrupt record restarts the conversation rather than wedging it
		return &Memory{}, nil
	}
	return &mem, nil
}

func (s *FileStore) Save(_ context.Context, key string, mem *Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("memory: write %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Reset(ctx context.Context, key string) error {
	return s.Save(ctx, key, &Memory{})
}
