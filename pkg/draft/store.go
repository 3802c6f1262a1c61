package draft

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
)

const storeComponent = "draft-store"

// ErrNoDraft is returned by Load when nothing has been saved yet
var ErrNoDraft = stderrors.New("no saved draft")

// Store is the save/load boundary for the draft document
type Store interface {
	Save(ctx context.Context, d *BotDraft) error
	Load(ctx context.Context) (*BotDraft, error)
	Clear(ctx context.Context) error
}

// encode stamps the draft and renders the stored document
func encode(d *BotDraft, now time.Time) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot save nil draft")
	}
	d.UpdatedAt = now
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*BotDraft, error) {
	var d BotDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &d, nil
}

// FileStore keeps the draft in a JSON file named after the storage key
type FileStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewFileStore creates a file store inside dir
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewStorageError(storeComponent, "init", err)
	}
	name := strings.ReplaceAll(StorageKey, ":", "_") + ".json"
	return &FileStore{filePath: filepath.Join(dir, name)}, nil
}

// Path returns the draft file location
func (f *FileStore) Path() string {
	return f.filePath
}

// Save writes the draft to a temporary file and renames it into place
func (f *FileStore) Save(ctx context.Context, d *BotDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := encode(d, time.Now())
	if err != nil {
		return errors.NewStorageError(storeComponent, "save", err)
	}

	tempFile := f.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return errors.NewStorageError(storeComponent, "save", fmt.Errorf("failed to write temporary draft file: %w", err))
	}
	if err := os.Rename(tempFile, f.filePath); err != nil {
		os.Remove(tempFile)
		return errors.NewStorageError(storeComponent, "save", fmt.Errorf("failed to commit draft file: %w", err))
	}
	return nil
}

// Load reads the draft; ErrNoDraft when the file does not exist
func (f *FileStore) Load(ctx context.Context) (*BotDraft, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.filePath)
	if os.IsNotExist(err) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, errors.NewStorageError(storeComponent, "load", fmt.Errorf("failed to read draft file: %w", err))
	}

	d, err := decode(data)
	if err != nil {
		return nil, errors.NewDecodeError(storeComponent, "load", err)
	}
	return d, nil
}

// Clear removes the draft file
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.filePath); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(storeComponent, "clear", err)
	}
	return nil
}
