package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"civic_trust/internal/models"
)

// FileGateway keeps the snapshot in a single JSON file.
type FileGateway struct {
	path string
}

func NewFileGateway(path string) *FileGateway {
	return &FileGateway{path: path}
}

func (g *FileGateway) Name() string { return "file" }

func (g *FileGateway) Close() error { return nil }

// Load returns an empty snapshot when the file does not exist yet.
func (g *FileGateway) Load(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("read %s: %w", g.path, err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode %s: %w", g.path, err)
	}
	return snap, nil
}

// Save writes to a temporary file in the same directory and renames it
// over the target, so readers never see a partial snapshot.
func (g *FileGateway) Save(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		return fmt.Errorf("replace %s: %w", g.path, err)
	}
	return nil
}
