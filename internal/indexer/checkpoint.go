package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nablaScope/internal/storage/postgres"
)

// StateStore persists the last fully processed block.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, lastProcessed uint64) error
}

// Checkpoint is the on-disk progress record of one portal deployment.
type Checkpoint struct {
	Portal             string `json:"portal"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// CheckpointStore keeps progress in a JSON file. A checkpoint written for a
// different portal is refused, since resuming from it would skip that portal's
// registrations.
type CheckpointStore struct {
	path    string
	portal  string
	enabled bool
}

func NewCheckpointStore(path, portal string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, portal: strings.ToLower(portal), enabled: enabled}
}

func (c *CheckpointStore) Load(ctx context.Context) (uint64, bool, error) {
	if c == nil || !c.enabled {
		return 0, false, nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint %s: %w", c.path, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	if cp.Portal != "" && c.portal != "" && !strings.EqualFold(cp.Portal, c.portal) {
		return 0, false, fmt.Errorf("checkpoint %s belongs to portal %s, not %s", c.path, cp.Portal, c.portal)
	}
	return cp.LastProcessedBlock, true, nil
}

// Save replaces the checkpoint atomically through a temporary file.
func (c *CheckpointStore) Save(ctx context.Context, lastProcessed uint64) error {
	if c == nil || !c.enabled {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(Checkpoint{
		Portal:             c.portal,
		LastProcessedBlock: lastProcessed,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// DBStateStore keeps progress in the indexer_state row called Name.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, lastProcessed uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, lastProcessed)
}
