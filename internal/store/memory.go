package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/spigell/cv-ranker/internal/model"
)

// Memory keeps snapshots in process. Stored values are deep copies.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Save(ctx context.Context, snapshot *model.JobSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil || snapshot.ID == "" {
		return errors.New("snapshot with an id is required")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snapshot.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[snapshot.ID] = data
	return nil
}

func (m *Memory) Load(ctx context.Context, jobID string) (*model.JobSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.items[jobID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var snapshot model.JobSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", jobID, err)
	}
	return &snapshot, nil
}
