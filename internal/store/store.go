// Package store persists snapshots of finished jobs.
package store

import (
	"context"
	"errors"

	"github.com/spigell/cv-ranker/internal/model"
)

var ErrNotFound = errors.New("job snapshot not found")

// Store saves and loads job snapshots by job id.
type Store interface {
	Save(ctx context.Context, snapshot *model.JobSnapshot) error
	Load(ctx context.Context, jobID string) (*model.JobSnapshot, error)
}
