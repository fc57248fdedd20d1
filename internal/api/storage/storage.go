package storage

import (
	"context"
	"fmt"

	"github.com/cuongbtq/taskflow-be/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

// Storage covers the API service's read against the relational store: the
// project pre-check performed before an enqueue.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// ProjectExists reports whether the owning project exists.
func (s *Storage) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, projectID); err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}

	return exists, nil
}
