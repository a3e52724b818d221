package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Exists(ctx context.Context, projectID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM projects WHERE id = ? AND is_deleted = 0", projectID)
	if err != nil {
		return false, fmt.Errorf("check project %s: %w", projectID, err)
	}
	return count > 0, nil
}
