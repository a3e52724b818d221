package repository

import (
	"context"
	"fmt"
	"site-inventory/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	query := `INSERT INTO audit_logs (id, actor_id, actor_name, action, resource_type, resource_id, metadata, occurred_at)
	          VALUES (:id, :actor_id, :actor_name, :action, :resource_type, :resource_id, :metadata, :occurred_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert audit log %s: %w", log.Action, err)
	}
	return nil
}
