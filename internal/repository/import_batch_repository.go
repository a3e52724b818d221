package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"site-inventory/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const batchColumns = `id, project_id, uploaded_by, uploaded_at, filename, import_name, source_checksum,
	total_rows, imported_rows, error_rows, skipped_rows, dropped_valid_rows, dropped_error_rows,
	valid_rows, error_details, status, commit_started_at, committed_by, committed_at,
	created_at, updated_at`

type ImportBatchRepository struct {
	db *sqlx.DB
}

func NewImportBatchRepository(db *sqlx.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: db}
}

func (r *ImportBatchRepository) Create(ctx context.Context, batch *models.ImportBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.UploadedAt.IsZero() {
		batch.UploadedAt = time.Now().UTC()
	}
	if batch.Status == "" {
		batch.Status = models.BatchStatusPending
	}

	query := `INSERT INTO import_batches (id, project_id, uploaded_by, uploaded_at, filename, import_name,
	          source_checksum, total_rows, imported_rows, error_rows, skipped_rows, dropped_valid_rows,
	          dropped_error_rows, valid_rows, error_details, status)
	          VALUES (:id, :project_id, :uploaded_by, :uploaded_at, :filename, :import_name,
	          :source_checksum, :total_rows, :imported_rows, :error_rows, :skipped_rows, :dropped_valid_rows,
	          :dropped_error_rows, :valid_rows, :error_details, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}
	return nil
}

// GetByID loads a batch scoped to its project. Missing batches yield ErrNotFound.
func (r *ImportBatchRepository) GetByID(ctx context.Context, projectID, batchID string) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	query := "SELECT " + batchColumns + " FROM import_batches WHERE id = ? AND project_id = ? LIMIT 1"
	err := r.db.GetContext(ctx, &batch, query, batchID, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import batch %s: %w", batchID, err)
	}
	return &batch, nil
}

func (r *ImportBatchRepository) List(ctx context.Context, projectID string, limit, offset int) ([]models.ImportBatchSummary, int, error) {
	var batches []models.ImportBatchSummary
	var total int

	countQuery := "SELECT COUNT(*) FROM import_batches WHERE project_id = ?"
	if err := r.db.GetContext(ctx, &total, countQuery, projectID); err != nil {
		return nil, 0, fmt.Errorf("count import batches: %w", err)
	}

	// Only the summary columns; valid_rows can be several megabytes per batch.
	query := `SELECT id, project_id, uploaded_by, uploaded_at, filename, import_name, total_rows,
	          imported_rows, error_rows, skipped_rows, status, committed_at
	          FROM import_batches WHERE project_id = ?
	          ORDER BY uploaded_at DESC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &batches, query, projectID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list import batches: %w", err)
	}

	return batches, total, nil
}

// ClaimForCommit marks a pending batch as being committed by actorID. It
// reports false when the batch is no longer pending or another claim is
// younger than lease.
func (r *ImportBatchRepository) ClaimForCommit(ctx context.Context, projectID, batchID string, actorID int, lease time.Duration) (bool, error) {
	query := `UPDATE import_batches
	          SET commit_started_at = NOW(), committed_by = ?
	          WHERE id = ? AND project_id = ? AND status = ?
	            AND (commit_started_at IS NULL OR commit_started_at < NOW() - INTERVAL ? SECOND)`
	result, err := r.db.ExecContext(ctx, query, actorID, batchID, projectID, models.BatchStatusPending, int(lease.Seconds()))
	if err != nil {
		return false, fmt.Errorf("claim import batch %s: %w", batchID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim import batch %s: %w", batchID, err)
	}
	return affected == 1, nil
}

// ReleaseClaim drops an unfinished claim so the batch can be retried at once.
func (r *ImportBatchRepository) ReleaseClaim(ctx context.Context, batchID string) error {
	query := `UPDATE import_batches SET commit_started_at = NULL, committed_by = NULL
	          WHERE id = ? AND status = ?`
	if _, err := r.db.ExecContext(ctx, query, batchID, models.BatchStatusPending); err != nil {
		return fmt.Errorf("release import batch %s: %w", batchID, err)
	}
	return nil
}

// FinishCommit writes the final counts and status. It only applies while the
// batch is still pending and reports false otherwise.
func (r *ImportBatchRepository) FinishCommit(ctx context.Context, batch *models.ImportBatch) (bool, error) {
	query := `UPDATE import_batches
	          SET imported_rows = ?, error_rows = ?, skipped_rows = ?, status = ?,
	              committed_by = ?, committed_at = ?
	          WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, query,
		batch.ImportedRows, batch.ErrorRows, batch.SkippedRows, batch.Status,
		batch.CommittedBy, batch.CommittedAt,
		batch.ID, models.BatchStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("finish import batch %s: %w", batch.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finish import batch %s: %w", batch.ID, err)
	}
	return affected == 1, nil
}
