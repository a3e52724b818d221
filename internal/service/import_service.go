package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"site-inventory/internal/models"
	"site-inventory/internal/repository"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

const (
	AuditActionStage  = "site_import.stage"
	AuditActionCommit = "site_import.commit"
	auditResourceType = "import_batch"
)

type ProjectStore interface {
	Exists(ctx context.Context, projectID string) (bool, error)
}

// SiteStore is the permanent record store. Both methods only see non-deleted sites.
type SiteStore interface {
	FindActiveByKey(ctx context.Context, projectID, siteID string) (*models.Site, error)
	Create(ctx context.Context, site *models.Site) error
}

type BatchStore interface {
	Create(ctx context.Context, batch *models.ImportBatch) error
	GetByID(ctx context.Context, projectID, batchID string) (*models.ImportBatch, error)
	List(ctx context.Context, projectID string, limit, offset int) ([]models.ImportBatchSummary, int, error)
	ClaimForCommit(ctx context.Context, projectID, batchID string, actorID int, lease time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, batchID string) error
	FinishCommit(ctx context.Context, batch *models.ImportBatch) (bool, error)
}

type StageRequest struct {
	ProjectID  string
	Filename   string
	ImportName *string
	Data       []byte
}

type StageResult struct {
	BatchID          string                 `json:"batch_id"`
	TotalRows        int                    `json:"total_rows"`
	ValidRowCount    int                    `json:"valid_row_count"`
	ErrorRowCount    int                    `json:"error_row_count"`
	Errors           []models.RowError      `json:"errors"`
	Preview          []models.SiteImportRow `json:"preview"`
	DroppedValidRows int                    `json:"dropped_valid_rows"`
	DroppedErrorRows int                    `json:"dropped_error_rows"`
	Truncated        bool                   `json:"truncated"`
	SourceChecksum   string                 `json:"source_checksum"`
}

// CommitResult reports the outcome of a commit. ErrorRows is TotalRows minus
// ImportedRows, so it includes SkippedRows.
type CommitResult struct {
	BatchID      string             `json:"batch_id"`
	ImportedRows int                `json:"imported_rows"`
	ErrorRows    int                `json:"error_rows"`
	SkippedRows  int                `json:"skipped_rows"`
	Status       models.BatchStatus `json:"status"`
}

type BatchDetail struct {
	*models.ImportBatch
	ValidRowCount int                    `json:"valid_row_count"`
	Errors        []models.RowError      `json:"errors"`
	Preview       []models.SiteImportRow `json:"preview"`
}

type ImportService struct {
	projects    ProjectStore
	batches     BatchStore
	sites       SiteStore
	excel       *ExcelService
	transformer CoordinateTransformer
	audit       AuditSink
	progress    ProgressTracker
	logger      *logrus.Logger
}

func NewImportService(
	projects ProjectStore,
	batches BatchStore,
	sites SiteStore,
	excel *ExcelService,
	audit AuditSink,
	progress ProgressTracker,
	logger *logrus.Logger,
) *ImportService {
	if audit == nil {
		audit = NoopAuditSink{}
	}
	if progress == nil {
		progress = NoopProgressTracker{}
	}
	return &ImportService{
		projects:    projects,
		batches:     batches,
		sites:       sites,
		excel:       excel,
		transformer: IdentityTransformer{},
		audit:       audit,
		progress:    progress,
		logger:      logger,
	}
}

// UseTransformer replaces the identity datum transform used on commit.
func (s *ImportService) UseTransformer(t CoordinateTransformer) {
	s.transformer = t
}

// StageUpload parses and validates an uploaded file and persists the result
// as a pending batch. A header mismatch returns *HeaderMismatchError and
// creates nothing.
func (s *ImportService) StageUpload(ctx context.Context, actor models.Actor, req StageRequest, opts models.ImportOptions) (*StageResult, error) {
	if err := s.requireProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	rows, err := s.excel.ReadRows(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	if err := ValidateHeader(rows[0]); err != nil {
		return nil, err
	}

	normalized := NormalizeRows(rows[1:])
	valid := NewBoundedBuffer[models.SiteImportRow](opts.MaxValidRows)
	rowErrors := NewBoundedBuffer[models.RowError](opts.MaxErrorRows)

	for _, row := range normalized {
		if messages := ValidateRow(row); len(messages) > 0 {
			rowErrors.Add(models.RowError{Row: row.Line, Messages: messages})
			continue
		}
		valid.Add(ToImportRow(row))
	}

	batch := &models.ImportBatch{
		ProjectID:      req.ProjectID,
		UploadedBy:     actor.UserID,
		Filename:       req.Filename,
		ImportName:     req.ImportName,
		SourceChecksum: checksum(req.Data),
		TotalRows:      len(normalized),
		ErrorRows:      rowErrors.Total(),
		DroppedValid:   valid.Dropped(),
		DroppedErrors:  rowErrors.Dropped(),
		ValidRows:      valid.Items(),
		ErrorDetails:   rowErrors.Items(),
		Status:         models.BatchStatusPending,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to stage import batch: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id":      batch.ID,
		"project_id":    batch.ProjectID,
		"total_rows":    batch.TotalRows,
		"valid_rows":    valid.Total(),
		"error_rows":    batch.ErrorRows,
		"dropped_valid": batch.DroppedValid,
	}).Info("Import batch staged")

	if opts.AuditEnabled {
		s.audit.Record(ctx, NewAuditEvent(actor, AuditActionStage, auditResourceType, batch.ID, map[string]interface{}{
			"project_id": batch.ProjectID,
			"filename":   batch.Filename,
			"total_rows": batch.TotalRows,
			"error_rows": batch.ErrorRows,
		}))
	}

	return &StageResult{
		BatchID:          batch.ID,
		TotalRows:        batch.TotalRows,
		ValidRowCount:    valid.Total(),
		ErrorRowCount:    batch.ErrorRows,
		Errors:           firstN(batch.ErrorDetails, opts.ErrorPreviewRows),
		Preview:          firstN(batch.ValidRows, opts.PreviewRows),
		DroppedValidRows: batch.DroppedValid,
		DroppedErrorRows: batch.DroppedErrors,
		Truncated:        batch.DroppedValid > 0 || batch.DroppedErrors > 0,
		SourceChecksum:   batch.SourceChecksum,
	}, nil
}

// CommitBatch applies a pending batch's staged rows to the site store.
//
// The batch is claimed with a conditional update first, so only one caller
// runs the row loop. Sites that already exist under (project, site id) are
// skipped. A storage failure aborts the loop and releases the claim, leaving
// the batch pending; rows created before the failure are skipped on retry.
func (s *ImportService) CommitBatch(ctx context.Context, actor models.Actor, projectID, batchID string, opts models.ImportOptions) (*CommitResult, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	batch, err := s.getBatch(ctx, projectID, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchStatusPending {
		return nil, &BatchConflictError{BatchID: batch.ID, Status: batch.Status}
	}

	claimed, err := s.batches.ClaimForCommit(ctx, projectID, batchID, actor.UserID, opts.CommitLease)
	if err != nil {
		return nil, fmt.Errorf("failed to claim import batch: %w", err)
	}
	if !claimed {
		return nil, s.conflictFor(ctx, projectID, batchID)
	}

	log := s.logger.WithFields(logrus.Fields{"batch_id": batch.ID, "project_id": projectID, "actor_id": actor.UserID})
	log.WithField("rows", len(batch.ValidRows)).Info("Committing import batch")

	progress := CommitProgress{BatchID: batch.ID, State: ProgressRunning, Total: len(batch.ValidRows)}
	s.reportProgress(ctx, progress)

	for _, row := range batch.ValidRows {
		created, err := s.commitRow(ctx, actor, batch, row)
		if err != nil {
			progress.State = ProgressFailed
			s.abortCommit(ctx, batch.ID, progress)
			log.WithError(err).WithField("row", row.Row).Error("Commit aborted on storage error")
			return nil, fmt.Errorf("failed to commit row %d: %w", row.Row, err)
		}

		if created {
			progress.Imported++
		} else {
			progress.Skipped++
		}
		progress.Processed++
		if opts.ProgressEvery > 0 && progress.Processed%opts.ProgressEvery == 0 {
			s.reportProgress(ctx, progress)
		}
	}

	now := time.Now().UTC()
	committedBy := actor.UserID
	batch.ImportedRows = progress.Imported
	batch.SkippedRows = progress.Skipped
	// Skipped duplicates and rows rejected at stage time are both counted here.
	batch.ErrorRows = batch.TotalRows - batch.ImportedRows
	batch.Status = models.BatchStatusCommitted
	if batch.ErrorRows > 0 {
		batch.Status = models.BatchStatusPartial
	}
	batch.CommittedBy = &committedBy
	batch.CommittedAt = &now

	finished, err := s.batches.FinishCommit(ctx, batch)
	if err != nil {
		progress.State = ProgressFailed
		s.abortCommit(ctx, batch.ID, progress)
		return nil, fmt.Errorf("failed to finish import batch: %w", err)
	}
	if !finished {
		// The claim expired and another caller completed the batch first.
		return nil, s.conflictFor(ctx, projectID, batchID)
	}

	progress.State = ProgressDone
	s.reportProgress(ctx, progress)

	log.WithFields(logrus.Fields{
		"imported_rows": batch.ImportedRows,
		"skipped_rows":  batch.SkippedRows,
		"error_rows":    batch.ErrorRows,
		"status":        batch.Status,
	}).Info("Import batch committed")

	if opts.AuditEnabled {
		s.audit.Record(ctx, NewAuditEvent(actor, AuditActionCommit, auditResourceType, batch.ID, map[string]interface{}{
			"project_id":    projectID,
			"filename":      batch.Filename,
			"total_rows":    batch.TotalRows,
			"imported_rows": batch.ImportedRows,
			"skipped_rows":  batch.SkippedRows,
			"status":        string(batch.Status),
		}))
	}

	return &CommitResult{
		BatchID:      batch.ID,
		ImportedRows: batch.ImportedRows,
		ErrorRows:    batch.ErrorRows,
		SkippedRows:  batch.SkippedRows,
		Status:       batch.Status,
	}, nil
}

// commitRow reports false when the row is skipped as a duplicate.
func (s *ImportService) commitRow(ctx context.Context, actor models.Actor, batch *models.ImportBatch, row models.SiteImportRow) (bool, error) {
	existing, err := s.sites.FindActiveByKey(ctx, batch.ProjectID, row.SiteID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	site := s.buildSite(actor, batch, row)
	if err := s.sites.Create(ctx, site); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ImportService) buildSite(actor models.Actor, batch *models.ImportBatch, row models.SiteImportRow) *models.Site {
	zipFull := NormalizeZip(row.Zip)
	altLat, altLon := s.transformer.Transform(row.Latitude, row.Longitude)
	batchID := batch.ID

	return &models.Site{
		ProjectID:        batch.ProjectID,
		SiteID:           row.SiteID,
		Name:             row.Name,
		Area:             row.Area,
		District:         row.District,
		Provider:         row.Provider,
		ProviderResident: parseBoolValue(row.ProviderResident),
		Address:          row.Address,
		City:             row.City,
		County:           row.County,
		State:            row.State,
		Zip:              zip5(zipFull),
		ZipFull:          zipFull,
		CMAID:            row.CMAID,
		CMAName:          row.CMAName,
		StructureType:    row.StructureType,
		SiteType:         row.SiteType,
		GECode:           row.GECode,
		StructureHeight:  row.StructureHeight,
		Latitude:         row.Latitude,
		Longitude:        row.Longitude,
		AltLatitude:      altLat,
		AltLongitude:     altLon,
		AlternateID:      row.AlternateID,
		ImportBatchID:    &batchID,
		CreatedBy:        actor.UserID,
	}
}

// abortCommit releases the claim even if the request context is already done.
func (s *ImportService) abortCommit(ctx context.Context, batchID string, progress CommitProgress) {
	ctx = context.WithoutCancel(ctx)
	if err := s.batches.ReleaseClaim(ctx, batchID); err != nil {
		s.logger.WithError(err).WithField("batch_id", batchID).Error("Failed to release import batch claim")
	}
	s.reportProgress(ctx, progress)
}

func (s *ImportService) conflictFor(ctx context.Context, projectID, batchID string) error {
	current, err := s.getBatch(ctx, projectID, batchID)
	if err != nil {
		return err
	}
	if current.Status != models.BatchStatusPending {
		return &BatchConflictError{BatchID: batchID, Status: current.Status}
	}
	return &BatchConflictError{BatchID: batchID, Status: current.Status, InProgress: true}
}

func (s *ImportService) reportProgress(ctx context.Context, progress CommitProgress) {
	if err := s.progress.Report(ctx, progress); err != nil {
		s.logger.WithError(err).WithField("batch_id", progress.BatchID).Warn("Failed to report commit progress")
	}
}

// ListBatches returns one page of a project's batches, newest first.
func (s *ImportService) ListBatches(ctx context.Context, projectID string, page, limit int) ([]models.ImportBatchSummary, int, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, 0, err
	}
	batches, total, err := s.batches.List(ctx, projectID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list import batches: %w", err)
	}
	if batches == nil {
		batches = []models.ImportBatchSummary{}
	}
	return batches, total, nil
}

func (s *ImportService) GetBatch(ctx context.Context, projectID, batchID string, opts models.ImportOptions) (*BatchDetail, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	batch, err := s.getBatch(ctx, projectID, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{
		ImportBatch:   batch,
		ValidRowCount: len(batch.ValidRows) + batch.DroppedValid,
		Errors:        firstN(batch.ErrorDetails, opts.ErrorPreviewRows),
		Preview:       firstN(batch.ValidRows, opts.PreviewRows),
	}, nil
}

// GetProgress returns the tracked progress, or a finished view built from the
// batch itself once the tracker entry is gone.
func (s *ImportService) GetProgress(ctx context.Context, projectID, batchID string) (*CommitProgress, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	batch, err := s.getBatch(ctx, projectID, batchID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progress.Get(ctx, batchID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, ErrProgressNotFound) {
		s.logger.WithError(err).WithField("batch_id", batchID).Warn("Failed to read commit progress")
	}

	fallback := &CommitProgress{BatchID: batch.ID, State: "pending", Total: len(batch.ValidRows), UpdatedAt: batch.UpdatedAt}
	if batch.Status != models.BatchStatusPending {
		fallback.State = ProgressDone
		fallback.Processed = fallback.Total
		fallback.Imported = batch.ImportedRows
		fallback.Skipped = batch.SkippedRows
		fallback.Percent = 100
	}
	return fallback, nil
}

// ErrorReport renders a batch's staged row errors as a workbook.
func (s *ImportService) ErrorReport(ctx context.Context, projectID, batchID string) ([]byte, string, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, "", err
	}
	batch, err := s.getBatch(ctx, projectID, batchID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.excel.GenerateErrorReport(batch)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("import_errors_%s.xlsx", batch.ID), nil
}

func (s *ImportService) Template() ([]byte, error) {
	return s.excel.GenerateSiteTemplate()
}

func (s *ImportService) requireProject(ctx context.Context, projectID string) error {
	ok, err := s.projects.Exists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if !ok {
		return ErrProjectNotFound
	}
	return nil
}

func (s *ImportService) getBatch(ctx context.Context, projectID, batchID string) (*models.ImportBatch, error) {
	batch, err := s.batches.GetByID(ctx, projectID, batchID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import batch: %w", err)
	}
	return batch, nil
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func firstN[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		if items == nil {
			return []T{}
		}
		return items
	}
	return items[:n]
}
