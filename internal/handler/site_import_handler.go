package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"site-inventory/internal/config"
	"site-inventory/internal/middleware"
	"site-inventory/internal/models"
	"site-inventory/internal/service"
	"site-inventory/internal/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SiteImporter is the import pipeline as seen by HTTP.
type SiteImporter interface {
	StageUpload(ctx context.Context, actor models.Actor, req service.StageRequest, opts models.ImportOptions) (*service.StageResult, error)
	CommitBatch(ctx context.Context, actor models.Actor, projectID, batchID string, opts models.ImportOptions) (*service.CommitResult, error)
	ListBatches(ctx context.Context, projectID string, page, limit int) ([]models.ImportBatchSummary, int, error)
	GetBatch(ctx context.Context, projectID, batchID string, opts models.ImportOptions) (*service.BatchDetail, error)
	GetProgress(ctx context.Context, projectID, batchID string) (*service.CommitProgress, error)
	ErrorReport(ctx context.Context, projectID, batchID string) ([]byte, string, error)
	Template() ([]byte, error)
}

type SiteImportHandler struct {
	importer SiteImporter
	cfg      *config.Config
	logger   *logrus.Logger
}

func NewSiteImportHandler(importer SiteImporter, cfg *config.Config, logger *logrus.Logger) *SiteImportHandler {
	return &SiteImportHandler{
		importer: importer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Stage handles POST /projects/:projectId/site-imports (multipart "file", optional "import_name").
func (h *SiteImportHandler) Stage(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}
	if file.Size > int64(h.cfg.UploadMaxSize) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File size exceeds maximum limit", nil)
	}

	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", err)
	}

	req := service.StageRequest{
		ProjectID: c.Params("projectId"),
		Filename:  file.Filename,
		Data:      data,
	}
	if name := strings.TrimSpace(c.FormValue("import_name")); name != "" {
		req.ImportName = &name
	}

	result, err := h.importer.StageUpload(c.UserContext(), actor, req, h.cfg.ImportOptions())
	if err != nil {
		return h.respondError(c, err, "Failed to stage import")
	}

	return utils.CreatedResponse(c, "Import staged", result)
}

func (h *SiteImportHandler) Commit(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFromContext(c)

	result, err := h.importer.CommitBatch(c.UserContext(), actor, c.Params("projectId"), c.Params("batchId"), h.cfg.ImportOptions())
	if err != nil {
		return h.respondError(c, err, "Failed to commit import")
	}

	return utils.SuccessResponse(c, fmt.Sprintf("Import %s", result.Status), result)
}

func (h *SiteImportHandler) List(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)

	batches, total, err := h.importer.ListBatches(c.UserContext(), c.Params("projectId"), params.Page, params.Limit)
	if err != nil {
		return h.respondError(c, err, "Failed to retrieve imports")
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, total)
	return utils.PaginatedResponseBuilder(c, "Imports retrieved successfully", batches, pagination)
}

func (h *SiteImportHandler) Get(c *fiber.Ctx) error {
	detail, err := h.importer.GetBatch(c.UserContext(), c.Params("projectId"), c.Params("batchId"), h.cfg.ImportOptions())
	if err != nil {
		return h.respondError(c, err, "Failed to retrieve import")
	}
	return utils.SuccessResponse(c, "Import retrieved successfully", detail)
}

func (h *SiteImportHandler) Progress(c *fiber.Ctx) error {
	progress, err := h.importer.GetProgress(c.UserContext(), c.Params("projectId"), c.Params("batchId"))
	if err != nil {
		return h.respondError(c, err, "Failed to retrieve progress")
	}
	return utils.SuccessResponse(c, "Progress retrieved successfully", progress)
}

func (h *SiteImportHandler) ErrorReport(c *fiber.Ctx) error {
	data, filename, err := h.importer.ErrorReport(c.UserContext(), c.Params("projectId"), c.Params("batchId"))
	if err != nil {
		return h.respondError(c, err, "Failed to generate error report")
	}

	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

func (h *SiteImportHandler) Template(c *fiber.Ctx) error {
	data, err := h.importer.Template()
	if err != nil {
		return h.respondError(c, err, "Failed to generate template")
	}

	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename=site_import_template.xlsx")
	return c.Send(data)
}

func (h *SiteImportHandler) respondError(c *fiber.Ctx, err error, fallback string) error {
	var mismatch *service.HeaderMismatchError
	var conflict *service.BatchConflictError

	switch {
	case errors.As(err, &mismatch):
		return utils.ErrorDetailResponse(c, fiber.StatusUnprocessableEntity, "Header mismatch", fiber.Map{
			"expected": mismatch.Expected,
			"received": mismatch.Received,
		})
	case errors.As(err, &conflict):
		message := "Import already committed"
		if conflict.InProgress {
			message = "Import commit in progress"
		}
		return utils.ErrorDetailResponse(c, fiber.StatusConflict, message, fiber.Map{
			"batch_id":    conflict.BatchID,
			"status":      conflict.Status,
			"in_progress": conflict.InProgress,
		})
	case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, service.ErrBatchNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Not found", err)
	case errors.Is(err, service.ErrUnsupportedFileType), errors.Is(err, service.ErrEmptyFile), errors.Is(err, service.ErrUnreadableFile):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file", err)
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.Path(),
		"method": c.Method(),
	}).Error(fallback)
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, fallback, nil)
}
