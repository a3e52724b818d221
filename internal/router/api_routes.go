package router

import (
	"site-inventory/internal/config"
	"site-inventory/internal/handler"
	"site-inventory/internal/middleware"
	"site-inventory/internal/repository"
	"site-inventory/internal/service"
	"site-inventory/internal/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const progressTTL = 24 * time.Hour

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redis *redis.Client,
	cfg *config.Config,
) func() error {
	logger := utils.GetLogger()

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	batchRepo := repository.NewImportBatchRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Progress lives in Redis when it is reachable
	var progress service.ProgressTracker = service.NoopProgressTracker{}
	if redis != nil {
		progress = service.NewRedisProgressTracker(redis, progressTTL)
	}

	closeFn := func() error { return nil }
	var audit service.AuditSink
	switch cfg.AuditMode {
	case "queue":
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
		audit = service.NewQueueAuditSink(asynqClient, logger)
		closeFn = asynqClient.Close
	case "direct":
		audit = service.NewRepositoryAuditSink(auditRepo, logger)
	default:
		audit = service.NoopAuditSink{}
	}

	importService := service.NewImportService(
		projectRepo,
		batchRepo,
		siteRepo,
		service.NewExcelService(),
		audit,
		progress,
		logger,
	)
	importHandler := handler.NewSiteImportHandler(importService, cfg, logger)

	protected := router.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	protected.Get("/site-imports/template", importHandler.Template)

	imports := protected.Group("/projects/:projectId/site-imports", middleware.RequirePermission(middleware.PermissionSiteImport))
	imports.Post("", importHandler.Stage)
	imports.Get("", importHandler.List)
	imports.Get("/:batchId", importHandler.Get)
	imports.Post("/:batchId/commit", importHandler.Commit)
	imports.Get("/:batchId/progress", importHandler.Progress)
	imports.Get("/:batchId/error-report", importHandler.ErrorReport)

	return closeFn
}
