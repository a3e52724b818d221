package worker

import (
	"site-inventory/internal/repository"
	"site-inventory/internal/service"
	"site-inventory/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB) {
	auditHandler := NewAuditTaskHandler(repository.NewAuditRepository(db), utils.GetLogger())
	mux.HandleFunc(service.TaskAuditRecord, auditHandler.Handle)
}
