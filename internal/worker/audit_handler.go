package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"site-inventory/internal/models"
	"site-inventory/internal/service"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// AuditTaskHandler persists audit events queued by the web process.
type AuditTaskHandler struct {
	writer service.AuditLogWriter
	logger *logrus.Logger
}

func NewAuditTaskHandler(writer service.AuditLogWriter, logger *logrus.Logger) *AuditTaskHandler {
	return &AuditTaskHandler{writer: writer, logger: logger}
}

// Handle stores one event. A payload that cannot be decoded is dropped
// without retry; storage errors are returned so asynq retries the task.
func (h *AuditTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var event models.AuditEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return fmt.Errorf("failed to unmarshal audit event: %v: %w", err, asynq.SkipRetry)
	}

	entry, err := service.AuditLogFromEvent(event)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := h.writer.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to store audit event %s: %w", event.ID, err)
	}

	h.logger.WithFields(logrus.Fields{
		"event_id":    event.ID,
		"action":      event.Action,
		"resource_id": event.ResourceID,
	}).Debug("Audit event stored")
	return nil
}
