package service

import (
	"context"
	"encoding/json"
	"fmt"
	"site-inventory/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TaskAuditRecord is the asynq task type carrying one models.AuditEvent.
const TaskAuditRecord = "audit:record"

// AuditSink receives pipeline audit events. Record never fails the caller;
// delivery problems are logged by the sink.
type AuditSink interface {
	Record(ctx context.Context, event models.AuditEvent)
}

// NewAuditEvent stamps an id and time on an event raised by actor.
func NewAuditEvent(actor models.Actor, action, resourceType, resourceID string, metadata map[string]interface{}) models.AuditEvent {
	return models.AuditEvent{
		ID:           uuid.NewString(),
		ActorID:      actor.UserID,
		ActorName:    actor.Username,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		OccurredAt:   time.Now().UTC(),
	}
}

// AuditLogFromEvent flattens an event into its audit_logs row.
func AuditLogFromEvent(event models.AuditEvent) (*models.AuditLog, error) {
	metadata := []byte("{}")
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal audit metadata: %w", err)
		}
	}
	return &models.AuditLog{
		ID:           event.ID,
		ActorID:      event.ActorID,
		ActorName:    event.ActorName,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		Metadata:     string(metadata),
		OccurredAt:   event.OccurredAt,
	}, nil
}

type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueAuditSink hands events to the worker through asynq.
type QueueAuditSink struct {
	client TaskEnqueuer
	logger *logrus.Logger
}

func NewQueueAuditSink(client TaskEnqueuer, logger *logrus.Logger) *QueueAuditSink {
	return &QueueAuditSink{client: client, logger: logger}
}

func (s *QueueAuditSink) Record(ctx context.Context, event models.AuditEvent) {
	fields := logrus.Fields{"action": event.Action, "resource_id": event.ResourceID}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to encode audit event")
		return
	}

	task := asynq.NewTask(TaskAuditRecord, payload)
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue("low"), asynq.MaxRetry(5))
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to enqueue audit event")
		return
	}
	s.logger.WithFields(fields).WithField("task_id", info.ID).Debug("Audit event enqueued")
}

type AuditLogWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// RepositoryAuditSink writes events straight to audit_logs.
type RepositoryAuditSink struct {
	repo   AuditLogWriter
	logger *logrus.Logger
}

func NewRepositoryAuditSink(repo AuditLogWriter, logger *logrus.Logger) *RepositoryAuditSink {
	return &RepositoryAuditSink{repo: repo, logger: logger}
}

func (s *RepositoryAuditSink) Record(ctx context.Context, event models.AuditEvent) {
	fields := logrus.Fields{"action": event.Action, "resource_id": event.ResourceID}

	log, err := AuditLogFromEvent(event)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to encode audit event")
		return
	}
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to store audit event")
	}
}

type NoopAuditSink struct{}

func (NoopAuditSink) Record(context.Context, models.AuditEvent) {}
