package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/person-admin/internal/events"
	"github.com/spec-kit/person-admin/internal/observability"
)

// AuditService records list view events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventViewMounted, a.handleViewMounted)
	a.dispatcher.Subscribe(events.EventFetchFailed, a.handleFetchFailed)
	a.dispatcher.Subscribe(events.EventExportRequested, a.handleExportRequested)
}

func (a *AuditService) handleViewMounted(_ context.Context, event events.Event) error {
	a.logger.Info("ViewMounted", eventFields(event)...)
	return nil
}

func (a *AuditService) handleFetchFailed(_ context.Context, event events.Event) error {
	a.logger.Warn("FetchFailed", eventFields(event)...)
	return nil
}

func (a *AuditService) handleExportRequested(_ context.Context, event events.Event) error {
	a.logger.Info("ExportRequested", eventFields(event)...)
	if payload, ok := event.Payload.(events.ExportRequestedPayload); ok {
		a.metrics.RecordExport(len(payload.PersonIDs))
	}
	return nil
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("view_id", event.ViewID),
		zap.String("operator", event.Operator),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
}
