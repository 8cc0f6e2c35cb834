package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/observability"
)

// ActivityRecorder turns committed domain events into structured log lines
// and prometheus counters.
type ActivityRecorder struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityRecorder creates the recorder.
func NewActivityRecorder(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityRecorder {
	return &ActivityRecorder{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityRecorder) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventRequestCreated, a.handleRequestCreated)
	a.dispatcher.Subscribe(events.EventRequestStatusChanged, a.handleStatusChanged)
	a.dispatcher.Subscribe(events.EventRequestAssigneeChanged, a.handleAssigneeChanged)
	a.dispatcher.Subscribe(events.EventUserCreated, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserRoleChanged, a.handleUserEvent)
}

func (a *ActivityRecorder) handleRequestCreated(_ context.Context, event events.Event) error {
	a.metrics.RecordMutation(string(domain.ActionCreated))
	a.logger.Debug("RequestCreated", eventFields(event)...)
	return nil
}

func (a *ActivityRecorder) handleStatusChanged(_ context.Context, event events.Event) error {
	a.metrics.RecordMutation(string(domain.ActionStatusChanged))
	if payload, ok := event.Payload.(events.RequestStatusChangedPayload); ok {
		a.metrics.RecordTransition(string(payload.OldStatus), string(payload.NewStatus))
	}
	a.logger.Debug("RequestStatusChanged", eventFields(event)...)
	return nil
}

func (a *ActivityRecorder) handleAssigneeChanged(_ context.Context, event events.Event) error {
	a.metrics.RecordMutation(string(domain.ActionAssigneeChanged))
	a.logger.Debug("RequestAssigneeChanged", eventFields(event)...)
	return nil
}

func (a *ActivityRecorder) handleUserEvent(_ context.Context, event events.Event) error {
	a.logger.Debug(string(event.Type), eventFields(event)...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("subject_id", event.SubjectID),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload),
	}
}
