package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/service"
)

// StartActivityRecorder builds the activity recorder and subscribes it to
// every domain event published on dispatcher.
func StartActivityRecorder(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *service.ActivityRecorder {
	if dispatcher == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	recorder := service.NewActivityRecorder(dispatcher, logger.Named("activity"), metrics)
	recorder.RegisterHandlers()
	logger.Debug("activity recorder subscribed")
	return recorder
}
