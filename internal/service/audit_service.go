package service

import (
	"context"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
)

// AuditLog appends and reads request_logs. Entries are never updated or
// deleted.
type AuditLog struct {
	store repository.Store
	now   func() time.Time
}

// NewAuditLog builds the audit log over store.
func NewAuditLog(store repository.Store, now func() time.Time) *AuditLog {
	if now == nil {
		now = time.Now
	}
	return &AuditLog{store: store, now: now}
}

// Append inserts entry through logs, which must belong to the transaction
// that performs the audited write.
func (a *AuditLog) Append(ctx context.Context, logs repository.RequestLogRepository, entry *domain.RequestLog) error {
	if entry.Source == "" {
		entry.Source = domain.SourceAPI
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now().UTC()
	}
	return logs.Create(ctx, entry)
}

// List returns the trail of a request, oldest first.
func (a *AuditLog) List(ctx context.Context, requestID int64) ([]domain.RequestLog, error) {
	entries, err := a.store.RequestLogs().ListByRequest(ctx, requestID)
	if err != nil {
		return nil, repository.MapError(err, "")
	}
	return entries, nil
}
