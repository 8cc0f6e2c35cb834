package repository

import (
	"context"

	"github.com/spec-kit/service-desk/internal/domain"
)

// RequestLogRepository stores audit entries. Entries are insert-only.
type RequestLogRepository interface {
	Create(ctx context.Context, entry *domain.RequestLog) error
	ListByRequest(ctx context.Context, requestID int64) ([]domain.RequestLog, error)
}

type requestLogRepository struct {
	db querier
}

func (r *requestLogRepository) Create(ctx context.Context, entry *domain.RequestLog) error {
	const query = `
        INSERT INTO request_logs (request_id, user_id, action, old_value, new_value, client_ip, user_agent, comment, source, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		entry.RequestID,
		entry.UserID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.ClientIP,
		entry.UserAgent,
		entry.Comment,
		entry.Source,
		entry.Timestamp,
	).Scan(&entry.ID)
	return classify(err)
}

func (r *requestLogRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.RequestLog, error) {
	const query = `
        SELECT id, request_id, user_id, action, old_value, new_value, client_ip, user_agent, comment, source, timestamp
        FROM request_logs WHERE request_id=$1 ORDER BY timestamp ASC, id ASC`
	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []domain.RequestLog
	for rows.Next() {
		var entry domain.RequestLog
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.UserID,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ClientIP,
			&entry.UserAgent,
			&entry.Comment,
			&entry.Source,
			&entry.Timestamp,
		); err != nil {
			return nil, classify(err)
		}
		result = append(result, entry)
	}
	return result, classify(rows.Err())
}
