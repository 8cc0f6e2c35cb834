package domain

import "time"

// RequestAction captures what a log entry records.
type RequestAction string

const (
	ActionCreated         RequestAction = "created"
	ActionStatusChanged   RequestAction = "status_changed"
	ActionAssigneeChanged RequestAction = "assignee_changed"
)

// SourceAPI tags entries written through the HTTP API.
const SourceAPI = "API"

// RequestLog is an immutable audit trail entry.
type RequestLog struct {
	ID        int64
	RequestID int64
	UserID    int64
	Action    RequestAction
	OldValue  *string
	NewValue  *string
	ClientIP  *string
	UserAgent *string
	Comment   *string
	Source    string
	Timestamp time.Time
}

// ChangeContext carries transport metadata recorded with each entry.
type ChangeContext struct {
	ClientIP  *string
	UserAgent *string
	Source    string
}
