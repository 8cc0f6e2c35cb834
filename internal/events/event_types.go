package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/service-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated         EventType = "request_created"
	EventRequestStatusChanged   EventType = "request_status_changed"
	EventRequestAssigneeChanged EventType = "request_assignee_changed"
	EventUserCreated            EventType = "user_created"
	EventUserRoleChanged        EventType = "user_role_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID int64     `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a fresh event id.
func NewEvent(eventType EventType, subjectID int64, actor domain.Identity, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     Actor{UserID: actor.UserID, Role: actor.Role},
		Timestamp: at,
		Payload:   payload,
	}
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	PublicID         uuid.UUID `json:"public_id"`
	Title            string    `json:"title"`
	AssignedToUserID *int64    `json:"assigned_to_user_id,omitempty"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Comment   *string              `json:"comment,omitempty"`
}

// RequestAssigneeChangedPayload payload.
type RequestAssigneeChangedPayload struct {
	OldAssigneeID *int64 `json:"old_assignee_id,omitempty"`
	NewAssigneeID *int64 `json:"new_assignee_id,omitempty"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
