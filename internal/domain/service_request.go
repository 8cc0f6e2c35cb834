package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	StatusNew        RequestStatus = "NEW"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusDone       RequestStatus = "DONE"
	StatusCanceled   RequestStatus = "CANCELED"
)

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []RequestStatus {
	return []RequestStatus{StatusNew, StatusInProgress, StatusDone, StatusCanceled}
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// ServiceRequest is the aggregate employees open and agents work.
type ServiceRequest struct {
	ID               int64
	PublicID         uuid.UUID
	Title            string
	Description      *string
	Status           RequestStatus
	CreatedByUserID  int64
	AssignedToUserID *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsAssigned reports whether the request has an assignee.
func (r *ServiceRequest) IsAssigned() bool {
	return r.AssignedToUserID != nil
}

// IsAssignedTo reports whether userID is the current assignee.
func (r *ServiceRequest) IsAssignedTo(userID int64) bool {
	return r.AssignedToUserID != nil && *r.AssignedToUserID == userID
}

// RequestChange is a proposed update. Nil fields are left untouched.
type RequestChange struct {
	NewStatus     *RequestStatus
	NewAssigneeID *int64
	Comment       *string
}

// IsEmpty reports whether the change touches neither status nor assignee.
func (c RequestChange) IsEmpty() bool {
	return c.NewStatus == nil && c.NewAssigneeID == nil
}
