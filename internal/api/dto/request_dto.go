package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/service-desk/internal/domain"
)

const (
	titleMinLen       = 3
	titleMaxLen       = 255
	descriptionMaxLen = 2000
	commentMaxLen     = 500
)

// CreateRequestRequest payload for POST /requests.
type CreateRequestRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssigneeID  *int64  `json:"assignee_id"`
}

// Normalize trims text fields. A blank description becomes nil.
func (r *CreateRequestRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		if trimmed == "" {
			r.Description = nil
		} else {
			r.Description = &trimmed
		}
	}
}

// Validate checks the normalized payload.
func (r CreateRequestRequest) Validate() error {
	errs := FieldErrors{}
	if n := runeLen(r.Title); n < titleMinLen || n > titleMaxLen {
		errs.add("title", fmt.Sprintf("must be between %d and %d characters", titleMinLen, titleMaxLen))
	}
	if r.Description != nil && runeLen(*r.Description) > descriptionMaxLen {
		errs.add("description", fmt.Sprintf("must be at most %d characters", descriptionMaxLen))
	}
	if r.AssigneeID != nil && *r.AssigneeID < 1 {
		errs.add("assignee_id", "must be a positive id")
	}
	return errs.Err()
}

// UpdateRequestRequest payload for PATCH /requests/:id/status. Every field
// is optional.
type UpdateRequestRequest struct {
	Status     *string `json:"status"`
	AssigneeID *int64  `json:"assignee_id"`
	Comment    *string `json:"comment"`
}

// Validate checks the payload and converts it into a domain change.
func (r UpdateRequestRequest) Validate() (domain.RequestChange, error) {
	errs := FieldErrors{}
	var change domain.RequestChange

	if r.Status != nil {
		status := domain.RequestStatus(strings.TrimSpace(*r.Status))
		if !status.Valid() {
			errs.add("status", "must be one of NEW, IN_PROGRESS, DONE, CANCELED")
		} else {
			change.NewStatus = &status
		}
	}
	if r.AssigneeID != nil {
		if *r.AssigneeID < 1 {
			errs.add("assignee_id", "must be a positive id")
		} else {
			id := *r.AssigneeID
			change.NewAssigneeID = &id
		}
	}
	if r.Comment != nil {
		comment := strings.TrimSpace(*r.Comment)
		if runeLen(comment) > commentMaxLen {
			errs.add("comment", fmt.Sprintf("must be at most %d characters", commentMaxLen))
		} else if comment != "" {
			change.Comment = &comment
		}
	}
	return change, errs.Err()
}

// RequestResponse is the public view of a service request.
type RequestResponse struct {
	ID               int64                `json:"id"`
	PublicID         uuid.UUID            `json:"public_id"`
	Title            string               `json:"title"`
	Description      *string              `json:"description"`
	Status           domain.RequestStatus `json:"status"`
	CreatedByUserID  int64                `json:"created_by_user_id"`
	AssignedToUserID *int64               `json:"assigned_to_user_id"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// NewRequestResponse maps the domain request.
func NewRequestResponse(req *domain.ServiceRequest) RequestResponse {
	return RequestResponse{
		ID:               req.ID,
		PublicID:         req.PublicID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           req.Status,
		CreatedByUserID:  req.CreatedByUserID,
		AssignedToUserID: req.AssignedToUserID,
		CreatedAt:        req.CreatedAt,
		UpdatedAt:        req.UpdatedAt,
	}
}

// NewRequestList maps a page of requests.
func NewRequestList(items []domain.ServiceRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(items))
	for i := range items {
		out = append(out, NewRequestResponse(&items[i]))
	}
	return out
}

// RequestLogResponse is one audit entry.
type RequestLogResponse struct {
	ID        int64                `json:"id"`
	RequestID int64                `json:"request_id"`
	UserID    int64                `json:"user_id"`
	Action    domain.RequestAction `json:"action"`
	OldValue  *string              `json:"old_value"`
	NewValue  *string              `json:"new_value"`
	ClientIP  *string              `json:"client_ip"`
	UserAgent *string              `json:"user_agent"`
	Comment   *string              `json:"comment"`
	Source    string               `json:"source"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewRequestLogList maps an audit trail.
func NewRequestLogList(entries []domain.RequestLog) []RequestLogResponse {
	out := make([]RequestLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, RequestLogResponse{
			ID:        e.ID,
			RequestID: e.RequestID,
			UserID:    e.UserID,
			Action:    e.Action,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			ClientIP:  e.ClientIP,
			UserAgent: e.UserAgent,
			Comment:   e.Comment,
			Source:    e.Source,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
