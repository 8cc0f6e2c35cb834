// Package workflow holds the fixed status graph of a service request.
package workflow

import (
	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const (
	CodeStatusIsTerminal           = "status_is_terminal"
	CodeStatusIsAlreadySet         = "status_is_already_set"
	CodeInvalidStatusTransition    = "invalid_status_transition"
	CodeInProgressRequiresAssignee = "in_progress_requires_assignee"
)

// InitialStatus is assigned to every new request.
const InitialStatus = domain.StatusNew

// transitions is the complete adjacency table. Terminal states map to no edges.
var transitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusNew:        {domain.StatusInProgress, domain.StatusCanceled},
	domain.StatusInProgress: {domain.StatusDone},
	domain.StatusDone:       {},
	domain.StatusCanceled:   {},
}

// Next returns the statuses reachable from current in one step.
func Next(current domain.RequestStatus) []domain.RequestStatus {
	return append([]domain.RequestStatus(nil), transitions[current]...)
}

// CanTransition reports whether from -> to is an edge of the graph.
func CanTransition(from, to domain.RequestStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks a single status move.
func ValidateTransition(current, requested domain.RequestStatus) error {
	if current.IsTerminal() {
		return apperrors.NewBadRequest(CodeStatusIsTerminal, map[string]any{"status": current})
	}
	if requested == current {
		return apperrors.NewBadRequest(CodeStatusIsAlreadySet, map[string]any{"status": current})
	}
	if !CanTransition(current, requested) {
		return apperrors.NewBadRequest(CodeInvalidStatusTransition, map[string]any{
			"from": current,
			"to":   requested,
		})
	}
	return nil
}

// EffectiveAssignee is the assignee that holds once change is applied.
func EffectiveAssignee(req *domain.ServiceRequest, change domain.RequestChange) *int64 {
	if change.NewAssigneeID != nil {
		return change.NewAssigneeID
	}
	return req.AssignedToUserID
}

// ValidateChange validates the status part of change against req. Assignee
// only changes pass untouched, terminal requests included.
func ValidateChange(req *domain.ServiceRequest, change domain.RequestChange) error {
	if change.NewStatus == nil {
		return nil
	}
	if err := ValidateTransition(req.Status, *change.NewStatus); err != nil {
		return err
	}
	if *change.NewStatus == domain.StatusInProgress && EffectiveAssignee(req, change) == nil {
		return apperrors.NewBadRequest(CodeInProgressRequiresAssignee, nil)
	}
	return nil
}
