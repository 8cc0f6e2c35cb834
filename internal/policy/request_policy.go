// Package policy decides who may see and change which service request.
// Every function is pure: it looks only at the caller's identity, the
// current request and the proposed change.
package policy

import (
	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// Reason names why a decision was denied.
type Reason string

const (
	ReasonForbiddenToView               Reason = "forbidden_to_view_request"
	ReasonForbiddenToViewHistory        Reason = "forbidden_to_view_history"
	ReasonForbiddenForEmployee          Reason = "forbidden_for_employee"
	ReasonAgentTerminal                 Reason = "agent_cannot_modify_terminal"
	ReasonAgentAssignOthers             Reason = "agent_cannot_assign_others"
	ReasonAgentForeignRequest           Reason = "agent_cannot_modify_foreign_request"
	ReasonEmployeeForeignRequest        Reason = "employee_cannot_modify_foreign_request"
	ReasonEmployeeChangeAssignee        Reason = "employee_cannot_change_assignee"
	ReasonEmployeeSetStatus             Reason = "employee_cannot_set_status"
	ReasonEmployeeCancelAfterAssignment Reason = "employee_cannot_cancel_after_assignment"
	ReasonEmployeeAssignOnCreate        Reason = "employee_cannot_assign_on_create"
	ReasonUnknownRole                   Reason = "unknown_role"
)

// Decision is the outcome of a policy check. A denied decision always
// carries exactly one reason.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into a forbidden domain error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.NewForbidden(string(d.Reason))
}

// CanView allows admins and agents everything; employees see requests
// they created or are assigned to.
func CanView(actor domain.Identity, req *domain.ServiceRequest) Decision {
	return viewDecision(actor, req, ReasonForbiddenToView)
}

// CanViewHistory applies the CanView rule to the audit trail.
func CanViewHistory(actor domain.Identity, req *domain.ServiceRequest) Decision {
	return viewDecision(actor, req, ReasonForbiddenToViewHistory)
}

func viewDecision(actor domain.Identity, req *domain.ServiceRequest, denied Reason) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleAgent:
		return allow()
	case domain.RoleEmployee:
		if req.CreatedByUserID == actor.UserID || req.IsAssignedTo(actor.UserID) {
			return allow()
		}
		return deny(denied)
	default:
		return deny(ReasonUnknownRole)
	}
}

// CanList gates the unrestricted listing and the unassigned queue.
func CanList(actor domain.Identity) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleAgent:
		return allow()
	case domain.RoleEmployee:
		return deny(ReasonForbiddenForEmployee)
	default:
		return deny(ReasonUnknownRole)
	}
}

// CanCreate checks the initial assignee of a new request.
func CanCreate(actor domain.Identity, assigneeID *int64) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleAgent:
		return allow()
	case domain.RoleEmployee:
		if assigneeID != nil {
			return deny(ReasonEmployeeAssignOnCreate)
		}
		return allow()
	default:
		return deny(ReasonUnknownRole)
	}
}

// CanUpdate evaluates the whole change against the unmodified request.
// Admins are always allowed here; transition validity is checked by the
// workflow package.
func CanUpdate(actor domain.Identity, req *domain.ServiceRequest, change domain.RequestChange) Decision {
	switch actor.Role {
	case domain.RoleAdmin:
		return allow()
	case domain.RoleAgent:
		return agentCanUpdate(actor, req, change)
	case domain.RoleEmployee:
		return employeeCanUpdate(actor, req, change)
	default:
		return deny(ReasonUnknownRole)
	}
}

func agentCanUpdate(actor domain.Identity, req *domain.ServiceRequest, change domain.RequestChange) Decision {
	if req.Status.IsTerminal() {
		return deny(ReasonAgentTerminal)
	}
	if change.NewAssigneeID != nil && *change.NewAssigneeID != actor.UserID {
		return deny(ReasonAgentAssignOthers)
	}
	claiming := !req.IsAssigned() && change.NewAssigneeID != nil && *change.NewAssigneeID == actor.UserID
	if req.IsAssignedTo(actor.UserID) || claiming {
		return allow()
	}
	return deny(ReasonAgentForeignRequest)
}

func employeeCanUpdate(actor domain.Identity, req *domain.ServiceRequest, change domain.RequestChange) Decision {
	if req.CreatedByUserID != actor.UserID {
		return deny(ReasonEmployeeForeignRequest)
	}
	if change.NewAssigneeID != nil {
		return deny(ReasonEmployeeChangeAssignee)
	}
	if change.NewStatus != nil {
		if *change.NewStatus != domain.StatusCanceled {
			return deny(ReasonEmployeeSetStatus)
		}
		if req.IsAssigned() || req.Status != domain.StatusNew {
			return deny(ReasonEmployeeCancelAfterAssignment)
		}
	}
	return allow()
}
