package policy

import (
	"errors"
	"net/http"
	"testing"

	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const (
	adminID    int64 = 1
	agentID    int64 = 2
	otherAgent int64 = 3
	employeeID int64 = 4
	otherEmp   int64 = 5
)

func id(v int64) *int64 { return &v }

func status(s domain.RequestStatus) *domain.RequestStatus { return &s }

func actor(role domain.Role, userID int64) domain.Identity {
	return domain.Identity{UserID: userID, Role: role, IsActive: true}
}

func request(st domain.RequestStatus, creator int64, assignee *int64) *domain.ServiceRequest {
	return &domain.ServiceRequest{ID: 10, Status: st, CreatedByUserID: creator, AssignedToUserID: assignee}
}

func TestCanView(t *testing.T) {
	req := request(domain.StatusNew, employeeID, id(agentID))
	tests := []struct {
		name   string
		actor  domain.Identity
		want   bool
		reason Reason
	}{
		{"admin", actor(domain.RoleAdmin, adminID), true, ""},
		{"agent not assigned", actor(domain.RoleAgent, otherAgent), true, ""},
		{"creator", actor(domain.RoleEmployee, employeeID), true, ""},
		{"assigned employee", actor(domain.RoleEmployee, agentID), true, ""},
		{"stranger employee", actor(domain.RoleEmployee, otherEmp), false, ReasonForbiddenToView},
		{"unknown role", actor(domain.Role("auditor"), 9), false, ReasonUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanView(tt.actor, req)
			if got.Allowed != tt.want || got.Reason != tt.reason {
				t.Errorf("CanView = %+v, want allowed=%v reason=%q", got, tt.want, tt.reason)
			}
		})
	}
}

func TestCanViewHistoryUsesOwnReason(t *testing.T) {
	req := request(domain.StatusNew, employeeID, nil)
	got := CanViewHistory(actor(domain.RoleEmployee, otherEmp), req)
	if got.Allowed || got.Reason != ReasonForbiddenToViewHistory {
		t.Errorf("CanViewHistory = %+v, want %q", got, ReasonForbiddenToViewHistory)
	}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleAgent} {
		if !CanViewHistory(actor(role, 99), req).Allowed {
			t.Errorf("%s denied history", role)
		}
	}
}

func TestCanListAndCreate(t *testing.T) {
	for _, role := range domain.AllRoles() {
		list := CanList(actor(role, 1))
		if wantAllowed := role != domain.RoleEmployee; list.Allowed != wantAllowed {
			t.Errorf("CanList(%s) = %+v", role, list)
		}
		if !CanCreate(actor(role, 1), nil).Allowed {
			t.Errorf("CanCreate(%s, nil) denied", role)
		}
	}

	got := CanCreate(actor(domain.RoleEmployee, employeeID), id(agentID))
	if got.Allowed || got.Reason != ReasonEmployeeAssignOnCreate {
		t.Errorf("employee create with assignee = %+v", got)
	}
	if !CanCreate(actor(domain.RoleAgent, agentID), id(otherAgent)).Allowed {
		t.Error("agent create with assignee denied")
	}
	if CanList(actor(domain.Role(""), 1)).Reason != ReasonUnknownRole {
		t.Error("empty role not denied as unknown_role")
	}
}

func TestCanUpdateAgent(t *testing.T) {
	agent := actor(domain.RoleAgent, agentID)
	tests := []struct {
		name   string
		req    *domain.ServiceRequest
		change domain.RequestChange
		reason Reason
	}{
		{"own assigned request", request(domain.StatusInProgress, employeeID, id(agentID)),
			domain.RequestChange{NewStatus: status(domain.StatusDone)}, ""},
		{"claim from queue", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewStatus: status(domain.StatusInProgress), NewAssigneeID: id(agentID)}, ""},
		{"claim assignee only", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewAssigneeID: id(agentID)}, ""},
		{"terminal", request(domain.StatusDone, employeeID, id(agentID)),
			domain.RequestChange{NewAssigneeID: id(agentID)}, ReasonAgentTerminal},
		{"assign others", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewAssigneeID: id(otherAgent)}, ReasonAgentAssignOthers},
		{"foreign request", request(domain.StatusInProgress, employeeID, id(otherAgent)),
			domain.RequestChange{NewStatus: status(domain.StatusDone)}, ReasonAgentForeignRequest},
		{"status on unassigned without claim", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewStatus: status(domain.StatusCanceled)}, ReasonAgentForeignRequest},
		{"take over foreign request", request(domain.StatusInProgress, employeeID, id(otherAgent)),
			domain.RequestChange{NewAssigneeID: id(agentID)}, ReasonAgentForeignRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanUpdate(agent, tt.req, tt.change)
			if got.Allowed != (tt.reason == "") || got.Reason != tt.reason {
				t.Errorf("CanUpdate = %+v, want reason %q", got, tt.reason)
			}
		})
	}
}

func TestCanUpdateEmployee(t *testing.T) {
	emp := actor(domain.RoleEmployee, employeeID)
	tests := []struct {
		name   string
		req    *domain.ServiceRequest
		change domain.RequestChange
		reason Reason
	}{
		{"cancel own new", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewStatus: status(domain.StatusCanceled)}, ""},
		{"foreign", request(domain.StatusNew, otherEmp, nil),
			domain.RequestChange{NewStatus: status(domain.StatusCanceled)}, ReasonEmployeeForeignRequest},
		{"change assignee", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewAssigneeID: id(agentID)}, ReasonEmployeeChangeAssignee},
		{"set in progress", request(domain.StatusNew, employeeID, nil),
			domain.RequestChange{NewStatus: status(domain.StatusInProgress)}, ReasonEmployeeSetStatus},
		{"set done on assigned", request(domain.StatusInProgress, employeeID, id(agentID)),
			domain.RequestChange{NewStatus: status(domain.StatusDone)}, ReasonEmployeeSetStatus},
		{"cancel assigned", request(domain.StatusNew, employeeID, id(agentID)),
			domain.RequestChange{NewStatus: status(domain.StatusCanceled)}, ReasonEmployeeCancelAfterAssignment},
		{"cancel in progress", request(domain.StatusInProgress, employeeID, id(agentID)),
			domain.RequestChange{NewStatus: status(domain.StatusCanceled)}, ReasonEmployeeCancelAfterAssignment},
		{"empty change on own", request(domain.StatusNew, employeeID, nil), domain.RequestChange{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanUpdate(emp, tt.req, tt.change)
			if got.Allowed != (tt.reason == "") || got.Reason != tt.reason {
				t.Errorf("CanUpdate = %+v, want reason %q", got, tt.reason)
			}
		})
	}
}

func TestCanUpdateAdminAlwaysAllowed(t *testing.T) {
	admin := actor(domain.RoleAdmin, adminID)
	for _, st := range domain.AllStatuses() {
		req := request(st, employeeID, id(otherAgent))
		change := domain.RequestChange{NewStatus: status(domain.StatusDone), NewAssigneeID: id(agentID)}
		if got := CanUpdate(admin, req, change); !got.Allowed {
			t.Errorf("admin denied on %s: %+v", st, got)
		}
	}
}

func TestDecisionIsTotalOverRoles(t *testing.T) {
	req := request(domain.StatusNew, employeeID, nil)
	change := domain.RequestChange{NewStatus: status(domain.StatusCanceled)}
	for _, role := range append(domain.AllRoles(), domain.Role("ghost")) {
		for _, d := range []Decision{
			CanView(actor(role, 7), req),
			CanViewHistory(actor(role, 7), req),
			CanList(actor(role, 7)),
			CanCreate(actor(role, 7), id(1)),
			CanUpdate(actor(role, 7), req, change),
		} {
			if d.Allowed && d.Reason != "" {
				t.Errorf("%s: allowed decision carries reason %q", role, d.Reason)
			}
			if !d.Allowed && d.Reason == "" {
				t.Errorf("%s: denied decision without reason", role)
			}
		}
	}
}

func TestDecisionErr(t *testing.T) {
	if err := allow().Err(); err != nil {
		t.Fatalf("allowed Err = %v", err)
	}
	err := deny(ReasonAgentTerminal).Err()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("Err type = %T", err)
	}
	if de.Code != string(ReasonAgentTerminal) || de.HTTPStatus != http.StatusForbidden {
		t.Errorf("Err = %s/%d", de.Code, de.HTTPStatus)
	}
}
