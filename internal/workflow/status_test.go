package workflow

import (
	"net/http"
	"testing"

	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

func code(err error) string {
	return apperrors.CodeOf(err)
}

func TestTransitionMatrix(t *testing.T) {
	allowed := map[[2]domain.RequestStatus]bool{
		{domain.StatusNew, domain.StatusInProgress}:  true,
		{domain.StatusNew, domain.StatusCanceled}:    true,
		{domain.StatusInProgress, domain.StatusDone}: true,
	}
	for _, from := range domain.AllStatuses() {
		for _, to := range domain.AllStatuses() {
			want := allowed[[2]domain.RequestStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	for _, st := range domain.AllStatuses() {
		if got := len(Next(st)) == 0; got != st.IsTerminal() {
			t.Errorf("%s: no edges = %v, IsTerminal = %v", st, got, st.IsTerminal())
		}
	}
	if InitialStatus != domain.StatusNew {
		t.Errorf("InitialStatus = %s", InitialStatus)
	}
}

func TestNextReturnsCopy(t *testing.T) {
	next := Next(domain.StatusNew)
	next[0] = domain.StatusDone
	if CanTransition(domain.StatusNew, domain.StatusDone) {
		t.Fatal("mutating Next result changed the graph")
	}
}

func TestValidateTransitionOrder(t *testing.T) {
	tests := []struct {
		from, to domain.RequestStatus
		want     string
	}{
		{domain.StatusDone, domain.StatusDone, CodeStatusIsTerminal},
		{domain.StatusCanceled, domain.StatusNew, CodeStatusIsTerminal},
		{domain.StatusNew, domain.StatusNew, CodeStatusIsAlreadySet},
		{domain.StatusInProgress, domain.StatusInProgress, CodeStatusIsAlreadySet},
		{domain.StatusNew, domain.StatusDone, CodeInvalidStatusTransition},
		{domain.StatusInProgress, domain.StatusCanceled, CodeInvalidStatusTransition},
		{domain.StatusInProgress, domain.StatusNew, CodeInvalidStatusTransition},
		{domain.StatusNew, domain.StatusInProgress, ""},
		{domain.StatusInProgress, domain.StatusDone, ""},
	}
	for _, tt := range tests {
		err := ValidateTransition(tt.from, tt.to)
		if got := code(err); got != tt.want {
			t.Errorf("ValidateTransition(%s, %s) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
		if err != nil && apperrors.ToDomainError(err).HTTPStatus != http.StatusBadRequest {
			t.Errorf("ValidateTransition(%s, %s) status = %d", tt.from, tt.to, apperrors.ToDomainError(err).HTTPStatus)
		}
	}

	details := apperrors.ToDomainError(ValidateTransition(domain.StatusNew, domain.StatusDone)).Details
	if details["from"] != domain.StatusNew || details["to"] != domain.StatusDone {
		t.Errorf("details = %v", details)
	}
}

func TestValidateChange(t *testing.T) {
	agent := int64(2)
	inProgress := domain.StatusInProgress
	done := domain.StatusDone

	unassigned := &domain.ServiceRequest{Status: domain.StatusNew}
	if got := code(ValidateChange(unassigned, domain.RequestChange{NewStatus: &inProgress})); got != CodeInProgressRequiresAssignee {
		t.Errorf("in progress without assignee = %q", got)
	}
	if err := ValidateChange(unassigned, domain.RequestChange{NewStatus: &inProgress, NewAssigneeID: &agent}); err != nil {
		t.Errorf("in progress with new assignee: %v", err)
	}

	assigned := &domain.ServiceRequest{Status: domain.StatusNew, AssignedToUserID: &agent}
	if err := ValidateChange(assigned, domain.RequestChange{NewStatus: &inProgress}); err != nil {
		t.Errorf("in progress with existing assignee: %v", err)
	}

	finished := &domain.ServiceRequest{Status: domain.StatusDone, AssignedToUserID: &agent}
	if err := ValidateChange(finished, domain.RequestChange{NewAssigneeID: &agent}); err != nil {
		t.Errorf("assignee only change on terminal request: %v", err)
	}
	if got := code(ValidateChange(finished, domain.RequestChange{NewStatus: &done})); got != CodeStatusIsTerminal {
		t.Errorf("status on terminal = %q", got)
	}
}

func TestEffectiveAssignee(t *testing.T) {
	current, next := int64(1), int64(2)
	req := &domain.ServiceRequest{AssignedToUserID: &current}
	if got := EffectiveAssignee(req, domain.RequestChange{}); got == nil || *got != current {
		t.Errorf("EffectiveAssignee without change = %v", got)
	}
	if got := EffectiveAssignee(req, domain.RequestChange{NewAssigneeID: &next}); got == nil || *got != next {
		t.Errorf("EffectiveAssignee with change = %v", got)
	}
}
