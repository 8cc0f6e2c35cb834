package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// clock hands out strictly increasing instants.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store    *memory.Store
	requests *RequestService
	users    *UserService
	events   []events.Event

	admin, agent, agent2, employee, employee2 domain.Identity
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore()}
	clk := &clock{now: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}

	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	}
	for _, et := range []events.EventType{
		events.EventRequestCreated, events.EventRequestStatusChanged, events.EventRequestAssigneeChanged,
		events.EventUserCreated, events.EventUserRoleChanged,
	} {
		dispatcher.Subscribe(et, record)
	}

	f.requests = NewRequestService(RequestDependencies{
		Store:      f.store,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Now:        clk.Now,
	})
	f.users = NewUserService(UserDependencies{
		Store:        f.store,
		Keys:         auth.NewKeyGenerator(bcrypt.MinCost),
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
		BootstrapKey: "let-me-in",
		Now:          clk.Now,
	})

	f.admin = f.addUser(t, "admin@example.com", domain.RoleAdmin)
	f.agent = f.addUser(t, "agent@example.com", domain.RoleAgent)
	f.agent2 = f.addUser(t, "agent2@example.com", domain.RoleAgent)
	f.employee = f.addUser(t, "emp@example.com", domain.RoleEmployee)
	f.employee2 = f.addUser(t, "emp2@example.com", domain.RoleEmployee)
	return f
}

func (f *fixture) addUser(t *testing.T, email string, role domain.Role) domain.Identity {
	t.Helper()
	u := &domain.User{
		FullName:     email,
		Email:        email,
		Role:         role,
		IsActive:     true,
		APIKeyPrefix: email,
		CreatedAt:    time.Now(),
	}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return u.Identity()
}

func (f *fixture) create(t *testing.T, actor domain.Identity, assignee *int64) *domain.ServiceRequest {
	t.Helper()
	req, err := f.requests.Create(context.Background(), actor, CreateRequestInput{Title: "Printer broken", AssigneeID: assignee}, api())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return req
}

func (f *fixture) history(t *testing.T, requestID int64) []domain.RequestLog {
	t.Helper()
	entries, err := f.requests.History(context.Background(), f.admin, requestID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	return entries
}

func api() domain.ChangeContext {
	ip, ua := "10.0.0.7", "test-agent"
	return domain.ChangeContext{ClientIP: &ip, UserAgent: &ua, Source: domain.SourceAPI}
}

func ptr[T any](v T) *T { return &v }

func statusChange(s domain.RequestStatus) domain.RequestChange {
	return domain.RequestChange{NewStatus: &s}
}

func wantCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", code)
	}
	de := apperrors.ToDomainError(err)
	if de.Code != code {
		t.Fatalf("code = %q, want %q (err %v)", de.Code, code, err)
	}
	if status != 0 && de.HTTPStatus != status {
		t.Fatalf("status = %d, want %d", de.HTTPStatus, status)
	}
}

func strVal(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
