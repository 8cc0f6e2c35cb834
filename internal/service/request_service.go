package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/policy"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/workflow"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// RequestService owns the service request aggregate. Every mutation and its
// audit entries commit in one store transaction.
//
// Update reads the current row and writes it back inside the same
// transaction but takes no row lock and checks no version, so two
// concurrent updates of one request are last-write-wins.
type RequestService struct {
	store      repository.Store
	audit      *AuditLog
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Store      repository.Store
	Audit      *AuditLog
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// CreateRequestInput describes a new request.
type CreateRequestInput struct {
	Title       string
	Description *string
	AssigneeID  *int64
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditLog(deps.Store, now)
	}
	return &RequestService{
		store:      deps.Store,
		audit:      audit,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// Create opens a request in status NEW on behalf of actor.
func (s *RequestService) Create(ctx context.Context, actor domain.Identity, input CreateRequestInput, meta domain.ChangeContext) (*domain.ServiceRequest, error) {
	if err := policy.CanCreate(actor, input.AssigneeID).Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &domain.ServiceRequest{
		PublicID:         uuid.New(),
		Title:            input.Title,
		Description:      input.Description,
		Status:           workflow.InitialStatus,
		CreatedByUserID:  actor.UserID,
		AssignedToUserID: input.AssigneeID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := requireAssignee(ctx, tx, input.AssigneeID); err != nil {
			return err
		}
		if err := tx.Requests().Create(ctx, req); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx.RequestLogs(), newLogEntry(req.ID, actor, domain.ActionCreated, meta, now))
	})
	if err != nil {
		return nil, s.fail("create request", err)
	}

	s.logger.Info("request created",
		zap.Int64("request_id", req.ID),
		zap.String("public_id", req.PublicID.String()),
		zap.Int64("actor_id", actor.UserID))
	s.publish(ctx, events.NewEvent(events.EventRequestCreated, req.ID, actor, now, events.RequestCreatedPayload{
		PublicID:         req.PublicID,
		Title:            req.Title,
		AssignedToUserID: req.AssignedToUserID,
	}))
	return req, nil
}

// Update applies change to the request. A change that alters nothing
// writes nothing and returns the request as is.
func (s *RequestService) Update(ctx context.Context, actor domain.Identity, requestID int64, change domain.RequestChange, meta domain.ChangeContext) (*domain.ServiceRequest, error) {
	var (
		updated *domain.ServiceRequest
		emitted []events.Event
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		emitted = nil

		req, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return repository.MapError(err, apperrors.CodeRequestNotFound)
		}
		oldStatus := req.Status
		oldAssignee := req.AssignedToUserID

		if err := policy.CanUpdate(actor, req, change).Err(); err != nil {
			return err
		}
		if err := workflow.ValidateChange(req, change); err != nil {
			return err
		}
		if err := requireAssignee(ctx, tx, change.NewAssigneeID); err != nil {
			return err
		}

		statusChanged := change.NewStatus != nil && *change.NewStatus != oldStatus
		assigneeChanged := change.NewAssigneeID != nil && !sameID(oldAssignee, change.NewAssigneeID)
		if !statusChanged && !assigneeChanged {
			updated = req
			return nil
		}

		now := s.now().UTC()
		if statusChanged {
			req.Status = *change.NewStatus
		}
		if assigneeChanged {
			id := *change.NewAssigneeID
			req.AssignedToUserID = &id
		}
		req.UpdatedAt = now
		if err := tx.Requests().Update(ctx, req); err != nil {
			return err
		}

		if statusChanged {
			entry := newLogEntry(req.ID, actor, domain.ActionStatusChanged, meta, now)
			entry.OldValue = strPtr(string(oldStatus))
			entry.NewValue = strPtr(string(req.Status))
			entry.Comment = change.Comment
			if err := s.audit.Append(ctx, tx.RequestLogs(), entry); err != nil {
				return err
			}
			emitted = append(emitted, events.NewEvent(events.EventRequestStatusChanged, req.ID, actor, now,
				events.RequestStatusChangedPayload{OldStatus: oldStatus, NewStatus: req.Status, Comment: change.Comment}))
		}
		if assigneeChanged {
			entry := newLogEntry(req.ID, actor, domain.ActionAssigneeChanged, meta, now)
			entry.OldValue = idString(oldAssignee)
			entry.NewValue = idString(req.AssignedToUserID)
			if err := s.audit.Append(ctx, tx.RequestLogs(), entry); err != nil {
				return err
			}
			emitted = append(emitted, events.NewEvent(events.EventRequestAssigneeChanged, req.ID, actor, now,
				events.RequestAssigneeChangedPayload{OldAssigneeID: oldAssignee, NewAssigneeID: req.AssignedToUserID}))
		}

		updated = req
		return nil
	})
	if err != nil {
		return nil, s.fail("update request", err)
	}

	if len(emitted) > 0 {
		s.logger.Info("request updated",
			zap.Int64("request_id", updated.ID),
			zap.Int64("actor_id", actor.UserID),
			zap.String("status", string(updated.Status)))
	}
	for _, event := range emitted {
		s.publish(ctx, event)
	}
	return updated, nil
}

// Get returns a request the actor may view.
func (s *RequestService) Get(ctx context.Context, actor domain.Identity, requestID int64) (*domain.ServiceRequest, error) {
	req, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, repository.MapError(err, apperrors.CodeRequestNotFound)
	}
	if err := policy.CanView(actor, req).Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// GetByPublicID is Get addressed by the external UUID.
func (s *RequestService) GetByPublicID(ctx context.Context, actor domain.Identity, publicID uuid.UUID) (*domain.ServiceRequest, error) {
	req, err := s.store.Requests().GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, repository.MapError(err, apperrors.CodeRequestNotFound)
	}
	if err := policy.CanView(actor, req).Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns every request matching filter. Admins and agents only.
func (s *RequestService) List(ctx context.Context, actor domain.Identity, filter repository.ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	if err := policy.CanList(actor).Err(); err != nil {
		return nil, err
	}
	filter.OnlyQueue = false
	return s.list(ctx, filter)
}

// ListMine returns requests created by the actor.
func (s *RequestService) ListMine(ctx context.Context, actor domain.Identity, limit, offset int) ([]domain.ServiceRequest, error) {
	creator := actor.UserID
	return s.list(ctx, repository.ServiceRequestFilter{CreatedByID: &creator, Limit: limit, Offset: offset})
}

// ListAssignedToMe returns requests assigned to the actor.
func (s *RequestService) ListAssignedToMe(ctx context.Context, actor domain.Identity, limit, offset int) ([]domain.ServiceRequest, error) {
	assignee := actor.UserID
	return s.list(ctx, repository.ServiceRequestFilter{AssignedToID: &assignee, Limit: limit, Offset: offset})
}

// ListQueue returns NEW requests nobody has picked up yet.
func (s *RequestService) ListQueue(ctx context.Context, actor domain.Identity, limit, offset int) ([]domain.ServiceRequest, error) {
	if err := policy.CanList(actor).Err(); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ServiceRequestFilter{OnlyQueue: true, Limit: limit, Offset: offset})
}

// History returns the audit trail of a request the actor may view.
func (s *RequestService) History(ctx context.Context, actor domain.Identity, requestID int64) ([]domain.RequestLog, error) {
	req, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, repository.MapError(err, apperrors.CodeRequestNotFound)
	}
	if err := policy.CanViewHistory(actor, req).Err(); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, req.ID)
}

func (s *RequestService) list(ctx context.Context, filter repository.ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	items, err := s.store.Requests().List(ctx, filter.Normalize())
	if err != nil {
		return nil, repository.MapError(err, "")
	}
	return items, nil
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// fail maps err and logs infrastructure failures. Domain rejections are
// returned untouched.
func (s *RequestService) fail(op string, err error) error {
	mapped := repository.MapError(err, "")
	if de := apperrors.ToDomainError(mapped); de.HTTPStatus >= 500 {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return mapped
}

func requireAssignee(ctx context.Context, tx repository.Store, assigneeID *int64) error {
	if assigneeID == nil {
		return nil
	}
	_, err := tx.Users().GetByID(ctx, *assigneeID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewBadRequest(apperrors.CodeAssigneeNotFound, map[string]any{"assignee_id": *assigneeID})
	}
	return err
}

func newLogEntry(requestID int64, actor domain.Identity, action domain.RequestAction, meta domain.ChangeContext, at time.Time) *domain.RequestLog {
	return &domain.RequestLog{
		RequestID: requestID,
		UserID:    actor.UserID,
		Action:    action,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Source:    meta.Source,
		Timestamp: at,
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func idString(id *int64) *string {
	if id == nil {
		return nil
	}
	return strPtr(strconv.FormatInt(*id, 10))
}

func strPtr(s string) *string {
	return &s
}
