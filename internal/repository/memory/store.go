// Package memory is an in-process repository.Store. Transactions are
// serialized by a single mutex and roll back by discarding a snapshot.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
)

type state struct {
	users         map[int64]domain.User
	requests      map[int64]domain.ServiceRequest
	logs          []domain.RequestLog
	nextUserID    int64
	nextRequestID int64
	nextLogID     int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]domain.User),
		requests: make(map[int64]domain.ServiceRequest),
	}
}

func (s *state) clone() *state {
	out := &state{
		users:         make(map[int64]domain.User, len(s.users)),
		requests:      make(map[int64]domain.ServiceRequest, len(s.requests)),
		logs:          append([]domain.RequestLog(nil), s.logs...),
		nextUserID:    s.nextUserID,
		nextRequestID: s.nextRequestID,
		nextLogID:     s.nextLogID,
	}
	for id, u := range s.users {
		out.users[id] = u
	}
	for id, r := range s.requests {
		out.requests[id] = r
	}
	return out
}

type runner func(fn func(st *state) error) error

// Store is the in-memory implementation of repository.Store.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) run(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{run: s.run}
}

func (s *Store) Requests() repository.ServiceRequestRepository {
	return &requestRepository{run: s.run}
}

func (s *Store) RequestLogs() repository.RequestLogRepository {
	return &requestLogRepository{run: s.run}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &txStore{data: snapshot}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type txStore struct {
	data *state
}

func (t *txStore) run(fn func(st *state) error) error {
	return fn(t.data)
}

func (t *txStore) Users() repository.UserRepository {
	return &userRepository{run: t.run}
}

func (t *txStore) Requests() repository.ServiceRequestRepository {
	return &requestRepository{run: t.run}
}

func (t *txStore) RequestLogs() repository.RequestLogRepository {
	return &requestLogRepository{run: t.run}
}

func (t *txStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func (t *txStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

type userRepository struct {
	run runner
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	return r.run(func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return repository.ErrConflict
			}
			if user.APIKeyPrefix != "" && existing.APIKeyPrefix == user.APIKeyPrefix {
				return repository.ErrConflict
			}
		}
		st.nextUserID++
		user.ID = st.nextUserID
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	return r.run(func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return repository.ErrNotFound
		}
		for id, existing := range st.users {
			if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
				return repository.ErrConflict
			}
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *userRepository) GetByAPIKeyPrefix(_ context.Context, prefix string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.APIKeyPrefix == prefix })
}

func (r *userRepository) find(match func(domain.User) bool) (*domain.User, error) {
	var found *domain.User
	err := r.run(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				u := u
				found = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *userRepository) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var result []domain.User
	err := r.run(func(st *state) error {
		all := make([]domain.User, 0, len(st.users))
		for _, u := range st.users {
			all = append(all, u)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		result = page(all, limit, offset)
		return nil
	})
	return result, err
}

func (r *userRepository) ExistsWithRole(_ context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.run(func(st *state) error {
		for _, u := range st.users {
			if u.Role == role {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

type requestRepository struct {
	run runner
}

func (r *requestRepository) Create(_ context.Context, req *domain.ServiceRequest) error {
	return r.run(func(st *state) error {
		for _, existing := range st.requests {
			if existing.PublicID == req.PublicID {
				return repository.ErrConflict
			}
		}
		if _, ok := st.users[req.CreatedByUserID]; !ok {
			return repository.ErrNotFound
		}
		if req.AssignedToUserID != nil {
			if _, ok := st.users[*req.AssignedToUserID]; !ok {
				return repository.ErrNotFound
			}
		}
		st.nextRequestID++
		req.ID = st.nextRequestID
		st.requests[req.ID] = cloneRequest(*req)
		return nil
	})
}

func (r *requestRepository) Update(_ context.Context, req *domain.ServiceRequest) error {
	return r.run(func(st *state) error {
		existing, ok := st.requests[req.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Status = req.Status
		existing.AssignedToUserID = cloneID(req.AssignedToUserID)
		existing.UpdatedAt = req.UpdatedAt
		st.requests[req.ID] = existing
		return nil
	})
}

func (r *requestRepository) GetByID(_ context.Context, id int64) (*domain.ServiceRequest, error) {
	return r.find(func(req domain.ServiceRequest) bool { return req.ID == id })
}

func (r *requestRepository) GetByPublicID(_ context.Context, publicID uuid.UUID) (*domain.ServiceRequest, error) {
	return r.find(func(req domain.ServiceRequest) bool { return req.PublicID == publicID })
}

func (r *requestRepository) find(match func(domain.ServiceRequest) bool) (*domain.ServiceRequest, error) {
	var found *domain.ServiceRequest
	err := r.run(func(st *state) error {
		for _, req := range st.requests {
			if match(req) {
				clone := cloneRequest(req)
				found = &clone
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *requestRepository) List(_ context.Context, filter repository.ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	filter = filter.Normalize()
	var result []domain.ServiceRequest
	err := r.run(func(st *state) error {
		matched := make([]domain.ServiceRequest, 0, len(st.requests))
		for _, req := range st.requests {
			if matchesFilter(req, filter) {
				matched = append(matched, cloneRequest(req))
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})
		result = page(matched, filter.Limit, filter.Offset)
		return nil
	})
	return result, err
}

func matchesFilter(req domain.ServiceRequest, f repository.ServiceRequestFilter) bool {
	if f.Status != nil && req.Status != *f.Status {
		return false
	}
	if f.CreatedByID != nil && req.CreatedByUserID != *f.CreatedByID {
		return false
	}
	if f.AssignedToID != nil && !req.IsAssignedTo(*f.AssignedToID) {
		return false
	}
	if f.OnlyQueue && (req.Status != domain.StatusNew || req.IsAssigned()) {
		return false
	}
	if f.DateFrom != nil && req.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && req.CreatedAt.After(*f.DateTo) {
		return false
	}
	return true
}

type requestLogRepository struct {
	run runner
}

func (r *requestLogRepository) Create(_ context.Context, entry *domain.RequestLog) error {
	return r.run(func(st *state) error {
		if _, ok := st.requests[entry.RequestID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := st.users[entry.UserID]; !ok {
			return repository.ErrNotFound
		}
		st.nextLogID++
		entry.ID = st.nextLogID
		st.logs = append(st.logs, *entry)
		return nil
	})
}

func (r *requestLogRepository) ListByRequest(_ context.Context, requestID int64) ([]domain.RequestLog, error) {
	var result []domain.RequestLog
	err := r.run(func(st *state) error {
		for _, entry := range st.logs {
			if entry.RequestID == requestID {
				result = append(result, entry)
			}
		}
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Timestamp.Before(result[j].Timestamp)
		})
		return nil
	})
	return result, err
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func cloneRequest(req domain.ServiceRequest) domain.ServiceRequest {
	req.AssignedToUserID = cloneID(req.AssignedToUserID)
	if req.Description != nil {
		desc := *req.Description
		req.Description = &desc
	}
	return req
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
