package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ServiceRequestFilter captures listing parameters.
type ServiceRequestFilter struct {
	Status       *domain.RequestStatus
	CreatedByID  *int64
	AssignedToID *int64
	OnlyQueue    bool
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// Normalize clamps pagination into the supported window.
func (f ServiceRequestFilter) Normalize() ServiceRequestFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ServiceRequestRepository encapsulates request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	Update(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error)
}

type serviceRequestRepository struct {
	db querier
}

const requestColumns = `id, public_id::text, title, description, status, created_by_user_id,
               assigned_to_user_id, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (public_id, title, description, status, created_by_user_id, assigned_to_user_id, created_at, updated_at)
        VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		req.PublicID.String(),
		req.Title,
		req.Description,
		req.Status,
		req.CreatedByUserID,
		req.AssignedToUserID,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID)
	return classify(err)
}

// Update writes the mutable fields. There is no version check: concurrent
// writers to the same row are last-write-wins.
func (r *serviceRequestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET status=$1, assigned_to_user_id=$2, updated_at=$3
        WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query,
		req.Status,
		req.AssignedToUserID,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id=$1`, id)
}

func (r *serviceRequestRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.ServiceRequest, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE public_id=$1::uuid`, publicID.String())
}

func (r *serviceRequestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, classify(err)
	}
	return req, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	filter = filter.Normalize()
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_user_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_user_id=$%d", len(args)))
	}
	if filter.OnlyQueue {
		args = append(args, domain.StatusNew)
		clauses = append(clauses, fmt.Sprintf("status=$%d AND assigned_to_user_id IS NULL", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		requestColumns, strings.Join(clauses, " AND "), filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, classify(err)
		}
		result = append(result, *req)
	}
	return result, classify(rows.Err())
}

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var (
		req      domain.ServiceRequest
		publicID string
	)
	if err := row.Scan(
		&req.ID,
		&publicID,
		&req.Title,
		&req.Description,
		&req.Status,
		&req.CreatedByUserID,
		&req.AssignedToUserID,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(publicID)
	if err != nil {
		return nil, fmt.Errorf("parse public_id %q: %w", publicID, err)
	}
	req.PublicID = parsed
	return &req, nil
}
