package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

var (
	ErrNotFound    = errors.New("repository: not found")
	ErrConflict    = errors.New("repository: unique constraint violated")
	ErrUnavailable = errors.New("repository: store unavailable")
)

// Store groups the repositories that share one transaction scope.
type Store interface {
	Users() UserRepository
	Requests() ServiceRequestRepository
	RequestLogs() RequestLogRepository
	// WithinTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore returns a Store backed by the pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, db: pool}
}

func (s *postgresStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *postgresStore) Requests() ServiceRequestRepository {
	return &serviceRequestRepository{db: s.db}
}

func (s *postgresStore) RequestLogs() RequestLogRepository {
	return &requestLogRepository{db: s.db}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(s)
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&postgresStore{db: tx})
	})
	return classify(err)
}

func (s *postgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return classify(s.pool.Ping(ctx))
}

// classify maps driver errors onto the repository sentinels. Errors that are
// already classified, or that carry a domain meaning, pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errors.Join(ErrConflict, err)
		case "23503":
			// referenced user or request vanished
			return errors.Join(ErrNotFound, err)
		case "57P01", "57P03", "53300":
			return errors.Join(ErrUnavailable, err)
		}
		return err
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// MapError turns a repository error into the API error the caller sees.
// ErrNotFound becomes notFoundCode when one is given; domain errors returned
// from inside a transaction pass through untouched.
func MapError(err error, notFoundCode string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, ErrNotFound) && notFoundCode != "":
		return apperrors.NewNotFound(notFoundCode, nil)
	case errors.Is(err, ErrUnavailable):
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternalError(err)
}
