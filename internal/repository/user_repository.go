package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByAPIKeyPrefix(ctx context.Context, prefix string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	ExistsWithRole(ctx context.Context, role domain.Role) (bool, error)
}

type userRepository struct {
	db querier
}

const userColumns = `id, full_name, email, role, is_active, api_key_prefix, api_key_hash, created_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (full_name, email, role, is_active, api_key_prefix, api_key_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	err := r.db.QueryRow(ctx, query,
		user.FullName,
		user.Email,
		user.Role,
		user.IsActive,
		user.APIKeyPrefix,
		user.APIKeyHash,
		user.CreatedAt,
	).Scan(&user.ID)
	return classify(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET full_name=$1, email=$2, role=$3, is_active=$4, api_key_prefix=$5, api_key_hash=$6
        WHERE id=$7`

	cmd, err := r.db.Exec(ctx, query,
		user.FullName,
		user.Email,
		user.Role,
		user.IsActive,
		user.APIKeyPrefix,
		user.APIKeyHash,
		user.ID,
	)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) GetByAPIKeyPrefix(ctx context.Context, prefix string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE api_key_prefix=$1`, prefix)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, classify(err)
		}
		result = append(result, *user)
	}
	return result, classify(rows.Err())
}

func (r *userRepository) ExistsWithRole(ctx context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role=$1)`, role).Scan(&exists)
	return exists, classify(err)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, classify(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.APIKeyPrefix,
		&user.APIKeyHash,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
