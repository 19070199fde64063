package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/pkg/database"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
)

const adminTable = "admins"

var adminColumns = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

// AdminRepository implements repository.AdminRepository using PostgreSQL.
type AdminRepository struct {
	pool database.DBTX
}

// NewAdminRepository creates a new PostgreSQL-backed admin repository.
func NewAdminRepository(pool database.DBTX) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// Create inserts a new admin. A duplicate username or email is reported as
// apperrors.ErrAlreadyExists.
func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) (err error) {
	query, args, err := psql.Insert(adminTable).
		Columns(adminColumns...).
		Values(a.ID, a.Username, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert admin: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "CreateAdmin", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("admin", "username or email", a.Username)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetByID retrieves an admin by its ID.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.getOne(ctx, "GetAdminByID", sq.Eq{"id": id}, id)
}

// FindByUsernameOrEmail retrieves the admin whose username or email equals
// identifier.
func (r *AdminRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Admin, error) {
	return r.getOne(ctx, "FindAdmin",
		sq.Or{sq.Eq{"username": identifier}, sq.Eq{"email": identifier}}, identifier)
}

// Exists reports whether username or email is already taken.
func (r *AdminRepository) Exists(ctx context.Context, username, email string) (exists bool, err error) {
	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From(adminTable).
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build admin exists: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "AdminExists", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check admin exists: %w", err)
	}
	return exists, nil
}

func (r *AdminRepository) getOne(ctx context.Context, op string, where sq.Sqlizer, key string) (_ *domain.Admin, err error) {
	query, args, err := psql.Select(adminColumns...).From(adminTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var a domain.Admin
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("admin", key)
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}
