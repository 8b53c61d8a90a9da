package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/dbx"
	"github.com/celar-labs/celar/internal/server/models"
)

// SQLRepository works against both SQLite and PostgreSQL; queries are
// written with '?' and rebound for the driver in use.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := r.db.Rebind(
		`INSERT INTO users (email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		user.Email, user.PasswordHash, user.Role, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users
		 WHERE email = ?`, email)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users
		 WHERE id = ?`, id)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	if err := r.db.GetContext(ctx, user, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
