package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/sakila-admin/internal/database"
	"github.com/iliyamo/sakila-admin/internal/model"
	"github.com/iliyamo/sakila-admin/internal/utils"
)

// UserRepo stores admin accounts in `admin_users`.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const adminUserCols = "id,email,password_hash,role,is_active,created_at,updated_at"

// Create hashes password and inserts the account, returning its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if database.IsDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// EnsureAdmin creates an ADMIN account for email unless one already exists.
// It reports whether an account was created.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string, cost int) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrUserNotFound):
		return false, err
	}
	if _, err := r.Create(ctx, email, password, model.RoleAdmin, cost); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+adminUserCols+" FROM admin_users WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.AdminUser, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+adminUserCols+" FROM admin_users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.AdminUser, error) {
	var u model.AdminUser
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}
