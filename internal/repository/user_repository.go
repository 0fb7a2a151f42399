package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/nace129/booktable/internal/model"
)

// UserRepo provides CRUD operations for user accounts. Roles are
// persisted as a comma separated list in the roles column; the repo
// joins and splits them so callers only ever see []string.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, first_name, last_name, phone_number, roles, enabled, last_login, created_at, updated_at`

// Create inserts a new user and populates the generated ID. A
// collision with the unique email index is reported as
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (email, password_hash, first_name, last_name, phone_number, roles, enabled)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		joinRoles(u.Roles), u.Enabled)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID returns the user with the given ID or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByEmail returns the user with the given email or ErrUserNotFound.
// Emails are stored lower-cased; the caller is expected to normalize.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// List returns all users ordered by creation time descending.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateRoles replaces the user's role set.
func (r *UserRepo) UpdateRoles(ctx context.Context, id uint64, roles []string) error {
	const q = `UPDATE users SET roles = ?, updated_at = NOW() WHERE id = ?`
	return r.mustMatch(ctx, q, joinRoles(roles), id)
}

// SetEnabled flips the enabled flag.
func (r *UserRepo) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	const q = `UPDATE users SET enabled = ?, updated_at = NOW() WHERE id = ?`
	return r.mustMatch(ctx, q, enabled, id)
}

// TouchLastLogin records a successful login time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	const q = `UPDATE users SET last_login = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *UserRepo) mustMatch(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepo) scanOne(row rowScanner) (*model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		roles     string
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &roles, &u.Enabled, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Roles = splitRoles(roles)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func joinRoles(roles []string) string { return strings.Join(roles, ",") }

func splitRoles(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
