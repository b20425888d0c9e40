package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"

	"statsboard/internal/entity"
)

const userColumns = `user_id, username, password, email, name, role`

type UserRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewUserRepository(db *sql.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

// GetByUsername returns ErrNotFound when no user has that username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").With("by", "username").Wrap(err)
	}
	return u, nil
}

// GetByID returns ErrNotFound when the id does not exist (e.g. a deleted account).
func (r *UserRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").With("by", "id").With("user_id", id).Wrap(err)
	}
	return u, nil
}

// UpdatePasswordHash replaces the stored hash, used to move legacy hashes to bcrypt.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = $1 WHERE user_id = $2`, hash, id)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	if n == 0 {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
