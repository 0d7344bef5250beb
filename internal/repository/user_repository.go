package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/annotation-tracker/internal/model"
)

// UserRepo persists annotator accounts in the 'users' table.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `annotator_id, name, email, password_hash, role, created_at, updated_at`

// Create inserts an account whose ID was drawn by the caller. The email
// is normalized before insert.
func (r *UserRepo) Create(ctx context.Context, u *model.Annotator) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES
		(:annotator_id, :name, :email, :password_hash, :role, :created_at, :updated_at)`, u)
	return userWriteErr(err)
}

func userWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if desc, ok := uniqueViolation(err); ok {
		switch {
		case keyIs(desc, "annotator_id", true):
			return ErrDuplicateID
		case strings.Contains(desc, "email"):
			return ErrEmailExists
		default:
			return ErrNameExists
		}
	}
	return classify(err)
}

// Exists reports whether an account already uses the identifier.
func (r *UserRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE annotator_id = ?`), id)
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.Annotator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.Annotator
	err := r.DB.GetContext(ctx, &u,
		r.DB.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	return u, classify(err)
}

// GetByID fetches an account by identifier.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.Annotator, error) {
	var u model.Annotator
	err := r.DB.GetContext(ctx, &u,
		r.DB.Rebind(`SELECT `+userColumns+` FROM users WHERE annotator_id = ?`), id)
	return u, classify(err)
}

// List returns every account ordered by identifier.
func (r *UserRepo) List(ctx context.Context) ([]model.Annotator, error) {
	out := []model.Annotator{}
	if err := r.DB.SelectContext(ctx, &out, `SELECT `+userColumns+` FROM users ORDER BY annotator_id`); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Count returns the number of accounts.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// UpdatePassword replaces the stored hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE annotator_id = ?`, hash, at.UTC(), id)
}

// UpdateRole changes the account's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE annotator_id = ?`, role, at.UTC(), id)
}

// Delete removes the account. Annotation records are left untouched.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM users WHERE annotator_id = ?`, id)
}

// exec runs a single-row statement and maps zero affected rows to
// ErrNotFound.
func (r *UserRepo) exec(ctx context.Context, q string, args ...interface{}) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(q), args...)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
