package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nsetools/project-scheduler/internal/models"
)

// UserRepo persists user credential records. Password hashes go in and never
// come back out of any method except GetByEmail, which login needs for
// verification.
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, name, email, date_of_birth, created_at, updated_at`

// Create inserts a user with an already-hashed password. A duplicate email
// returns ErrDuplicateEmail and leaves no row behind; uniqueness is enforced
// by the users_email_key index.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string, dateOfBirth *time.Time) (*models.User, error) {
	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, date_of_birth)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		name, email, passwordHash, dateOfBirth,
	).Scan(&user.ID, &user.Name, &user.Email, &user.DateOfBirth, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

// GetByEmail returns the user with the password hash populated, for
// credential verification. Lookups are case-sensitive, as stored.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, date_of_birth, created_at, updated_at
		FROM users
		WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.DateOfBirth, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetByID returns the user's profile without the password hash.
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.DateOfBirth, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateProfile mutates the non-sensitive fields only. Email and password
// changes are not part of this operation. A nil dateOfBirth keeps the stored
// value; requests that omit the field must not erase it.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int, name string, dateOfBirth *time.Time) (*models.User, error) {
	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, `
		UPDATE users
		SET name = $1, date_of_birth = COALESCE($2, date_of_birth), updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns,
		name, dateOfBirth, id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.DateOfBirth, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}
