package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
)

var (
	ErrNotFound = apperr.New(apperr.KindNotFound, apperr.CodeUserNotFound, "user not found")
	// ErrDuplicate is returned for a username or email collision; it does not say which
	ErrDuplicate = apperr.New(apperr.KindConflict, apperr.CodeUserExists, "user already exists")
)

// Repository handles user data persistence
type Repository struct {
	db  bun.IDB
	now func() time.Time
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts a new user. Uniqueness is enforced by the table's constraints only,
// so concurrent registrations of one username produce exactly one row.
func (r *Repository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	now := r.now().UTC()
	dbUser := &database.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, apperr.Store(err, "create user")
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Store(err, "get user by username")
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Store(err, "get user by id")
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdatePassword replaces a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return apperr.Store(err, "update password")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperr.Store(err, "update password rows affected")
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of registered users
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, apperr.Store(err, "count users")
	}
	return count, nil
}

func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Username:     dbu.Username,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
