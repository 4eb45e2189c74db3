// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

// Package postgres implements the auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hearthshop/hearthshop/internal/auth"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool DB) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. A unique violation on the email column is
// reported as auth.ErrEmailExists (wrapped).
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	cartJSON, err := json.Marshal(user.Cart)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "marshal cart").
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, reset_token_hash,
			reset_token_expires_at, cart, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
		cartJSON,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_EMAIL_TAKEN").
				With("email", user.Email).
				Wrap(auth.ErrEmailExists)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, reset_token_hash,
		       reset_token_expires_at, cart, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by the exact stored email. Signup normalizes
// to lowercase, so callers are expected to match that form.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, reset_token_hash,
		       reset_token_expires_at, cart, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// GetByResetToken retrieves the user holding the given reset token hash with
// an expiration after now.
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, reset_token_hash,
		       reset_token_expires_at, cart, created_at, updated_at
		FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
	`, tokenHash, now)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_RESET_TOKEN_FAILED").
			With("operation", "get user by reset token").
			Wrap(err)
	}
	return user, nil
}

// GetByResetTokenAndID retrieves a user only when the token hash, the user
// ID, and an unexpired expiration all match the same record.
func (r *UserRepository) GetByResetTokenAndID(ctx context.Context, tokenHash string, id ulid.ULID, now time.Time) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, reset_token_hash,
		       reset_token_expires_at, cart, created_at, updated_at
		FROM users
		WHERE reset_token_hash = $1 AND id = $2 AND reset_token_expires_at > $3
	`, tokenHash, id.String(), now)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_RESET_TOKEN_FAILED").
			With("operation", "get user by reset token and id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// Update updates an existing user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	cartJSON, err := json.Marshal(user.Cart)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "marshal cart").
			Wrap(err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			reset_token_hash = $4,
			reset_token_expires_at = $5,
			cart = $6,
			updated_at = $7
		WHERE id = $1
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
		cartJSON,
		user.UpdatedAt,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetResetToken attaches a reset token hash and expiration to a user.
func (r *UserRepository) SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), tokenHash, expiresAt, time.Now())
	if err != nil {
		return oops.Code("USER_SET_RESET_TOKEN_FAILED").
			With("operation", "set reset token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the password hash and clears both reset fields in
// the same statement, so a used reset token cannot be replayed.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, reset_token_hash = NULL,
		                 reset_token_expires_at = NULL, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateCart replaces the user's cart contents.
func (r *UserRepository) UpdateCart(ctx context.Context, id ulid.ULID, cart []auth.CartItem) error {
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		return oops.Code("USER_UPDATE_CART_FAILED").
			With("operation", "marshal cart").
			Wrap(err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE users SET cart = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), cartJSON, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_CART_FAILED").
			With("operation", "update cart").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *UserRepository) scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr               string
		email               string
		passwordHash        string
		resetTokenHash      *string
		resetTokenExpiresAt *time.Time
		cartJSON            []byte
		createdAt           time.Time
		updatedAt           time.Time
	)

	err := row.Scan(
		&idStr,
		&email,
		&passwordHash,
		&resetTokenHash,
		&resetTokenExpiresAt,
		&cartJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}

	cart := []auth.CartItem{}
	if len(cartJSON) > 0 {
		if err := json.Unmarshal(cartJSON, &cart); err != nil {
			return nil, oops.Code("USER_INVALID_CART").
				With("operation", "unmarshal cart").
				Wrap(err)
		}
	}

	return &auth.User{
		ID:                  id,
		Email:               email,
		PasswordHash:        passwordHash,
		ResetTokenHash:      resetTokenHash,
		ResetTokenExpiresAt: resetTokenExpiresAt,
		Cart:                cart,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
