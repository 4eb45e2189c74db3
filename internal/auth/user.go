// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Email validation constraints.
const MaxEmailLength = 254

// emailRegex is a pragmatic check, not a full RFC 5322 parser. Anything that
// survives it still has to receive the confirmation mail to be useful.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a shop account.
type User struct {
	ID                  ulid.ULID
	Email               string
	PasswordHash        string
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	Cart                []CartItem
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CartItem references a product placed in a user's cart.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// NewUser creates a validated User with an empty cart.
// The email is normalized to lowercase before storage.
func NewUser(email, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_USER").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Cart:         []CartItem{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasActiveReset returns true if the user carries an unexpired reset token.
// The token hash and its expiration are always set and cleared together.
func (u *User) HasActiveReset() bool {
	return u.ResetTokenHash != nil &&
		u.ResetTokenExpiresAt != nil &&
		time.Now().Before(*u.ResetTokenExpiresAt)
}

// SetResetToken attaches a reset token hash and expiration to the user.
func (u *User) SetResetToken(tokenHash string, expiresAt time.Time) {
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	u.UpdatedAt = time.Now()
}

// ClearResetToken removes both reset fields.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	u.UpdatedAt = time.Now()
}

// NormalizeEmail lowercases and trims an email address. All storage and
// lookup goes through the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates an email address against basic shape rules.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email is not a valid address")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailExists (wrapped) if the
	// email is already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by the exact stored (normalized) email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetToken retrieves the user holding the given reset token hash
	// with an expiration after now.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// GetByResetTokenAndID retrieves a user only when the token hash, the
	// user ID, and an unexpired expiration all match the same record.
	GetByResetTokenAndID(ctx context.Context, tokenHash string, id ulid.ULID, now time.Time) (*User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *User) error

	// SetResetToken attaches a reset token hash and expiration to a user.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error

	// UpdatePassword replaces the password hash and clears both reset
	// fields in the same statement.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// UpdateCart replaces the user's cart contents.
	UpdateCart(ctx context.Context, id ulid.ULID, cart []CartItem) error
}
