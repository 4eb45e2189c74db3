// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// PasswordResetService handles the email-driven password reset flow.
type PasswordResetService struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewPasswordResetService creates a new PasswordResetService with a no-op logger.
// Returns an error if any required dependency is nil.
func NewPasswordResetService(users UserRepository, hasher PasswordHasher) (*PasswordResetService, error) {
	return NewPasswordResetServiceWithLogger(users, hasher, slog.New(slog.DiscardHandler))
}

// NewPasswordResetServiceWithLogger creates a new PasswordResetService with
// the provided logger. Returns an error if any required dependency is nil.
func NewPasswordResetServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &PasswordResetService{users: users, hasher: hasher, logger: logger}, nil
}

// RequestReset generates a reset token for the account behind the email and
// attaches its hash plus a one-hour expiration to the user record.
// Returns the user and the plaintext token for embedding in the reset link
// (sending the mail is NOT this service's job); the caller should address
// the mail to the returned user's stored email, not the submitted one.
//
// The token is generated before the lookup, so an entropy failure
// (RESET_TOKEN_GENERATE_FAILED) surfaces regardless of account existence.
// Unlike login, an unknown email is reported to the caller as
// RESET_NO_ACCOUNT: this flow deliberately reveals account existence.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*User, string, error) {
	token, hash, err := GenerateResetToken()
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", oops.Code("RESET_NO_ACCOUNT").
				Wrap(ErrNotFound)
		}
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	expiresAt := time.Now().Add(ResetTokenExpiry)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "set reset token").
			Wrap(err)
	}

	s.logger.Info("password reset requested", "user_id", user.ID.String())
	return user, token, nil
}

// UserForToken returns the user holding an unexpired reset token.
// Invalid, expired, or unknown tokens all yield RESET_TOKEN_INVALID so the
// caller can render a clear failure instead of dereferencing a missing user.
func (s *PasswordResetService) UserForToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code("RESET_TOKEN_INVALID").Errorf("reset token cannot be empty")
	}

	user, err := s.users.GetByResetToken(ctx, HashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or has expired")
		}
		return nil, oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "get user by reset token").
			Wrap(err)
	}

	return user, nil
}

// ResetPassword sets a new password using a reset token.
// The token, the user ID, and an unexpired expiration must all match the
// same record; the ID and token arrive from hidden form fields, so the
// triple is re-verified here rather than trusting the submitted ID.
// On success the password hash is replaced and both reset fields cleared.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token string, userID ulid.ULID, newPassword string) error {
	if newPassword == "" {
		return oops.Code("RESET_PASSWORD_EMPTY").Errorf("new password cannot be empty")
	}
	if token == "" {
		return oops.Code("RESET_TOKEN_INVALID").Errorf("reset token cannot be empty")
	}

	user, err := s.users.GetByResetTokenAndID(ctx, HashResetToken(token), userID, time.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or has expired")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "get user by reset token and id").
			Wrap(err)
	}

	hashedPassword, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	// UpdatePassword clears the reset token and expiration in the same
	// statement, so a used token can never be replayed.
	if err := s.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	s.logger.Info("password reset completed", "user_id", user.ID.String())
	return nil
}
