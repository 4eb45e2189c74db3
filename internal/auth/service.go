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

// Service provides signup, login, logout, and session validation.
type Service struct {
	users      UserRepository
	sessions   WebSessionRepository
	hasher     PasswordHasher
	logger     *slog.Logger
	sessionTTL time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSessionTTL overrides the default session lifetime. Non-positive
// values are ignored.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// NewService creates a new Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewService(users UserRepository, sessions WebSessionRepository, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	return NewServiceWithLogger(users, sessions, hasher, slog.New(slog.DiscardHandler), opts...)
}

// NewServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(users UserRepository, sessions WebSessionRepository, hasher PasswordHasher, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	s := &Service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		logger:     logger,
		sessionTTL: SessionTokenExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dummyPasswordHash is verified when no account matches the email, so the
// response time does not reveal whether the account exists.
// This is NOT a real credential - it is a syntactically valid bcrypt hash
// that will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$2a$12$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Signup creates a new user account with an empty cart. The email is
// normalized to lowercase and the password hashed before the insert.
// Returns an AUTH_EMAIL_TAKEN error if the email is already registered.
func (s *Service) Signup(ctx context.Context, email, password string) (*User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				With("email", user.Email).
				Errorf("email is already registered")
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.Info("user signed up", "user_id", user.ID.String())
	return user, nil
}

// Login authenticates a user and creates a web session.
// Returns the session, plaintext token, and any error.
// The email is matched exactly as stored; absent accounts and wrong
// passwords produce the same AUTH_INVALID_CREDENTIALS error so neither leaks
// which field was wrong. A dummy hash is verified when the account is absent
// to keep response time consistent.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*WebSession, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	var targetHash string
	var userExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			targetHash = dummyPasswordHash
			userExists = false
		} else {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	session, err := NewWebSession(user.ID, tokenHash, userAgent, ipAddress, expiresAt)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create web session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// Logout invalidates a web session.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// ValidateSession validates a session token and returns the session if valid.
// Also updates the LastSeenAt timestamp.
func (s *Service) ValidateSession(ctx context.Context, token string) (*WebSession, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	tokenHash := HashSessionToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	// Update last seen timestamp (non-blocking, ignore errors)
	now := time.Now()
	if err := s.sessions.UpdateLastSeen(ctx, session.ID, now); err != nil {
		s.logger.Warn("failed to update session last seen",
			"session_id", session.ID.String(), "error", err)
	}

	return session, nil
}

// LogoutAll invalidates every session belonging to a user. Used after a
// password reset so stolen sessions die with the old password.
func (s *Service) LogoutAll(ctx context.Context, userID ulid.ULID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete sessions by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// CleanupExpiredSessions removes expired web sessions and reports how many
// were deleted.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_CLEANUP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	if count > 0 {
		s.logger.Info("expired sessions removed", "count", count)
	}
	return count, nil
}

// UserForSession loads the user record behind a validated session.
func (s *Service) UserForSession(ctx context.Context, session *WebSession) (*User, error) {
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").
				With("user_id", session.UserID.String()).
				Errorf("session user no longer exists")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}
	return user, nil
}
