// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthshop/hearthshop/internal/auth"
	"github.com/hearthshop/hearthshop/pkg/errutil"
)

var userColumns = []string{
	"id", "email", "password_hash", "reset_token_hash",
	"reset_token_expires_at", "cart", "created_at", "updated_at",
}

func testUser(t *testing.T) *auth.User {
	t.Helper()
	user, err := auth.NewUser("shopper@example.com", "$2a$12$hash")
	require.NoError(t, err)
	return user
}

func userRow(user *auth.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns).AddRow(
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
		[]byte("[]"),
		user.CreatedAt,
		user.UpdatedAt,
	)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, user *auth.User)
		wantErr   bool
		wantCode  string
		wantIs    error
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(
						user.ID.String(),
						user.Email,
						user.PasswordHash,
						user.ResetTokenHash,
						user.ResetTokenExpiresAt,
						[]byte("[]"),
						user.CreatedAt,
						user.UpdatedAt,
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email maps to ErrEmailExists",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(
						user.ID.String(),
						user.Email,
						user.PasswordHash,
						user.ResetTokenHash,
						user.ResetTokenExpiresAt,
						[]byte("[]"),
						user.CreatedAt,
						user.UpdatedAt,
					).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr:  true,
			wantCode: "USER_EMAIL_TAKEN",
			wantIs:   auth.ErrEmailExists,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(
						user.ID.String(),
						user.Email,
						user.PasswordHash,
						user.ResetTokenHash,
						user.ResetTokenExpiresAt,
						[]byte("[]"),
						user.CreatedAt,
						user.UpdatedAt,
					).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr:  true,
			wantCode: "USER_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			user := testUser(t)
			tt.setupMock(mock, user)

			repo := NewUserRepository(mock)
			err = repo.Create(context.Background(), user)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantIs != nil {
					assert.ErrorIs(t, err, tt.wantIs)
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		user := testUser(t)
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs(user.Email).
			WillReturnRows(userRow(user))

		repo := NewUserRepository(mock)
		got, err := repo.GetByEmail(context.Background(), user.Email)

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.Empty(t, got.Cart)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("missing@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns))

		repo := NewUserRepository(mock)
		got, err := repo.GetByEmail(context.Background(), "missing@example.com")

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("shopper@example.com").
			WillReturnError(errors.New("connection refused"))

		repo := NewUserRepository(mock)
		got, err := repo.GetByEmail(context.Background(), "shopper@example.com")

		require.Error(t, err)
		assert.Nil(t, got)
		errutil.AssertErrorCode(t, err, "USER_GET_BY_EMAIL_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		user := testUser(t)
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs(user.ID.String()).
			WillReturnRows(userRow(user))

		repo := NewUserRepository(mock)
		got, err := repo.GetByID(context.Background(), user.ID)

		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows(userColumns))

		repo := NewUserRepository(mock)
		got, err := repo.GetByID(context.Background(), id)

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByResetToken(t *testing.T) {
	now := time.Now()

	t.Run("matching unexpired token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		user := testUser(t)
		tokenHash := "deadbeef"
		expiresAt := now.Add(time.Hour)
		user.ResetTokenHash = &tokenHash
		user.ResetTokenExpiresAt = &expiresAt

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs(tokenHash, now).
			WillReturnRows(userRow(user))

		repo := NewUserRepository(mock)
		got, err := repo.GetByResetToken(context.Background(), tokenHash, now)

		require.NoError(t, err)
		require.NotNil(t, got.ResetTokenHash)
		assert.Equal(t, tokenHash, *got.ResetTokenHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or expired token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("deadbeef", now).
			WillReturnRows(pgxmock.NewRows(userColumns))

		repo := NewUserRepository(mock)
		got, err := repo.GetByResetToken(context.Background(), "deadbeef", now)

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByResetTokenAndID(t *testing.T) {
	now := time.Now()

	t.Run("all three match", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		user := testUser(t)
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("deadbeef", user.ID.String(), now).
			WillReturnRows(userRow(user))

		repo := NewUserRepository(mock)
		got, err := repo.GetByResetTokenAndID(context.Background(), "deadbeef", user.ID, now)

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token belongs to a different user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("deadbeef", id.String(), now).
			WillReturnRows(pgxmock.NewRows(userColumns))

		repo := NewUserRepository(mock)
		got, err := repo.GetByResetTokenAndID(context.Background(), "deadbeef", id, now)

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_SetResetToken(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, id ulid.ULID)
		wantErr   bool
		wantCode  string
	}{
		{
			name: "successful update",
			setupMock: func(mock pgxmock.PgxPoolIface, id ulid.ULID) {
				mock.ExpectExec(`UPDATE users SET reset_token_hash`).
					WithArgs(id.String(), "deadbeef", expiresAt, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "unknown user",
			setupMock: func(mock pgxmock.PgxPoolIface, id ulid.ULID) {
				mock.ExpectExec(`UPDATE users SET reset_token_hash`).
					WithArgs(id.String(), "deadbeef", expiresAt, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr:  true,
			wantCode: "USER_NOT_FOUND",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface, id ulid.ULID) {
				mock.ExpectExec(`UPDATE users SET reset_token_hash`).
					WithArgs(id.String(), "deadbeef", expiresAt, pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr:  true,
			wantCode: "USER_SET_RESET_TOKEN_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			id := ulid.Make()
			tt.setupMock(mock, id)

			repo := NewUserRepository(mock)
			err = repo.SetResetToken(context.Background(), id, "deadbeef", expiresAt)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	t.Run("clears reset fields in the same statement", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE users SET password_hash = \$2, reset_token_hash = NULL`).
			WithArgs(id.String(), "$2a$12$newhash", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewUserRepository(mock)
		err = repo.UpdatePassword(context.Background(), id, "$2a$12$newhash")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE users SET password_hash`).
			WithArgs(id.String(), "$2a$12$newhash", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewUserRepository(mock)
		err = repo.UpdatePassword(context.Background(), id, "$2a$12$newhash")

		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("successful update", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		user := testUser(t)
		mock.ExpectExec(`UPDATE users SET`).
			WithArgs(
				user.ID.String(),
				user.Email,
				user.PasswordHash,
				user.ResetTokenHash,
				user.ResetTokenExpiresAt,
				[]byte("[]"),
				user.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewUserRepository(mock)
		err = repo.Update(context.Background(), user)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		user := testUser(t)
		mock.ExpectExec(`UPDATE users SET`).
			WithArgs(
				user.ID.String(),
				user.Email,
				user.PasswordHash,
				user.ResetTokenHash,
				user.ResetTokenExpiresAt,
				[]byte("[]"),
				user.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewUserRepository(mock)
		err = repo.Update(context.Background(), user)

		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateCart(t *testing.T) {
	t.Run("stores cart as JSON", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		productID := ulid.Make()
		cart := []auth.CartItem{{ProductID: productID.String(), Quantity: 2}}
		cartJSON := `[{"product_id":"` + productID.String() + `","quantity":2}]`

		mock.ExpectExec(`UPDATE users SET cart`).
			WithArgs(id.String(), []byte(cartJSON), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewUserRepository(mock)
		err = repo.UpdateCart(context.Background(), id, cart)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
