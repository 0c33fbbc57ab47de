package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow     = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	userCols    = []string{"id", "email", "password", "created_at", "updated_at"}
	otpCols     = []string{"id", "user_id", "code", "purpose", "is_expired", "is_used", "verified", "attempts", "expires_at", "verified_at", "created_at", "updated_at"}
	errDBFailed = errors.New("connection reset")
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewDB(mock, instrument.NewNoop()), mock
}

func otpRow(attempts int32, verified bool) *pgxmock.Rows {
	return pgxmock.NewRows(otpCols).AddRow(
		int64(11), int64(7), "digest", "FORGOT_PASSWORD", false, false, verified, attempts,
		testNow.Add(15*time.Minute), nil, testNow, testNow,
	)
}

func TestGetUserByEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		want    *entity.User
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identity_users WHERE email = \$1`).
					WithArgs("a@b.c").
					WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(7), "a@b.c", "hash", testNow, testNow))
			},
			want: &entity.User{ID: 7, Email: "a@b.c", Password: "hash", CreatedAt: testNow, UpdatedAt: testNow},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identity_users WHERE email = \$1`).
					WithArgs("a@b.c").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: goerror.ErrNotFound,
		},
		{
			name: "store failure",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identity_users WHERE email = \$1`).
					WithArgs("a@b.c").
					WillReturnError(errDBFailed)
			},
			wantErr: errDBFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, mock := newMockDB(t)
			tt.setup(mock)

			got, err := s.GetUserByEmail(context.Background(), "a@b.c")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateUserConflict(t *testing.T) {
	t.Parallel()

	s, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO identity_users`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := s.CreateUser(context.Background(), entity.User{ID: 1, Email: "a@b.c", Password: "h"})
	require.ErrorIs(t, err, goerror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserPassword(t *testing.T) {
	t.Parallel()

	s, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE identity_users SET password = \$2`).
		WithArgs(int64(7), "new-hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE identity_users SET password = \$2`).
		WithArgs(int64(8), "new-hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, s.UpdateUserPassword(context.Background(), 7, "new-hash"))
	require.ErrorIs(t, s.UpdateUserPassword(context.Background(), 8, "new-hash"), goerror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOTP(t *testing.T) {
	t.Parallel()

	s, mock := newMockDB(t)
	mock.ExpectQuery(`FROM identity_otps WHERE user_id = \$1 AND code = \$2 AND is_expired = \$3 AND is_used = \$4 AND verified = \$5 AND expires_at > \$6 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(7), "digest", false, false, false, testNow).
		WillReturnRows(otpRow(2, false))

	got, err := s.FindOTP(context.Background(), 7, "digest", entity.OTPFilterVerifiable, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, entity.OTPPurposeForgotPassword, got.Purpose)
	assert.Equal(t, int32(2), got.Attempts)
	assert.Nil(t, got.VerifiedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestOTPAnyState(t *testing.T) {
	t.Parallel()

	s, mock := newMockDB(t)
	mock.ExpectQuery(`FROM identity_otps WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLatestOTP(context.Background(), 7, nil)
	require.ErrorIs(t, err, goerror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueOTP(t *testing.T) {
	t.Parallel()

	in := entity.IssueOTP{
		ID:         12,
		UserID:     7,
		CodeDigest: "digest",
		Purpose:    entity.OTPPurposeForgotPassword,
		Now:        testNow,
		ExpiresAt:  testNow.Add(15 * time.Minute),
	}

	tests := []struct {
		name         string
		setup        func(mock pgxmock.PgxPoolIface)
		wantAttempts int32
		wantErr      error
	}{
		{
			name: "follows previous attempts",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM identity_users WHERE id = \$1 FOR UPDATE`).
					WithArgs(int64(7)).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectQuery(`FROM identity_otps WHERE user_id = \$1 ORDER BY`).
					WithArgs(int64(7)).
					WillReturnRows(otpRow(2, true))
				mock.ExpectExec(`UPDATE identity_otps SET is_expired = true`).
					WithArgs(int64(7), testNow).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectQuery(`INSERT INTO identity_otps`).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(testNow))
				mock.ExpectCommit()
			},
			wantAttempts: 3,
		},
		{
			name: "first code",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM identity_users WHERE id = \$1 FOR UPDATE`).
					WithArgs(int64(7)).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectQuery(`FROM identity_otps WHERE user_id = \$1 ORDER BY`).
					WithArgs(int64(7)).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectExec(`UPDATE identity_otps SET is_expired = true`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`INSERT INTO identity_otps`).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(testNow))
				mock.ExpectCommit()
			},
			wantAttempts: 1,
		},
		{
			name: "unknown user",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM identity_users WHERE id = \$1 FOR UPDATE`).
					WithArgs(int64(7)).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: goerror.ErrNotFound,
		},
		{
			name: "insert failure rolls back",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM identity_users WHERE id = \$1 FOR UPDATE`).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectQuery(`FROM identity_otps WHERE user_id = \$1 ORDER BY`).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectExec(`UPDATE identity_otps SET is_expired = true`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`INSERT INTO identity_otps`).
					WillReturnError(errDBFailed)
				mock.ExpectRollback()
			},
			wantErr: errDBFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, mock := newMockDB(t)
			tt.setup(mock)

			got, err := s.IssueOTP(context.Background(), in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAttempts, got.Attempts)
				assert.Equal(t, "digest", got.Code)
				assert.False(t, got.Verified)
				assert.Equal(t, in.ExpiresAt, got.ExpiresAt)
				assert.Equal(t, testNow, got.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIssueOTPWithBasis(t *testing.T) {
	t.Parallel()

	s, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`FROM identity_otps WHERE user_id = \$1 AND is_expired = \$2 AND is_used = \$3 AND verified = \$4 ORDER BY`).
		WithArgs(int64(7), false, false, false).
		WillReturnRows(otpRow(4, false))
	mock.ExpectExec(`UPDATE identity_otps SET is_expired = true`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO identity_otps`).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(testNow))
	mock.ExpectCommit()

	basis := entity.OTPFilterVerifiable
	got, err := s.IssueOTP(context.Background(), entity.IssueOTP{
		ID: 13, UserID: 7, CodeDigest: "d", Purpose: entity.OTPPurposeResend, Basis: &basis, Now: testNow, ExpiresAt: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.Attempts)
	assert.Equal(t, entity.OTPPurposeResend, got.Purpose)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOTPStale(t *testing.T) {
	t.Parallel()

	s, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE identity_otps`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateOTP(context.Background(), entity.OTP{ID: 11, UserID: 7, Verified: true}, entity.OTPFilterVerifiable)
	require.ErrorIs(t, err, goerror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	t.Run("consumes code and updates password", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE identity_otps`).
			WithArgs(int64(11), int64(7), true, true, true, pgxmock.AnyArg(), testNow, false, false, true).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`UPDATE identity_users SET password`).
			WithArgs(int64(7), "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := s.ResetPassword(context.Background(), entity.OTP{ID: 11, UserID: 7, Verified: true, VerifiedAt: &testNow, UpdatedAt: testNow}, "new-hash")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("code consumed concurrently", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE identity_otps`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := s.ResetPassword(context.Background(), entity.OTP{ID: 11, UserID: 7, Verified: true}, "new-hash")
		require.ErrorIs(t, err, goerror.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pgx5://u:p@h:5432/db", MigrateURL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u:p@h:5432/db", MigrateURL("postgresql://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://h/db", MigrateURL("pgx5://h/db"))
}
