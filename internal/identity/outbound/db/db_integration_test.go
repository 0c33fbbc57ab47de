//go:build integration

package db

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPostgresDB(t *testing.T) (*DB, *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("authotp_test"),
		postgres.WithUsername("authotp"),
		postgres.WithPassword("authotp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(dsn))
	require.NoError(t, Migrate(dsn), "migrations must be re-runnable")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewDB(pool, instrument.NewNoop()), pool
}

func TestIntegrationOTPLifecycle(t *testing.T) {
	s, _ := newPostgresDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.CreateUser(ctx, entity.User{ID: 1, Email: "a@b.c", Password: "h1", CreatedAt: now, UpdatedAt: now}))
	require.ErrorIs(t, s.CreateUser(ctx, entity.User{ID: 2, Email: "a@b.c", Password: "h2", CreatedAt: now, UpdatedAt: now}), goerror.ErrConflict)

	first, err := s.IssueOTP(ctx, entity.IssueOTP{ID: 10, UserID: 1, CodeDigest: "d1", Purpose: entity.OTPPurposeForgotPassword, Now: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.Attempts)

	basis := entity.OTPFilterVerifiable
	second, err := s.IssueOTP(ctx, entity.IssueOTP{ID: 11, UserID: 1, CodeDigest: "d2", Purpose: entity.OTPPurposeResend, Basis: &basis, Now: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int32(2), second.Attempts)

	_, err = s.FindOTP(ctx, 1, "d1", entity.OTPFilterVerifiable, now)
	require.ErrorIs(t, err, goerror.ErrNotFound, "superseded code must not verify")

	found, err := s.FindOTP(ctx, 1, "d2", entity.OTPFilterVerifiable, now)
	require.NoError(t, err)
	assert.Equal(t, int64(11), found.ID)

	found.Verified = true
	found.VerifiedAt = &now
	found.UpdatedAt = now
	require.NoError(t, s.UpdateOTP(ctx, *found, entity.OTPFilterVerifiable))
	require.ErrorIs(t, s.UpdateOTP(ctx, *found, entity.OTPFilterVerifiable), goerror.ErrNotFound)

	_, err = s.FindOTP(ctx, 1, "d2", entity.OTPFilterVerifiable, now)
	require.ErrorIs(t, err, goerror.ErrNotFound, "verified code must not verify twice")

	resettable, err := s.FindOTP(ctx, 1, "d2", entity.OTPFilterResettable, now)
	require.NoError(t, err)
	require.NotNil(t, resettable.VerifiedAt)

	require.NoError(t, s.ResetPassword(ctx, *resettable, "h-new"))
	require.ErrorIs(t, s.ResetPassword(ctx, *resettable, "h-other"), goerror.ErrNotFound)

	user, err := s.GetUserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "h-new", user.Password)

	latest, err := s.GetLatestOTP(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, latest.IsUsed)
	assert.True(t, latest.IsExpired)

	_, err = s.FindOTP(ctx, 1, "d2", entity.OTPFilterResettable, now)
	require.ErrorIs(t, err, goerror.ErrNotFound, "consumed code must not reset twice")

	third, err := s.IssueOTP(ctx, entity.IssueOTP{ID: 12, UserID: 1, CodeDigest: "d3", Purpose: entity.OTPPurposeForgotPassword, Now: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int32(3), third.Attempts)

	_, err = s.FindOTP(ctx, 1, "d3", entity.OTPFilterVerifiable, now.Add(2*time.Hour))
	require.ErrorIs(t, err, goerror.ErrNotFound, "code past its window must not verify")

	_, err = s.IssueOTP(ctx, entity.IssueOTP{ID: 13, UserID: 99, CodeDigest: "x", Purpose: entity.OTPPurposeResend, Now: now, ExpiresAt: now})
	require.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestIntegrationConcurrentIssue(t *testing.T) {
	s, pool := newPostgresDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.CreateUser(ctx, entity.User{ID: 1, Email: "a@b.c", Password: "h", CreatedAt: now, UpdatedAt: now}))

	const n = 10
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			_, err := s.IssueOTP(ctx, entity.IssueOTP{
				ID:         int64(100 + i),
				UserID:     1,
				CodeDigest: "d",
				Purpose:    entity.OTPPurposeForgotPassword,
				Now:        now.Add(time.Duration(i) * time.Millisecond),
				ExpiresAt:  now.Add(time.Hour),
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	rows, err := pool.Query(ctx, `SELECT attempts FROM identity_otps WHERE user_id = 1`)
	require.NoError(t, err)
	var attempts []int
	for rows.Next() {
		var a int
		require.NoError(t, rows.Scan(&a))
		attempts = append(attempts, a)
	}
	require.NoError(t, rows.Err())

	sort.Ints(attempts)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, attempts, "each issuance must see the previous one")

	var live int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM identity_otps WHERE user_id = 1 AND NOT is_expired`).Scan(&live))
	assert.Equal(t, 1, live)
}
