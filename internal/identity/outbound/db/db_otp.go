package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
)

const otpColumns = `id, user_id, code, purpose, is_expired, is_used, verified, attempts,
	expires_at, verified_at, created_at, updated_at`

// newest first; snowflake ids break created_at ties in creation order
const otpLatestFirst = ` ORDER BY created_at DESC, id DESC LIMIT 1`

func scanOTP(row pgx.Row) (*entity.OTP, error) {
	var (
		o          entity.OTP
		purpose    string
		verifiedAt pgtype.Timestamptz
	)

	if err := row.Scan(&o.ID, &o.UserID, &o.Code, &purpose, &o.IsExpired, &o.IsUsed, &o.Verified,
		&o.Attempts, &o.ExpiresAt, &verifiedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	p, err := entity.ParseOTPPurpose(purpose)
	if err != nil {
		return nil, fmt.Errorf("otp %d: %w", o.ID, err)
	}
	o.Purpose = p

	if verifiedAt.Valid {
		t := verifiedAt.Time
		o.VerifiedAt = &t
	}

	return &o, nil
}

// filterClause renders f starting at placeholder $n. A non-zero now adds the
// validity window.
func filterClause(f entity.OTPFilter, now time.Time, n int) (string, []any) {
	clause := fmt.Sprintf(` AND is_expired = $%d AND is_used = $%d AND verified = $%d`, n, n+1, n+2)
	args := []any{f.IsExpired, f.IsUsed, f.Verified}

	if !now.IsZero() {
		clause += fmt.Sprintf(` AND expires_at > $%d`, n+3)
		args = append(args, now)
	}

	return clause, args
}

// GetLatestOTP returns the newest record of the user matching filter, or the
// newest record of any state when filter is nil.
func (s *DB) GetLatestOTP(ctx context.Context, userID int64, filter *entity.OTPFilter) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestOTP")
	defer func() { s.endSpan(span, err) }()

	o, err := getLatestOTP(ctx, s.conn, userID, filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return o, nil
}

func getLatestOTP(ctx context.Context, q querier, userID int64, filter *entity.OTPFilter) (*entity.OTP, error) {
	sql := `SELECT ` + otpColumns + ` FROM identity_otps WHERE user_id = $1`
	args := []any{userID}

	if filter != nil {
		clause, fargs := filterClause(*filter, time.Time{}, 2)
		sql += clause
		args = append(args, fargs...)
	}

	return scanOTP(q.QueryRow(ctx, sql+otpLatestFirst, args...))
}

// FindOTP returns the newest record of the user with the given code digest
// that matches filter and is still inside its validity window at now.
func (s *DB) FindOTP(ctx context.Context, userID int64, codeDigest string, filter entity.OTPFilter, now time.Time) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "FindOTP")
	defer func() { s.endSpan(span, err) }()

	clause, fargs := filterClause(filter, now, 3)
	args := append([]any{userID, codeDigest}, fargs...)

	o, err := scanOTP(s.conn.QueryRow(ctx,
		`SELECT `+otpColumns+` FROM identity_otps WHERE user_id = $1 AND code = $2`+clause+otpLatestFirst, args...))
	if err != nil {
		return nil, s.mapError(err)
	}
	return o, nil
}

func (s *DB) CreateOTP(ctx context.Context, o entity.OTP) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOTP")
	defer func() { s.endSpan(span, err) }()

	return s.mapError(createOTP(ctx, s.conn, o))
}

func createOTP(ctx context.Context, q querier, o entity.OTP) error {
	_, err := q.Exec(ctx,
		`INSERT INTO identity_otps (id, user_id, code, purpose, is_expired, is_used, verified, attempts,
			expires_at, verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.UserID, o.Code, o.Purpose.String(), o.IsExpired, o.IsUsed, o.Verified, o.Attempts,
		o.ExpiresAt, o.VerifiedAt, o.CreatedAt, o.UpdatedAt)
	return err
}

// UpdateOTP writes the state flags of o, provided the stored record still
// matches expect. goerror.ErrNotFound means the record moved on concurrently.
func (s *DB) UpdateOTP(ctx context.Context, o entity.OTP, expect entity.OTPFilter) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateOTP")
	defer func() { s.endSpan(span, err) }()

	return s.mapError(updateOTP(ctx, s.conn, o, expect))
}

func updateOTP(ctx context.Context, q querier, o entity.OTP, expect entity.OTPFilter) error {
	clause, fargs := filterClause(expect, time.Time{}, 8)
	args := append([]any{o.ID, o.UserID, o.IsExpired, o.IsUsed, o.Verified, o.VerifiedAt, o.UpdatedAt}, fargs...)

	tag, err := q.Exec(ctx,
		`UPDATE identity_otps
		SET is_expired = $3, is_used = $4, verified = $5, verified_at = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2`+clause, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

// IssueOTP creates a code in one transaction. Locking the user row
// serializes issuance per user, so the attempt counter and the supersede
// step never interleave with another issuance for the same user.
func (s *DB) IssueOTP(ctx context.Context, in entity.IssueOTP) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "IssueOTP")
	defer func() { s.endSpan(span, err) }()

	var issued *entity.OTP
	err = s.inTx(ctx, func(q querier) error {
		var locked int64
		if err := q.QueryRow(ctx, `SELECT id FROM identity_users WHERE id = $1 FOR UPDATE`, in.UserID).Scan(&locked); err != nil {
			return err
		}

		prev, err := getLatestOTP(ctx, q, in.UserID, in.Basis)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			prev = nil
		case err != nil:
			return err
		}

		if _, err := q.Exec(ctx,
			`UPDATE identity_otps SET is_expired = true, updated_at = $2 WHERE user_id = $1 AND is_expired = false`,
			in.UserID, in.Now); err != nil {
			return err
		}

		o := entity.OTP{
			ID:        in.ID,
			UserID:    in.UserID,
			Code:      in.CodeDigest,
			Purpose:   in.Purpose,
			Attempts:  entity.NextAttempts(prev),
			ExpiresAt: in.ExpiresAt,
		}

		// created_at never goes below the user's newest record: a caller that
		// waited on the lock may carry an older timestamp than the winner.
		if err := q.QueryRow(ctx,
			`INSERT INTO identity_otps (id, user_id, code, purpose, attempts, expires_at, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, $6, t.ts, t.ts
			FROM (SELECT GREATEST($7::timestamptz,
				(SELECT max(created_at) + interval '1 microsecond' FROM identity_otps WHERE user_id = $2)) AS ts) AS t
			RETURNING created_at`,
			o.ID, o.UserID, o.Code, o.Purpose.String(), o.Attempts, o.ExpiresAt, in.Now,
		).Scan(&o.CreatedAt); err != nil {
			return err
		}
		o.UpdatedAt = o.CreatedAt

		issued = &o
		return nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return issued, nil
}

// ResetPassword consumes the verified code and stores the new password hash
// in one transaction. goerror.ErrNotFound means the code was consumed or
// superseded concurrently.
func (s *DB) ResetPassword(ctx context.Context, o entity.OTP, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer func() { s.endSpan(span, err) }()

	o.IsUsed = true
	o.IsExpired = true

	err = s.inTx(ctx, func(q querier) error {
		if err := updateOTP(ctx, q, o, entity.OTPFilterResettable); err != nil {
			return err
		}
		return updateUserPassword(ctx, q, o.UserID, hash)
	})
	return s.mapError(err)
}
