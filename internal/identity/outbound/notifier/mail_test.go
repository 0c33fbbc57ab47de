package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordMail struct {
	sent []mail.Message
	err  error
}

func (r *recordMail) Send(_ context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordMail) Close() error { return nil }

func TestMail_SendOTPEmail(t *testing.T) {
	t.Parallel()

	t.Run("renders and sends", func(t *testing.T) {
		t.Parallel()
		rec := &recordMail{}
		n := NewMail(rec, instrument.NewNoop(), "", 10*time.Minute)

		require.NoError(t, n.SendOTPEmail(t.Context(), "a@example.com", "123456"))

		require.Len(t, rec.sent, 1)
		msg := rec.sent[0]
		assert.Equal(t, []string{"a@example.com"}, msg.To)
		assert.Equal(t, "Your OTP Code", msg.Subject)
		assert.Contains(t, msg.TextBody, "123456")
		assert.Contains(t, msg.HTMLBody, "123456")
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()
		rec := &recordMail{err: errors.New("dial tcp: refused")}
		n := NewMail(rec, instrument.NewNoop(), "Reset code", time.Minute)

		assert.EqualError(t, n.SendOTPEmail(t.Context(), "a@example.com", "123456"), "dial tcp: refused")
	})
}
