package email

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	got []mail.Message
	err error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.got = append(f.got, msg)
	return f.err
}

func (f *fakeMail) Close() error { return nil }

func TestSenderSend(t *testing.T) {
	t.Parallel()

	msg := mail.Message{To: []string{"a@example.com"}, Subject: "Your OTP Code", TextBody: "123456"}

	t.Run("delivers", func(t *testing.T) {
		t.Parallel()

		fm := &fakeMail{}
		require.NoError(t, New(fm, instrument.NewNoop()).Send(t.Context(), msg))
		require.Len(t, fm.got, 1)
		assert.Equal(t, msg, fm.got[0])
	})

	t.Run("returns transport error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("smtp down")
		err := New(&fakeMail{err: boom}, instrument.NewNoop()).Send(t.Context(), msg)
		assert.ErrorIs(t, err, boom)
	})
}
