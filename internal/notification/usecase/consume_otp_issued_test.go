package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
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

func newUsecase(t *testing.T, rm *recordMail) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	return NewNotification(Dependency{
		RepoMail:   rm,
		Validator:  v,
		Instrument: instrument.NewNoop(),
		Subject:    "Your OTP Code",
		OTPTTL:     15 * time.Minute,
	})
}

func TestConsumeOTPIssued(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      ConsumeOTPIssuedInput
		mailErr error
		wantErr bool
		sent    int
	}{
		{name: "sends", in: ConsumeOTPIssuedInput{Email: "a@example.com", Code: "123456"}, sent: 1},
		{name: "drops malformed email", in: ConsumeOTPIssuedInput{Email: "nope", Code: "123456"}},
		{name: "drops malformed code", in: ConsumeOTPIssuedInput{Email: "a@example.com", Code: "12"}},
		{
			name:    "returns delivery failure",
			in:      ConsumeOTPIssuedInput{Email: "a@example.com", Code: "12345678"},
			mailErr: errors.New("smtp down"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rm := &recordMail{err: tt.mailErr}
			err := newUsecase(t, rm).ConsumeOTPIssued(t.Context(), tt.in)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, rm.sent, tt.sent)
			if tt.sent > 0 {
				assert.Equal(t, []string{tt.in.Email}, rm.sent[0].To)
				assert.Equal(t, "Your OTP Code", rm.sent[0].Subject)
				assert.Contains(t, rm.sent[0].TextBody, tt.in.Code)
				assert.Contains(t, rm.sent[0].TextBody, "15 minutes")
			}
		})
	}
}
