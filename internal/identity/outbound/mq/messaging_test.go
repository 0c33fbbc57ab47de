package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessaging_SendOTPEmail(t *testing.T) {
	t.Parallel()

	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	got := make(chan messaging.Message, 1)
	go func() {
		_ = broker.Consume(ctx, event.OTPIssuedSubject, func(ctx context.Context, msg messaging.Message) error {
			select {
			case got <- msg:
			case <-ctx.Done():
			}
			return nil
		}, messaging.WithGroup(event.OTPIssuedConsumerNotification))
	}()

	pub := NewMessaging(broker, instrument.NewNoop())
	pubCtx := instrument.SetCorrelationID(t.Context(), "cid-1")

	// the consumer registers asynchronously and earlier publishes are dropped
	deadline := time.After(2 * time.Second)
	var msg messaging.Message
	for msg == nil {
		require.NoError(t, pub.SendOTPEmail(pubCtx, "a@example.com", "123456"))
		select {
		case msg = <-got:
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("otp_issued event was not delivered")
		}
	}

	var payload event.OTPIssuedMessage
	require.NoError(t, json.Unmarshal(msg.Body(), &payload))
	assert.Equal(t, event.OTPIssuedMessage{Email: "a@example.com", Code: "123456"}, payload)
	assert.Equal(t, []byte("a@example.com"), msg.Key())
	assert.Equal(t, "cid-1", msg.Header(instrument.CorrelationIDHeader))
}
