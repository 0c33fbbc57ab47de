package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/pkg/uid"
	"github.com/shandysiswandi/authotp/internal/shared/event"
)

const defaultConcurrency = 10

func RegisterMQConsumer(
	ctx context.Context,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
	concurrency int,
) error {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	consumers := []struct {
		name    string
		subject string
		handler messaging.Handler
	}{
		{
			name:    event.OTPIssuedConsumerNotification,
			subject: event.OTPIssuedSubject,
			handler: h.OTPIssuedNotification,
		},
	}

	for _, c := range consumers {
		if err := routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", c.name)
			return consumer.Consume(pCtx, c.subject, c.handler,
				messaging.WithGroup(c.name),
				messaging.WithConcurrency(concurrency),
			)
		}); err != nil {
			return err
		}
	}

	return nil
}
