package messaging

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/authotp/internal/pkg/stacktrace"
)

func dispatch(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	ctx = handlerContext(ctx, msg)

	defer func() {
		if rvr := recover(); rvr != nil {
			stacktrace.LogPanic(ctx, "panic in messaging handler", rvr, "driver", driver, "subject", msg.Subject())
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return handler(ctx, msg)
}
