package instrument

import "context"

// CorrelationIDHeader carries the correlation id on HTTP requests and broker messages.
const CorrelationIDHeader = "X-Correlation-ID"

type correlationIDKey struct{}

// SetCorrelationID stores id in ctx.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the id stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
