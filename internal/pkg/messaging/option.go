package messaging

type consumeOptions struct {
	concurrency int
	group       string
}

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets how many handler goroutines run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup sets the consumer group. It maps to a Kafka consumer group and a
// NATS queue group: each message is handled by one member of the group.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}
