package messaging

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"
)

const memoryBuffer = 64

// Memory is an in-process broker. Every group (or each ungrouped consumer)
// receives each message once; members of a group take turns. Publish
// blocks while the receiving buffer is full.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	next   map[string]int
	closed bool
	done   chan struct{}
}

type memorySub struct {
	group string
	ch    chan *message
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		subs: map[string][]*memorySub{},
		next: map[string]int{},
		done: make(chan struct{}),
	}
}

// Close stops every consumer.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish delivers msg to the current consumers of subject. Messages
// published with no consumer are dropped.
func (m *Memory) Publish(ctx context.Context, subject string, msg Outgoing) error {
	if subject == "" {
		return ErrSubjectRequired
	}

	targets, err := m.targets(subject)
	if err != nil {
		return err
	}

	for _, sub := range targets {
		out := &message{
			subject:    subject,
			key:        msg.Key,
			body:       msg.Body,
			headers:    maps.Clone(withCorrelation(ctx, msg.Headers)),
			receivedAt: time.Now(),
		}

		select {
		case sub.ch <- out:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}
	return nil
}

func (m *Memory) targets(subject string) ([]*memorySub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	var out []*memorySub
	groups := map[string][]*memorySub{}
	for _, sub := range m.subs[subject] {
		if sub.group == "" {
			out = append(out, sub)
			continue
		}
		groups[sub.group] = append(groups[sub.group], sub)
	}

	for group, members := range groups {
		key := subject + "\x00" + group
		out = append(out, members[m.next[key]%len(members)])
		m.next[key]++
	}
	return out, nil
}

// Consume registers a consumer and handles messages until ctx is done or
// the broker is closed.
func (m *Memory) Consume(ctx context.Context, subject string, handler Handler, opts ...ConsumeOption) error {
	if subject == "" {
		return ErrSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	sub := &memorySub{group: co.group, ch: make(chan *message, memoryBuffer)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.subs[subject] = append(m.subs[subject], sub)
	m.mu.Unlock()

	defer m.unsubscribe(subject, sub)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-sub.ch:
					if err := dispatch(ctx, DriverMemory, handler, msg); err != nil {
						slog.ErrorContext(ctx, "memory handler failed", "subject", subject, "error", err)
					}
				}
			}
		})
	}
	wg.Wait()

	return nil
}

func (m *Memory) unsubscribe(subject string, sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[subject]
	for i, s := range subs {
		if s == sub {
			m.subs[subject] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (m *Memory) consumers(subject string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[subject])
}
