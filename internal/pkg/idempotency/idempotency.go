// Package idempotency deduplicates requests keyed by a client supplied key.
//
// The first request for a key takes a short lock, runs, and stores its
// response; repeats while the lock is held are refused, repeats after
// completion get the stored response back.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress is returned by Acquire while another request holds the key.
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	// ErrInvalidState is returned when the stored value cannot be decoded.
	ErrInvalidState = errors.New("idempotency: invalid state")
)

const (
	stateInProgress = "in_progress"
	keyPrefix       = "idempotency:"
)

// Response is the stored outcome of a completed request. Fingerprint
// identifies the request body that produced it.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Store tracks request keys.
type Store interface {
	// Acquire locks key for lock. It returns (nil, nil) when the caller now
	// owns the key, the stored response when the key already completed, or
	// ErrAlreadyInProgress.
	Acquire(ctx context.Context, key string, lock time.Duration) (*Response, error)
	// Complete stores resp under key for ttl.
	Complete(ctx context.Context, key string, resp Response, ttl time.Duration) error
	// Release drops the lock so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Redis implements Store on go-redis.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis returns a Redis backed Store.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Acquire implements Store.
func (r *Redis) Acquire(ctx context.Context, key string, lock time.Duration) (*Response, error) {
	fk := keyPrefix + key

	// A key that expires between SETNX and GET is retried once.
	for range 2 {
		acquired, err := r.client.SetNX(ctx, fk, stateInProgress, lock).Result()
		if err != nil {
			return nil, fmt.Errorf("idempotency: setnx: %w", err)
		}
		if acquired {
			return nil, nil
		}

		raw, err := r.client.Get(ctx, fk).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("idempotency: get: %w", err)
		}

		if string(raw) == stateInProgress {
			return nil, ErrAlreadyInProgress
		}

		var resp Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, ErrInvalidState
		}
		return &resp, nil
	}

	return nil, ErrAlreadyInProgress
}

// Complete implements Store.
func (r *Redis) Complete(ctx context.Context, key string, resp Response, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("idempotency: encode: %w", err)
	}
	return r.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

// Release implements Store.
func (r *Redis) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
