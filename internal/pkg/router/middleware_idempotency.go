package router

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/idempotency"
)

// HeaderIdempotencyKey is the client supplied deduplication key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplayed marks a response served from the idempotency store.
const HeaderIdempotentReplayed = "Idempotent-Replayed"

const (
	idempotencyLock      = 30 * time.Second
	defaultIdempotentTTL = 24 * time.Hour
	maxIdempotencyKeyLen = 255
)

// Idempotent deduplicates requests carrying an Idempotency-Key header.
// Requests without the header, or a router without a store, pass through.
// Responses with a 5xx status are not stored so the client can retry. A key
// reused with a different body is refused with 422.
func (r *Router) Idempotent() Middleware {
	return func(next http.Handler) http.Handler {
		if r.idem == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if key == "" {
				next.ServeHTTP(w, req)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeJSON(w, errorResponse{Message: "Idempotency-Key is too long"}, http.StatusBadRequest)
				return
			}

			ctx := req.Context()
			scoped := req.Method + ":" + matchedRoutePath(req) + ":" + key
			fingerprint := bodyFingerprint(req)

			stored, err := r.idem.Acquire(ctx, scoped, idempotencyLock)
			switch {
			case errors.Is(err, idempotency.ErrAlreadyInProgress):
				writeJSON(w, errorResponse{Message: "A request with this Idempotency-Key is in progress"}, http.StatusConflict)
				return
			case err != nil:
				slog.WarnContext(ctx, "idempotency store unavailable, serving request without it", "error", err)
				next.ServeHTTP(w, req)
				return
			case stored != nil && stored.Fingerprint != "" && stored.Fingerprint != fingerprint:
				writeJSON(w, errorResponse{Message: "Idempotency-Key was already used with a different request body"}, http.StatusUnprocessableEntity)
				return
			case stored != nil:
				w.Header().Set("Content-Type", stored.ContentType)
				w.Header().Set(HeaderIdempotentReplayed, "true")
				w.WriteHeader(stored.Status)
				//nolint:errcheck // client went away
				w.Write(stored.Body)
				return
			}

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, req)

			// The request context may already be canceled once the client got
			// its response; bookkeeping must still happen.
			bg := context.WithoutCancel(ctx)
			if rec.Status() >= http.StatusInternalServerError || rec.capped {
				if err := r.idem.Release(bg, scoped); err != nil {
					slog.WarnContext(ctx, "failed to release idempotency key", "error", err)
				}
				return
			}

			if err := r.idem.Complete(bg, scoped, idempotency.Response{
				Status:      rec.Status(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				Fingerprint: fingerprint,
			}, r.idempotentTTL()); err != nil {
				slog.WarnContext(ctx, "failed to store idempotent response", "error", err)
			}
		})
	}
}

func (r *Router) idempotentTTL() time.Duration {
	if r.cfg == nil {
		return defaultIdempotentTTL
	}
	if ttl := r.cfg.GetMinute("idempotency.ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultIdempotentTTL
}

// bodyFingerprint hashes the request body and puts it back for the handler.
// Bodies over maxBodyBytes are hashed up to the limit; the handler rejects them.
func bodyFingerprint(req *http.Request) string {
	h := sha256.New()
	if req.Body != nil && req.Body != http.NoBody {
		//nolint:errcheck // a short read only weakens the fingerprint
		raw, _ := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
		req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), req.Body))
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil))
}
