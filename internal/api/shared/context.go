package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"
)

type traceIDKey struct{}

// TraceIDLength is the number of random bytes in a trace ID (32 hex characters).
const TraceIDLength = 16

// TraceIDHeader echoes the trace ID back to clients.
const TraceIDHeader = "X-Trace-Id"

var fallbackCounter atomic.Uint64

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// SetTraceID returns a copy of ctx carrying a freshly generated trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// GetTraceID returns the trace ID in ctx, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey{}).(string)
	return traceID
}

// NewTraceID returns a random 32-character hex ID. If the system random
// source fails it falls back to a time and counter based ID, which is still
// unique within the process.
func NewTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func fallbackTraceID() string {
	id := strconv.FormatInt(time.Now().UnixNano(), 16) + strconv.FormatUint(fallbackCounter.Add(1), 16)
	for len(id) < TraceIDLength*2 {
		id = "0" + id
	}
	return id[len(id)-TraceIDLength*2:]
}
