package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/pkg/resp"
)

// Store defines the storage interface the executor runs commands against.
type Store interface {
	// Get returns the value at key, or false if it is absent or expired.
	Get(ctx context.Context, key []byte) ([]byte, bool)

	// Set stores value at key and clears any expiry.
	Set(ctx context.Context, key, value []byte)

	// SetWithExpiry stores value at key, expiring ttl from now.
	SetWithExpiry(ctx context.Context, key, value []byte, ttl time.Duration)

	// ConfigGet returns a startup configuration parameter.
	// It fails with domain.ErrConfigParamNotFound for unknown names and
	// domain.ErrConfigUnavailable when no configuration was supplied.
	ConfigGet(ctx context.Context, name string) (string, error)
}

// Reply messages.
const (
	replyPong = "PONG"
	replyOK   = "OK"
)

// maxTTLMillis is the largest TTL representable as a time.Duration.
const maxTTLMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

// Executor applies commands to a Store.
type Executor struct {
	store Store
}

// NewExecutor creates an executor over store.
func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// Execute runs cmd and returns the reply to send to the client. It never
// fails: every outcome, including invalid commands, is a reply value.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command) resp.Value {
	switch c := cmd.(type) {
	case domain.Ping:
		return resp.SimpleString(replyPong)

	case domain.Echo:
		return resp.BulkString(c.Payload)

	case domain.Get:
		v, ok := e.store.Get(ctx, c.Key)
		if !ok {
			return resp.Null()
		}
		return resp.BulkString(v)

	case domain.Set:
		e.store.Set(ctx, c.Key, c.Value)
		return resp.SimpleString(replyOK)

	case domain.SetWithExpiry:
		e.store.SetWithExpiry(ctx, c.Key, c.Value, TTLFromMillis(c.TTLMillis))
		return resp.SimpleString(replyOK)

	case domain.ConfigGet:
		return e.configGet(ctx, c)

	case domain.Invalid:
		return resp.Error(c.Reason)

	default:
		return resp.Error(domain.ErrInternal.Reply)
	}
}

func (e *Executor) configGet(ctx context.Context, c domain.ConfigGet) resp.Value {
	v, err := e.store.ConfigGet(ctx, string(c.Param))
	switch {
	case err == nil:
		return resp.Array(resp.BulkString(c.Param), resp.Bulk(v))
	case errors.Is(err, domain.ErrConfigParamNotFound):
		return resp.Null()
	default:
		return resp.Error(domain.ReplyFor(err))
	}
}

// TTLFromMillis converts a millisecond count to a Duration, saturating at
// the largest representable Duration.
func TTLFromMillis(ms uint64) time.Duration {
	if ms > maxTTLMillis {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}
