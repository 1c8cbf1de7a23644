package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotFound signals a missing key in the store.
var ErrKeyNotFound = errors.New("key not found")

// Op identifies a store operation for error reporting.
type Op string

// Store operations.
const (
	OpGet      Op = "GET"
	OpSet      Op = "SET"
	OpSetNX    Op = "SETNX"
	OpDel      Op = "DEL"
	OpIncrBy   Op = "INCRBY"
	OpExpire   Op = "EXPIRE"
	OpSAdd     Op = "SADD"
	OpSMembers Op = "SMEMBERS"
	OpSearch   Op = "FT.SEARCH"
)

// Error wraps a store failure with the operation that caused it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("db %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Doc is a single document hit from an FT.SEARCH call.
type Doc struct {
	ID     string
	Score  float64
	Fields map[string]string
}

// Store is the storage contract consumed by repositories and retrieval
// adapters. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent. Returns true when the value
	// was written. This is the atomic get-or-set primitive for caches.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	// SearchText runs a BM25 full-text search over the given index.
	SearchText(ctx context.Context, index, query string, scope string, topK int) ([]Doc, error)
	// SearchKNN runs a vector similarity search over the given index.
	SearchKNN(ctx context.Context, index string, vector []float32, scope string, topK int) ([]Doc, error)

	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}
