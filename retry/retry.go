// Package retry runs fallible remote calls with exponential backoff and jitter.
//
// The delay before the retry that follows a failed attempt i (zero based) is
//
//	2^i * BaseDelay + U[0, JitterMax)
//
// so with the default policy the waits are roughly 1s, 2s, 4s and 8s plus up
// to a second of jitter each. The error from the final attempt is returned
// unchanged so callers can classify it with errors.As.
//
//	inv := retry.New(retry.DefaultPolicy(), retry.WithRetryIf(authpage.IsRetryable))
//	sess, err := retry.Call(ctx, inv, func(ctx context.Context) (*authpage.Session, error) {
//	    return provider.Authenticate(ctx, email, password)
//	})
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Default policy values
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 1 * time.Second
	DefaultJitterMax   = 1 * time.Second
)

// maxShift caps the exponent so the backoff never overflows a Duration
const maxShift = 30

// Policy is the immutable backoff configuration
type Policy struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
	JitterMax   time.Duration `json:"jitter_max"`
}

// DefaultPolicy returns 5 attempts with a 1s base and up to 1s of jitter
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		JitterMax:   DefaultJitterMax,
	}
}

// Attempts returns the effective attempt ceiling (at least one)
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Backoff returns the deterministic part of the wait after failed attempt i
func (p Policy) Backoff(i int) time.Duration {
	if i < 0 {
		i = 0
	}
	if i > maxShift {
		i = maxShift
	}
	return p.BaseDelay * time.Duration(1<<uint(i))
}

// Delay returns the full wait after failed attempt i using the shared jitter source
func (p Policy) Delay(i int) time.Duration {
	return p.Backoff(i) + defaultJitter(p.JitterMax)
}

var (
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// defaultJitter draws uniformly from [0, max)
func defaultJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	randMu.Lock()
	defer randMu.Unlock()
	return time.Duration(randSource.Int63n(int64(max)))
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Option configures an Invoker
type Option func(*Invoker)

// WithRetryIf sets the classifier. Errors for which fn returns false are
// returned after a single attempt.
func WithRetryIf(fn func(error) bool) Option {
	return func(inv *Invoker) {
		inv.retryIf = fn
	}
}

// WithSleep replaces the backoff wait, mainly for tests
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(inv *Invoker) {
		if fn != nil {
			inv.sleep = fn
		}
	}
}

// WithJitter replaces the jitter source. fn receives JitterMax.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(inv *Invoker) {
		if fn != nil {
			inv.jitter = fn
		}
	}
}

// WithLogger sets the logger used for retry and exhaustion messages
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) {
		if logger != nil {
			inv.logger = logger
		}
	}
}

// Invoker executes operations under a Policy. It holds no per-call state and
// is safe for concurrent use.
type Invoker struct {
	policy  Policy
	retryIf func(error) bool
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func(max time.Duration) time.Duration
	logger  *slog.Logger
}

// New creates an Invoker for the given policy
func New(policy Policy, opts ...Option) *Invoker {
	inv := &Invoker{
		policy: policy,
		sleep:  sleepContext,
		jitter: defaultJitter,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Policy returns the invoker's policy
func (inv *Invoker) Policy() Policy {
	return inv.policy
}

// Do runs op until it succeeds, the classifier rejects its error, the
// attempt ceiling is reached or ctx is cancelled during a backoff wait.
func (inv *Invoker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := inv.policy.Attempts()

	for i := 0; i < attempts; i++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if inv.retryIf != nil && !inv.retryIf(err) {
			return err
		}

		if i == attempts-1 {
			inv.logger.Error("operation failed after retries", "attempts", attempts, "error", err)
			return err
		}

		delay := inv.policy.Backoff(i) + inv.jitter(inv.policy.JitterMax)
		inv.logger.Debug("retrying operation", "attempt", i+1, "delay", delay, "error", err)

		if serr := inv.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", i+2, errors.Join(serr, err))
		}
	}

	// unreachable: the loop always returns on its last iteration
	return nil
}

// Call is Do for operations that produce a value
func Call[T any](ctx context.Context, inv *Invoker, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := inv.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = op(ctx)
		return innerErr
	})
	return result, err
}
