// This file wraps filesystem writes with bounded exponential-backoff retry.
// Only transient lock/sharing/permission conflicts are retried; anything
// else fails on the first attempt. The last error always propagates
// unwrapped so callers can still distinguish failure classes.

package retryio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a retry schedule: up to MaxAttempts tries, the first
// delay being BaseDelay and each subsequent delay doubling.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy matches the configuration defaults.
var DefaultPolicy = Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond}

// Classifier decides whether an error is worth retrying.
type Classifier func(error) bool

// IsTransient reports whether err looks like a lock, sharing or permission
// conflict that tends to clear on its own (antivirus scanners, editors
// holding the file, NFS lease churn).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY) {
		return true
	}
	// Windows reports sharing violations through wrapped message text.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sharing violation") ||
		strings.Contains(msg, "used by another process") ||
		strings.Contains(msg, "resource temporarily unavailable")
}

// Do runs op under the given policy, retrying only errors the classifier
// accepts. The timer is injectable so the doubling schedule is testable
// without real sleeps; pass nil for the default timer.
func Do(ctx context.Context, op func() error, classify Classifier, policy Policy, timer backoff.Timer) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !classify(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = policy.BaseDelay << uint(policy.MaxAttempts)
	bo.MaxElapsedTime = 0 // attempts, not wall time, bound the loop

	withRetries := backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(policy.MaxAttempts-1))
	err := backoff.RetryNotifyWithTimer(wrapped, withRetries, nil, timer)

	// backoff.Permanent wraps the original; unwrap so the caller sees the
	// underlying error type, not a generic retry wrapper.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// WriteFile writes data to path through the retry policy, creating parent
// directories first. The destination is written atomically via a temp file
// rename so readers never observe a half-written artifact.
func WriteFile(ctx context.Context, path string, data []byte, policy Policy) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return Do(ctx, func() error {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, path)
	}, IsTransient, policy, nil)
}
