package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// User-facing messages for failed remote checks. Query errors and
// transport errors are reported differently so the client can suggest
// a retry for the latter.
const (
	MsgCheckFailed  = "Failed to check username availability"
	MsgNetworkError = "Network error. Please try again."
)

// DefaultDebounce is how long input must be stable before a lookup fires.
const DefaultDebounce = 500 * time.Millisecond

// AvailabilityResult is a snapshot of the checker's state.
// Available is nil while neutral or undecided, true when the candidate
// is free, false when taken or invalid.
type AvailabilityResult struct {
	Candidate string
	Available *bool
	Checking  bool
	Err       string
}

// AvailabilityChecker debounces username availability lookups.
//
// Every call to Check supersedes the previous candidate: the pending
// debounce timer is stopped and any in-flight lookup is cancelled, so a
// stale response can never overwrite the state of a newer candidate.
// At most one lookup is issued per settled debounce window, and none at
// all when local validation already rejects the candidate.
type AvailabilityChecker struct {
	mu       sync.Mutex
	repo     SlugChecker
	debounce time.Duration
	logger   *zap.Logger

	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
	state  AvailabilityResult
}

// NewAvailabilityChecker builds a checker over the given lookup.
// A non-positive debounce falls back to DefaultDebounce.
func NewAvailabilityChecker(repo SlugChecker, debounce time.Duration, logger *zap.Logger) *AvailabilityChecker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &AvailabilityChecker{
		repo:     repo,
		debounce: debounce,
		logger:   logger,
	}
}

// Check feeds a new raw candidate into the checker. Validation runs
// synchronously; the remote lookup, if any, fires after the debounce
// window unless superseded by another Check or by Close.
func (c *AvailabilityChecker) Check(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()

	candidate := NormalizeUsername(raw)

	if candidate == "" {
		c.state = AvailabilityResult{}
		return
	}

	if _, err := ValidateUsername(candidate); err != nil {
		unavailable := false
		c.state = AvailabilityResult{
			Candidate: candidate,
			Available: &unavailable,
			Err:       err.Error(),
		}
		return
	}

	c.state = AvailabilityResult{
		Candidate: candidate,
		Checking:  true,
	}

	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.timer = time.AfterFunc(c.debounce, func() {
		c.lookup(ctx, gen, candidate)
	})
}

// State returns the current snapshot.
func (c *AvailabilityChecker) State() AvailabilityResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels any pending timer and in-flight lookup. Used on unmount;
// the checker must not be used afterwards.
func (c *AvailabilityChecker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
}

// supersedeLocked invalidates the pending timer, the in-flight lookup
// and every not-yet-applied result. Callers must hold c.mu.
func (c *AvailabilityChecker) supersedeLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *AvailabilityChecker) lookup(ctx context.Context, gen uint64, candidate string) {
	exists, err := c.repo.SlugExists(ctx, candidate)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer candidate won; this result must not touch state.
	if gen != c.gen || ctx.Err() != nil {
		return
	}

	if err != nil {
		c.logger.Error("availability lookup failed",
			zap.String("candidate", candidate),
			zap.Error(err),
		)
		msg := MsgCheckFailed
		if isTransportError(err) {
			msg = MsgNetworkError
		}
		c.state = AvailabilityResult{
			Candidate: candidate,
			Err:       msg,
		}
		return
	}

	available := !exists
	c.state = AvailabilityResult{
		Candidate: candidate,
		Available: &available,
	}
}

// isTransportError separates connectivity failures from well-formed
// query errors returned by the store.
func isTransportError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn)
}

// CheckUsernameNow runs the same validation and result mapping as the
// debounced checker, synchronously. The HTTP availability endpoint uses
// it directly; debouncing there is the caller's concern.
func CheckUsernameNow(ctx context.Context, repo SlugChecker, raw string) AvailabilityResult {
	candidate := NormalizeUsername(raw)
	if candidate == "" {
		return AvailabilityResult{}
	}
	if _, err := ValidateUsername(candidate); err != nil {
		unavailable := false
		return AvailabilityResult{Candidate: candidate, Available: &unavailable, Err: err.Error()}
	}

	exists, err := repo.SlugExists(ctx, candidate)
	if err != nil {
		msg := MsgCheckFailed
		if isTransportError(err) {
			msg = MsgNetworkError
		}
		return AvailabilityResult{Candidate: candidate, Err: msg}
	}

	available := !exists
	return AvailabilityResult{Candidate: candidate, Available: &available}
}
