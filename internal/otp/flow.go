package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var (
	// ErrNotIssued means no code has been requested yet.
	ErrNotIssued = errors.New("otp: no code issued")

	// ErrExpired means the code's window has elapsed; the caller must
	// request a fresh one.
	ErrExpired = errors.New("otp: code expired")

	// ErrAlreadyConsumed means the code was already used successfully.
	ErrAlreadyConsumed = errors.New("otp: code already consumed")

	// ErrCodeMismatch means the submitted code does not match. The
	// session stays live; the caller may retry.
	ErrCodeMismatch = errors.New("otp: code mismatch")

	// ErrValidation means the password pair was missing or mismatched.
	ErrValidation = errors.New("otp: invalid password fields")
)

type State int

const (
	StateIdle State = iota
	StateIssued
	StateVerified
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIssued:
		return "issued"
	case StateVerified:
		return "verified"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

const (
	// TTL is the lifetime of an issued code.
	TTL = 300 * time.Second

	codeDigits = 6
)

// Flow is the verification state machine for one recovery attempt:
// Idle -> Issued -> {Verified, Expired}, with Issued -> Issued on
// re-issue. At most one code is valid at any moment; the countdown
// owned by the Issued state is cancelled on every exit transition.
type Flow struct {
	mu        sync.Mutex
	state     State
	code      string
	issuedAt  time.Time
	remaining int
	gen       uint64 // bumped on every (re-)issue; stale countdowns see it and exit

	ttl  time.Duration
	tick time.Duration
	now  func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// Option adjusts flow timing, primarily for tests.
type Option func(*Flow)

// WithClock substitutes the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithTick sets the countdown granularity.
func WithTick(d time.Duration) Option {
	return func(f *Flow) { f.tick = d }
}

func NewFlow(opts ...Option) *Flow {
	f := &Flow{
		ttl:  TTL,
		tick: time.Second,
		now:  time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Issue generates a fresh 6-digit code and opens a new validity window.
// Issuing while a code is already live discards the previous code and
// its countdown; no two codes are ever concurrently valid. The code is
// returned to the caller for delivery.
func (f *Flow) Issue() (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}

	f.mu.Lock()
	f.cancelCountdownLocked()
	f.state = StateIssued
	f.code = code
	f.issuedAt = f.now()
	f.remaining = int(f.ttl / time.Second)
	f.gen++
	gen := f.gen
	f.stop = make(chan struct{})
	stop := f.stop
	f.mu.Unlock()

	f.wg.Add(1)
	go f.countdown(gen, stop)

	return code, nil
}

// countdown decrements the remaining-seconds observer once per tick
// while the flow stays in Issued. Reaching zero forces the Expired
// transition and clears the held code.
func (f *Flow) countdown(gen uint64, stop chan struct{}) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.gen != gen || f.state != StateIssued {
				f.mu.Unlock()
				return
			}
			f.remaining--
			if f.remaining <= 0 {
				f.expireLocked()
				f.mu.Unlock()
				return
			}
			f.mu.Unlock()
		}
	}
}

// Verify attempts the Issued -> Verified transition. The password pair
// is validated first (fail fast, before the code is even looked at);
// an elapsed window forces Expired; a wrong code leaves the session
// untouched. Success consumes the code: any later submission fails with
// ErrAlreadyConsumed.
func (f *Flow) Verify(code, newPassword, confirmPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateIdle:
		return ErrNotIssued
	case StateVerified:
		return ErrAlreadyConsumed
	case StateExpired:
		return ErrExpired
	}

	if newPassword == "" || confirmPassword == "" || newPassword != confirmPassword {
		return ErrValidation
	}

	if f.now().Sub(f.issuedAt) >= f.ttl {
		f.expireLocked()
		return ErrExpired
	}

	if code != f.code {
		return ErrCodeMismatch
	}

	f.state = StateVerified
	f.code = ""
	f.signalStopLocked()
	return nil
}

// State returns the current machine state, forcing the Expired
// transition if the window elapsed between ticks.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateIssued && f.now().Sub(f.issuedAt) >= f.ttl {
		f.expireLocked()
	}
	return f.state
}

// Remaining reports the countdown observer's current value in seconds.
func (f *Flow) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIssued {
		return 0
	}
	return f.remaining
}

// Cancel tears down the flow and any running countdown. Safe to call in
// any state.
func (f *Flow) Cancel() {
	f.mu.Lock()
	f.cancelCountdownLocked()
	f.state = StateExpired
	f.code = ""
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Flow) expireLocked() {
	f.state = StateExpired
	f.code = ""
	f.remaining = 0
	f.signalStopLocked()
}

func (f *Flow) cancelCountdownLocked() {
	f.gen++ // invalidate any countdown racing on the ticker
	f.signalStopLocked()
}

func (f *Flow) signalStopLocked() {
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
