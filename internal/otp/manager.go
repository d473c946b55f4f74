package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/suraksha/alertwatch/internal/mailer"
)

// ErrBadDestination means the supplied email is empty or implausible.
var ErrBadDestination = errors.New("otp: implausible destination address")

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Manager keys one live Flow per destination address. A new issuance
// request for an address that already holds a live flow replaces it
// wholesale, so exactly one session exists per recovery attempt.
type Manager struct {
	mailer mailer.Mailer
	opts   []Option

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewManager(m mailer.Mailer, opts ...Option) *Manager {
	return &Manager{
		mailer: m,
		opts:   opts,
		flows:  make(map[string]*Flow),
	}
}

// Issue starts (or restarts) a recovery attempt for the address and
// dispatches the code. Delivery is fire-and-forget: a mail failure is
// logged, the session stays live.
func (m *Manager) Issue(ctx context.Context, email string) error {
	if !emailPattern.MatchString(email) {
		return ErrBadDestination
	}

	m.mu.Lock()
	flow, ok := m.flows[email]
	if !ok {
		flow = NewFlow(m.opts...)
		m.flows[email] = flow
	}
	m.mu.Unlock()

	code, err := flow.Issue()
	if err != nil {
		return fmt.Errorf("issuing code for %s: %w", email, err)
	}

	if err := m.mailer.Send(ctx, email, "Your password reset code",
		fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)); err != nil {
		slog.Error("otp delivery failed", "email", email, "error", err)
	}

	return nil
}

// Verify submits a code and password pair against the address's live
// flow.
func (m *Manager) Verify(email, code, newPassword, confirmPassword string) error {
	m.mu.Lock()
	flow, ok := m.flows[email]
	m.mu.Unlock()

	if !ok {
		return ErrNotIssued
	}
	return flow.Verify(code, newPassword, confirmPassword)
}

// Remaining returns the countdown value for the address's flow, or 0.
func (m *Manager) Remaining(email string) int {
	m.mu.Lock()
	flow, ok := m.flows[email]
	m.mu.Unlock()

	if !ok {
		return 0
	}
	return flow.Remaining()
}

// Close cancels every live flow and its countdown.
func (m *Manager) Close() {
	m.mu.Lock()
	flows := make([]*Flow, 0, len(m.flows))
	for _, f := range m.flows {
		flows = append(flows, f)
	}
	m.flows = make(map[string]*Flow)
	m.mu.Unlock()

	for _, f := range flows {
		f.Cancel()
	}
}
