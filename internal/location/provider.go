package location

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/suraksha/alertwatch/internal/models"
)

var (
	// ErrPermissionDenied means the client refused (or never granted)
	// access to its location.
	ErrPermissionDenied = errors.New("location: permission denied")

	// ErrUnavailable means no location capability is configured or the
	// lookup could not produce a position.
	ErrUnavailable = errors.New("location: unavailable")
)

// Source resolves a client address to a geographic position. It is the
// platform location capability; implementations are treated as
// untrusted and optional.
type Source interface {
	Locate(ctx context.Context, clientIP string) (models.Coordinate, error)
}

// Query describes one location request. Explicit coordinates (from a
// client that already resolved its own position) take precedence over
// the source lookup. Consent gates both paths.
type Query struct {
	ClientIP   string
	Consent    bool
	Coordinate *models.Coordinate
}

// Provider owns the single process-wide current location. It is the
// only writer; any number of readers may call Current concurrently and
// will observe either the previous or the new value, never a partial
// one.
type Provider struct {
	source Source

	mu      sync.RWMutex
	current *models.Coordinate
}

func NewProvider(source Source) *Provider {
	return &Provider{source: source}
}

// Request resolves the caller's location and publishes it as the
// current value. It fails with ErrPermissionDenied when consent is
// absent and ErrUnavailable when no usable source or position exists.
func (p *Provider) Request(ctx context.Context, q Query) (models.Coordinate, error) {
	if !q.Consent {
		return models.Coordinate{}, ErrPermissionDenied
	}

	if q.Coordinate != nil {
		if !q.Coordinate.Valid() {
			return models.Coordinate{}, fmt.Errorf("%w: coordinates out of range", ErrUnavailable)
		}
		p.publish(*q.Coordinate)
		return *q.Coordinate, nil
	}

	if p.source == nil {
		return models.Coordinate{}, ErrUnavailable
	}

	coord, err := p.source.Locate(ctx, q.ClientIP)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p.publish(coord)
	return coord, nil
}

func (p *Provider) publish(c models.Coordinate) {
	p.mu.Lock()
	p.current = &c
	p.mu.Unlock()
}

// Current returns the last successfully acquired location, if any.
func (p *Provider) Current() (models.Coordinate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return models.Coordinate{}, false
	}
	return *p.current, true
}
