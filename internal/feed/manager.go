package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/suraksha/alertwatch/internal/repository"
	"github.com/suraksha/alertwatch/internal/worker"
)

// Manager polls the external alert source on an interval and routes new
// records through the intake pool. Already-known IDs are skipped so the
// stored set is replaced by accretion, never patched in place.
type Manager struct {
	client   *Client
	repo     repository.AlertRepository
	pool     *worker.Pool
	interval time.Duration
	months   int
	wg       sync.WaitGroup
}

func NewManager(client *Client, repo repository.AlertRepository, pool *worker.Pool, interval time.Duration, months int) *Manager {
	return &Manager{
		client:   client,
		repo:     repo,
		pool:     pool,
		interval: interval,
		months:   months,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting feed poller", "interval", m.interval, "months", m.months)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("feed poller shutting down")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	slog.Debug("polling alert feed")

	alerts, err := m.client.Fetch(ctx, m.months)
	if err != nil {
		// Non-fatal: the dashboard keeps serving whatever is stored.
		slog.Error("feed poll failed", "error", err)
		return
	}

	submitted := 0
	for i := range alerts {
		a := alerts[i]
		exists, err := m.repo.Exists(ctx, a.ID)
		if err != nil {
			slog.Error("error checking existence", "id", a.ID, "error", err)
			continue
		}
		if exists {
			continue
		}
		m.pool.Submit(&a)
		submitted++
	}

	slog.Debug("poll complete", "fetched", len(alerts), "new", submitted)
}

func (m *Manager) Stop() {
	m.wg.Wait()
	slog.Info("feed manager stopped")
}
