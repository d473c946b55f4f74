package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/suraksha/alertwatch/internal/repository"
)

// Purger drops alert records that have aged out of the retention
// window. It runs on a cron schedule so stored data never grows past
// what any filter window can surface.
type Purger struct {
	repo      repository.AlertRepository
	retention time.Duration
	cron      *cron.Cron
}

func NewPurger(repo repository.AlertRepository, retentionMonths int) *Purger {
	return &Purger{
		repo:      repo,
		retention: time.Duration(retentionMonths) * 30 * 24 * time.Hour,
		cron:      cron.New(),
	}
}

// Start registers the nightly purge and launches the cron runner.
func (p *Purger) Start() error {
	_, err := p.cron.AddFunc("@daily", p.purge)
	if err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

func (p *Purger) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-p.retention)
	n, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention purge failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("purged aged-out alerts", "count", n, "cutoff", cutoff)
	}
}

// Stop halts the cron runner and waits for any in-flight purge.
func (p *Purger) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}
