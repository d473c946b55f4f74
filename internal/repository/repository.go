package repository

import (
	"context"
	"time"

	"github.com/suraksha/alertwatch/internal/models"
)

// Filter narrows List results. The relevance pipeline re-filters the
// returned set in memory, so this only needs to bound the fetch window.
type Filter struct {
	Since *time.Time
	Limit int
}

type AlertRepository interface {
	Add(ctx context.Context, a *models.AlertRecord) error
	GetByID(ctx context.Context, id string) (*models.AlertRecord, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, opts Filter) ([]models.AlertRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
