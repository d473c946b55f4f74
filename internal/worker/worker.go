package worker

import (
	"context"
	"sync"

	"github.com/suraksha/alertwatch/internal/models"
)

// ProcessFunc handles one alert record pulled off the intake queue.
type ProcessFunc func(ctx context.Context, alert *models.AlertRecord) error

// Pool is the report intake pool: submitted and ingested alert records
// queue here and a fixed set of workers persists and dispatches them.
type Pool struct {
	numWorkers int
	queue      chan *models.AlertRecord
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, bufferSize int, processor ProcessFunc) *Pool {
	return &Pool{
		numWorkers: numWorkers,
		queue:      make(chan *models.AlertRecord, bufferSize),
		processor:  processor,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-p.queue:
			if !ok {
				return
			}
			p.processor(ctx, alert)
		}
	}
}

func (p *Pool) Submit(alert *models.AlertRecord) {
	p.queue <- alert
}

func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}
