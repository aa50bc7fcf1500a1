package intake

import (
	"context"
	"log/slog"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// PooledProcessor bounds the number of requests recorded at once
type PooledProcessor struct {
	base   Processor
	pool   *ants.Pool
	logger *slog.Logger
}

func NewPooledProcessor(base Processor, cfg *config.WorkerPoolConfig, logger *slog.Logger) (*PooledProcessor, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &PooledProcessor{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

// Process submits the request to the pool and waits for its result
func (p *PooledProcessor) Process(ctx context.Context, request *shared.PaymentRequest) error {
	logger := p.logger
	if request.CorrelationID != "" {
		logger = p.logger.With("correlation_id", request.CorrelationID)
	}

	result := make(chan error, 1)
	requestCopy := *request

	err := p.pool.Submit(func() {
		result <- p.base.Process(ctx, &requestCopy)
	})
	if err != nil {
		logger.Error("Failed to submit payment request to worker pool",
			"request_id", request.RequestID,
			"error", err,
		)
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool's workers
func (p *PooledProcessor) Shutdown() {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

func (p *PooledProcessor) Running() int {
	return p.pool.Running()
}

func (p *PooledProcessor) Capacity() int {
	return p.pool.Cap()
}
