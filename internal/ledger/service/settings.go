package service

import (
	"context"
	"time"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/facebookgo/clock"
)

// Settings holds the ledger behaviour shared by the services
type Settings struct {
	Location         *time.Location
	OperationTimeout time.Duration
	DefaultPageSize  int
	MaxPageSize      int
}

// NewSettings derives service settings from configuration
func NewSettings(cfg *config.LedgerConfig) Settings {
	return Settings{
		Location:         cfg.Location(),
		OperationTimeout: cfg.OperationTimeout,
		DefaultPageSize:  cfg.DefaultPageSize,
		MaxPageSize:      cfg.MaxPageSize,
	}
}

func (s Settings) today(clk clock.Clock) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return shared.DateOf(clk.Now(), loc)
}

func (s Settings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.OperationTimeout)
}

func (s Settings) pageSize(requested int) int {
	if requested <= 0 {
		return s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && requested > s.MaxPageSize {
		return s.MaxPageSize
	}
	return requested
}
