// Package jobs holds maintenance jobs run by the background worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/repository"
	"github.com/dukerupert/bespoke/internal/service"
	"github.com/dukerupert/bespoke/internal/telemetry"
)

// JobTypeReleaseExpiredHolds names the cart hold expiry job in logs.
const JobTypeReleaseExpiredHolds = "cleanup:expired_cart_holds"

const defaultBatchSize = 100

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(q repository.Querier) error) error
}

// HoldSweeperConfig configures the cart hold expiry job.
type HoldSweeperConfig struct {
	// TTL is how long a cart may sit untouched before its held stock is
	// released and its lines deleted.
	TTL time.Duration

	// BatchSize caps the lines handled per transaction.
	BatchSize int
}

// CleanupResult holds the result of one sweep
type CleanupResult struct {
	LinesExpired  int   `json:"lines_expired"`
	UnitsReleased int   `json:"units_released"`
	CartsDeleted  int64 `json:"carts_deleted"`
}

// HoldSweeper releases stock held by abandoned carts.
type HoldSweeper struct {
	store   TxRunner
	config  HoldSweeperConfig
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewHoldSweeper creates a sweeper over store.
func NewHoldSweeper(store TxRunner, config HoldSweeperConfig, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *HoldSweeper {
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HoldSweeper{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Run sweeps carts idle since now minus the TTL. Each batch commits on its
// own; a failed batch rolls back without touching the ones before it.
func (s *HoldSweeper) Run(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{}
	if s.config.TTL <= 0 {
		return result, nil
	}
	cutoff := postgres.Timestamptz(s.now().Add(-s.config.TTL))

	for {
		lines, units, err := s.sweepBatch(ctx, cutoff)
		if err != nil {
			return result, err
		}
		result.LinesExpired += lines
		result.UnitsReleased += units
		if lines < s.config.BatchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		n, err := q.DeleteEmptyCarts(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete empty carts: %w", err)
		}
		result.CartsDeleted = n
		return nil
	})
	if err != nil {
		return result, err
	}

	if result.LinesExpired > 0 || result.CartsDeleted > 0 {
		s.logger.Info("expired cart holds released",
			"job_type", JobTypeReleaseExpiredHolds,
			"lines", result.LinesExpired,
			"units", result.UnitsReleased,
			"carts_deleted", result.CartsDeleted,
		)
	}
	return result, nil
}

func (s *HoldSweeper) sweepBatch(ctx context.Context, cutoff pgtype.Timestamptz) (lines, units int, err error) {
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		lines, units = 0, 0

		stale, err := q.ListStaleCartLines(ctx, repository.ListStaleCartLinesParams{
			Cutoff:    cutoff,
			BatchSize: int32(s.config.BatchSize),
		})
		if err != nil {
			return fmt.Errorf("failed to list stale cart lines: %w", err)
		}

		ledger := service.NewInventoryLedger(q)
		for _, line := range stale {
			productID, err := postgres.FromUUID(line.ProductID)
			if err != nil {
				return fmt.Errorf("failed to read cart line product: %w", err)
			}
			if err := ledger.Release(ctx, productID, int(line.ReservedQuantity)); err != nil {
				return err
			}
			if _, err := q.DeleteCartLine(ctx, repository.DeleteCartLineParams{
				CartID:    line.CartID,
				ProductID: line.ProductID,
				Size:      line.Size,
			}); err != nil {
				return fmt.Errorf("failed to delete cart line: %w", err)
			}
			lines++
			units += int(line.ReservedQuantity)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.metrics.RecordCartLinesExpired(lines)
	s.metrics.RecordStockReleased("hold_expired", units)
	return lines, units, nil
}
