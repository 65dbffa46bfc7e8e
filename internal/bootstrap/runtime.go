// Package bootstrap wires up process-level runtime dependencies.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"questhub/internal/cache"
	"questhub/internal/config"
	"questhub/internal/database"
	"questhub/internal/featureflags"
	"questhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoData bool
}

// InitRuntime connects to the database, applies schema policy, initializes
// Redis, and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		return nil, nil, fmt.Errorf("schema apply failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData {
		if err := seed.Seed(db, seed.Options{}); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ledgerReconciler is the slice of LedgerService the sweep needs.
type ledgerReconciler interface {
	ReconcileMissingIssuances(ctx context.Context, limit int) (int, error)
}

const reconcileBatchSize = 100

// StartReconciliation runs the periodic ledger repair sweep until ctx is
// cancelled. The sweep re-issues rewards for approved submissions whose
// best-effort issuance never landed. Gated by the ledger_reconciliation
// feature flag, evaluated each tick so the flag can be flipped live.
func StartReconciliation(ctx context.Context, cfg *config.Config, flags *featureflags.Manager, ledger ledgerReconciler) {
	interval := time.Duration(cfg.ReconcileIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !flags.Enabled("ledger_reconciliation", 0) {
					continue
				}
				repaired, err := ledger.ReconcileMissingIssuances(ctx, reconcileBatchSize)
				if err != nil {
					slog.ErrorContext(ctx, "ledger reconciliation sweep failed", "err", err)
					continue
				}
				if repaired > 0 {
					slog.InfoContext(ctx, "ledger reconciliation repaired issuances", "count", repaired)
				}
			}
		}
	}()
}
