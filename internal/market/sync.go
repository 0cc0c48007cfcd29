package market

import (
	"context"
	"fmt"
	"time"
)

// sync loads the dynamic source and swaps it into the registry. Rows with
// an invalid address are skipped with a warning.
func (r *registryImpl) sync(ctx context.Context) error {
	start := time.Now()

	loaded, err := r.source.LoadMarkets(ctx)
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}

	valid := loaded[:0:0]
	for _, m := range loaded {
		if err := validateMarket(m); err != nil {
			r.logger.Warn("skipping invalid market", "address", m.Address, "err", err)
			continue
		}
		valid = append(valid, m)
	}

	before := r.Len()
	r.rebuild(valid)

	r.logger.Debug("market sync complete",
		"loaded", len(valid),
		"skipped", len(loaded)-len(valid),
		"total_markets", r.Len(),
		"previous_total", before,
		"duration", time.Since(start),
	)

	return nil
}

// reloadLoop periodically re-reads the source.
func (r *registryImpl) reloadLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sync(ctx); err != nil {
				// Keep serving the last good set.
				r.logger.Error("market reload failed", "err", err)
			}
		}
	}
}
