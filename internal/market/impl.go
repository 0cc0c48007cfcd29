package market

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/serum-gateway/internal/config"
	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/serum"
)

// Config holds Market Registry configuration.
type Config struct {
	IncludeBuiltin bool
	Extra          []config.MarketConfig
	ReloadInterval time.Duration // 0 disables background reloads
}

// ConfigFrom builds a registry Config from the gateway config section.
func ConfigFrom(cfg config.MarketsConfig) Config {
	return Config{
		IncludeBuiltin: cfg.IncludeBuiltin,
		Extra:          cfg.Extra,
		ReloadInterval: cfg.ReloadInterval,
	}
}

// registryImpl implements the Registry interface.
type registryImpl struct {
	cfg    Config
	source Source
	logger *slog.Logger

	static []Market

	mu      sync.RWMutex
	ordered []Market
	index   map[string]int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a Market Registry. source may be nil, in which case
// the registry holds only built-in and configured markets.
func NewRegistry(cfg Config, source Source, logger *slog.Logger) (Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var static []Market
	if cfg.IncludeBuiltin {
		builtin, err := Builtin()
		if err != nil {
			return nil, err
		}
		static = append(static, builtin...)
	}
	for _, mc := range cfg.Extra {
		static = append(static, Market{
			Address:    mc.Address,
			Name:       mc.Name,
			ProgramID:  mc.ProgramID,
			Deprecated: mc.Deprecated,
			Source:     SourceConfig,
		})
	}
	for _, m := range static {
		if err := validateMarket(m); err != nil {
			return nil, err
		}
	}

	r := &registryImpl{
		cfg:    cfg,
		source: source,
		logger: logger,
		static: static,
	}
	r.rebuild(nil)
	return r, nil
}

func validateMarket(m Market) error {
	addr, err := serum.ParsePublicKey(m.Address)
	if err != nil {
		return fmt.Errorf("market %q (%s): %w", m.Name, m.Source, err)
	}
	program, err := serum.ParsePublicKey(m.ProgramID)
	if err != nil {
		return fmt.Errorf("market %q (%s) program: %w", m.Name, m.Source, err)
	}
	// The all-zero key is the system program, never a market or a DEX.
	if addr.IsZero() || program.IsZero() {
		return fmt.Errorf("market %q (%s): zero address", m.Name, m.Source)
	}
	return nil
}

// Start loads the database source, if any, and begins periodic reloads.
func (r *registryImpl) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	if r.source != nil {
		// Initial sync (blocking).
		if err := r.sync(r.ctx); err != nil {
			r.cancel()
			return err
		}

		if r.cfg.ReloadInterval > 0 {
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.reloadLoop(r.ctx)
			}()
		}
	}

	r.logger.Info("market registry started",
		"active_markets", len(r.Active()),
		"total_markets", r.Len(),
	)

	return nil
}

// Stop gracefully shuts down.
func (r *registryImpl) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("market registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns all non-deprecated markets.
func (r *registryImpl) Active() []model.MarketInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.MarketInfo, 0, len(r.ordered))
	for _, m := range r.ordered {
		if !m.Deprecated {
			out = append(out, m.Info())
		}
	}
	return out
}

// Get returns a specific market by address.
func (r *registryImpl) Get(address string) (Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[address]
	if !ok {
		return Market{}, false
	}
	return r.ordered[i], true
}

// Len returns the number of known markets.
func (r *registryImpl) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// rebuild merges static markets with dynamic ones. A market seen again
// keeps its first position but takes the later fields.
func (r *registryImpl) rebuild(dynamic []Market) {
	ordered := make([]Market, 0, len(r.static)+len(dynamic))
	index := make(map[string]int, len(r.static)+len(dynamic))

	add := func(m Market) {
		if i, ok := index[m.Address]; ok {
			ordered[i] = m
			return
		}
		index[m.Address] = len(ordered)
		ordered = append(ordered, m)
	}
	for _, m := range r.static {
		add(m)
	}
	for _, m := range dynamic {
		add(m)
	}

	r.mu.Lock()
	r.ordered = ordered
	r.index = index
	r.mu.Unlock()
}
