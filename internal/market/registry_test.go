package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/serum-gateway/internal/config"
)

const (
	dexV3   = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	solUSDC = "9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT"
	btcUSDC = "A8YFbxQYFVqKZaoYJLLUVcQiWP7G2MeEgW5wsAQgMvFw"
	ethUSDC = "4tSvZvnbyzHXLMTiFonMyxZoHmFqau1XArcRCVHLZ5gX"
)

type fakeSource struct {
	mu      sync.Mutex
	markets []Market
	err     error
	calls   int
}

func (f *fakeSource) LoadMarkets(ctx context.Context) ([]Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Market(nil), f.markets...), nil
}

func (f *fakeSource) set(markets []Market, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markets = markets
	f.err = err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestBuiltin(t *testing.T) {
	markets, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if len(markets) == 0 {
		t.Fatal("no builtin markets")
	}
	for _, m := range markets {
		if err := validateMarket(m); err != nil {
			t.Errorf("builtin market %s: %v", m.Name, err)
		}
		if m.Source != SourceBuiltin {
			t.Errorf("Source = %q, want builtin", m.Source)
		}
	}
}

func TestRegistry_ActiveExcludesDeprecated(t *testing.T) {
	r, err := NewRegistry(Config{IncludeBuiltin: true}, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	all, _ := Builtin()
	var deprecated int
	for _, m := range all {
		if m.Deprecated {
			deprecated++
		}
	}
	if deprecated == 0 {
		t.Fatal("fixture needs at least one deprecated builtin market")
	}

	active := r.Active()
	if len(active) != len(all)-deprecated {
		t.Errorf("len(Active) = %d, want %d", len(active), len(all)-deprecated)
	}
	if active[0].Address != solUSDC || active[0].Name != "SOL/USDC" || active[0].ProgramID != dexV3 {
		t.Errorf("first market = %+v", active[0])
	}

	// Deprecated markets stay reachable by address.
	for _, m := range all {
		if !m.Deprecated {
			continue
		}
		got, ok := r.Get(m.Address)
		if !ok || !got.Deprecated {
			t.Errorf("Get(%s) = %+v, %v", m.Address, got, ok)
		}
	}
}

func TestRegistry_ConfigExtras(t *testing.T) {
	cfg := Config{
		IncludeBuiltin: false,
		Extra: []config.MarketConfig{
			{Address: btcUSDC, Name: "BTC/USDC", ProgramID: dexV3},
			{Address: ethUSDC, Name: "ETH/USDC", ProgramID: dexV3, Deprecated: true},
		},
	}
	r, err := NewRegistry(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	active := r.Active()
	if len(active) != 1 || active[0].Address != btcUSDC {
		t.Errorf("Active = %+v", active)
	}
	m, ok := r.Get(btcUSDC)
	if !ok || m.Source != SourceConfig {
		t.Errorf("Get = %+v, %v", m, ok)
	}
}

func TestRegistry_ConfigOverridesBuiltin(t *testing.T) {
	cfg := Config{
		IncludeBuiltin: true,
		Extra: []config.MarketConfig{
			{Address: solUSDC, Name: "SOL/USDC", ProgramID: dexV3, Deprecated: true},
		},
	}
	r, err := NewRegistry(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	for _, m := range r.Active() {
		if m.Address == solUSDC {
			t.Error("SOL/USDC should be hidden by the config override")
		}
	}
	builtin, _ := Builtin()
	if r.Len() != len(builtin) {
		t.Errorf("Len = %d, want %d (override must not duplicate)", r.Len(), len(builtin))
	}
}

func TestNewRegistry_InvalidExtra(t *testing.T) {
	cfg := Config{
		Extra: []config.MarketConfig{{Address: "not-base58!", Name: "BAD", ProgramID: dexV3}},
	}
	if _, err := NewRegistry(cfg, nil, nil); err == nil {
		t.Fatal("NewRegistry accepted an invalid address")
	}
}

func TestNewRegistry_ZeroAddress(t *testing.T) {
	const zero = "11111111111111111111111111111111"

	tests := []struct {
		name   string
		market config.MarketConfig
	}{
		{name: "zero market", market: config.MarketConfig{Address: zero, Name: "ZERO", ProgramID: dexV3}},
		{name: "zero program", market: config.MarketConfig{Address: ethUSDC, Name: "ETH/USDC", ProgramID: zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Extra: []config.MarketConfig{tt.market}}
			if _, err := NewRegistry(cfg, nil, nil); err == nil {
				t.Fatal("NewRegistry accepted the zero address")
			}
		})
	}
}

func TestRegistry_StartWithSource(t *testing.T) {
	src := &fakeSource{markets: []Market{
		{Address: ethUSDC, Name: "ETH/USDC", ProgramID: dexV3, Source: SourceDatabase},
		{Address: "garbage", Name: "BAD", ProgramID: dexV3, Source: SourceDatabase},
	}}
	r, err := NewRegistry(Config{}, src, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (invalid row skipped)", r.Len())
	}
	if m, ok := r.Get(ethUSDC); !ok || m.Source != SourceDatabase {
		t.Errorf("Get = %+v, %v", m, ok)
	}
}

func TestRegistry_StartFailsOnSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	r, err := NewRegistry(Config{IncludeBuiltin: true}, src, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded, want error")
	}
}

func TestRegistry_Reload(t *testing.T) {
	src := &fakeSource{}
	r, err := NewRegistry(Config{ReloadInterval: 10 * time.Millisecond}, src, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}

	src.set([]Market{{Address: btcUSDC, Name: "BTC/USDC", ProgramID: dexV3}}, nil)

	deadline := time.Now().Add(2 * time.Second)
	for r.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("reload did not pick up the new market")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A failing reload keeps the last good set.
	src.set(nil, errors.New("db down"))
	calls := src.callCount()
	for src.callCount() < calls+2 {
		if time.Now().After(deadline) {
			t.Fatal("reload loop stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d after failed reload, want 1", r.Len())
	}
}

func TestRegistry_StopWithoutStart(t *testing.T) {
	r, err := NewRegistry(Config{}, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if active := r.Active(); active == nil || len(active) != 0 {
		t.Errorf("Active = %v, want empty non-nil", active)
	}
}
