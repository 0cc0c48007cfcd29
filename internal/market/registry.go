package market

import (
	"context"

	"github.com/rickgao/serum-gateway/internal/model"
)

// Market sources.
const (
	SourceBuiltin  = "builtin"
	SourceConfig   = "config"
	SourceDatabase = "database"
)

// Market is a known Serum market.
type Market struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	ProgramID  string `json:"programId"`
	Deprecated bool   `json:"deprecated"`
	Source     string `json:"-"`
}

// Info projects the market to its public form.
func (m Market) Info() model.MarketInfo {
	return model.MarketInfo{
		Address:   m.Address,
		Name:      m.Name,
		ProgramID: m.ProgramID,
	}
}

// Source loads markets from an external store.
type Source interface {
	LoadMarkets(ctx context.Context) ([]Market, error)
}

// Registry tracks known markets.
type Registry interface {
	// Start performs the initial load and begins background reloads.
	Start(ctx context.Context) error

	// Stop halts background reloads.
	Stop(ctx context.Context) error

	// Active returns the non-deprecated markets in registry order.
	Active() []model.MarketInfo

	// Get returns a market by address, deprecated or not.
	Get(address string) (Market, bool)

	// Len returns the number of known markets.
	Len() int
}
