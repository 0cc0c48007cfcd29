package market

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used to read markets.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectMarkets = `
SELECT address, name, program_id, deprecated
FROM serum_markets
ORDER BY created_at, address`

// LoadPostgres reads every row of the serum_markets table.
func LoadPostgres(ctx context.Context, db Querier) ([]Market, error) {
	rows, err := db.Query(ctx, selectMarkets)
	if err != nil {
		return nil, fmt.Errorf("query serum_markets: %w", err)
	}

	markets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Market, error) {
		var m Market
		if err := row.Scan(&m.Address, &m.Name, &m.ProgramID, &m.Deprecated); err != nil {
			return Market{}, err
		}
		m.Source = SourceDatabase
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan serum_markets: %w", err)
	}
	return markets, nil
}

// PostgresSource adapts a pool to the Source interface.
type PostgresSource struct {
	DB Querier
}

// LoadMarkets implements Source.
func (s PostgresSource) LoadMarkets(ctx context.Context) ([]Market, error) {
	return LoadPostgres(ctx, s.DB)
}
