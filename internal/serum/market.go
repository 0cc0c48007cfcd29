package serum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rickgao/serum-gateway/internal/ledger"
)

// AccountLoader reads raw accounts from the ledger. *ledger.Client
// satisfies it.
type AccountLoader interface {
	GetAccountInfo(ctx context.Context, address string) (*ledger.Account, error)
	GetMultipleAccounts(ctx context.Context, addresses []string) ([]*ledger.Account, error)
}

// Options controls how a market is loaded.
type Options struct {
	// SkipOwnerCheck accepts a market account not owned by the program id.
	SkipOwnerCheck bool

	// KnownDecimals short-circuits mint lookups for these mints.
	KnownDecimals map[PublicKey]uint8
}

// DefaultOptions returns the options used by the gateway handlers.
func DefaultOptions() Options {
	return Options{
		KnownDecimals: map[PublicKey]uint8{
			WrappedSOLMint: 9,
		},
	}
}

// Market is a decoded market state plus the decimals of its two mints.
type Market struct {
	address       PublicKey
	programID     PublicKey
	state         *marketState
	baseDecimals  uint8
	quoteDecimals uint8
}

// LoadMarket fetches and decodes a market and its mint decimals.
func LoadMarket(ctx context.Context, conn AccountLoader, address, programID PublicKey, opts Options) (*Market, error) {
	acct, err := conn.GetAccountInfo(ctx, address.String())
	if err != nil {
		return nil, fmt.Errorf("load market %s: %w", address, err)
	}

	if !opts.SkipOwnerCheck && acct.Owner != programID.String() {
		return nil, fmt.Errorf("%w: %s is owned by %s, not %s", ErrProgramMismatch, address, acct.Owner, programID)
	}

	state, err := decodeMarketState(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("decode market %s: %w", address, err)
	}

	m := &Market{
		address:   address,
		programID: programID,
		state:     state,
	}

	decimals, err := mintDecimals(ctx, conn, opts.KnownDecimals, state.BaseMint, state.QuoteMint)
	if err != nil {
		return nil, fmt.Errorf("load market %s: %w", address, err)
	}
	m.baseDecimals, m.quoteDecimals = decimals[0], decimals[1]

	return m, nil
}

// mintDecimals resolves decimals for each mint, fetching only the unknown
// ones in a single round trip.
func mintDecimals(ctx context.Context, conn AccountLoader, known map[PublicKey]uint8, mints ...PublicKey) ([]uint8, error) {
	out := make([]uint8, len(mints))
	var fetch []string
	var slots []int
	for i, mint := range mints {
		if d, ok := known[mint]; ok {
			out[i] = d
			continue
		}
		fetch = append(fetch, mint.String())
		slots = append(slots, i)
	}
	if len(fetch) == 0 {
		return out, nil
	}

	accts, err := conn.GetMultipleAccounts(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("load mints: %w", err)
	}
	if len(accts) != len(fetch) {
		return nil, fmt.Errorf("load mints: got %d accounts for %d mints", len(accts), len(fetch))
	}
	for j, acct := range accts {
		if acct == nil {
			return nil, fmt.Errorf("mint %s: %w", fetch[j], ledger.ErrAccountNotFound)
		}
		d, err := decodeMintDecimals(acct.Data)
		if err != nil {
			return nil, fmt.Errorf("mint %s: %w", fetch[j], err)
		}
		out[slots[j]] = d
	}
	return out, nil
}

// Address returns the market account address.
func (m *Market) Address() PublicKey { return m.address }

// ProgramID returns the DEX program the market belongs to.
func (m *Market) ProgramID() PublicKey { return m.programID }

func (m *Market) BaseMint() PublicKey { return m.state.BaseMint }
func (m *Market) QuoteMint() PublicKey { return m.state.QuoteMint }
func (m *Market) BidsAddress() PublicKey { return m.state.Bids }
func (m *Market) AsksAddress() PublicKey { return m.state.Asks }
func (m *Market) BaseDecimals() uint8 { return m.baseDecimals }
func (m *Market) QuoteDecimals() uint8 { return m.quoteDecimals }
func (m *Market) BaseLotSize() uint64 { return m.state.BaseLotSize }
func (m *Market) QuoteLotSize() uint64 { return m.state.QuoteLotSize }

// TickSize is the price of one price lot.
func (m *Market) TickSize() decimal.Decimal {
	return m.PriceLotsToDecimal(1)
}

// PriceLotsToDecimal converts a price in lots to a quote-per-base price.
func (m *Market) PriceLotsToDecimal(lots uint64) decimal.Decimal {
	num := fromUint64(lots).
		Mul(fromUint64(m.state.QuoteLotSize)).
		Mul(pow10(m.baseDecimals))
	den := fromUint64(m.state.BaseLotSize).Mul(pow10(m.quoteDecimals))
	return num.Div(den)
}

// BaseSizeLotsToDecimal converts a quantity in base lots to base units.
func (m *Market) BaseSizeLotsToDecimal(lots uint64) decimal.Decimal {
	return fromUint64(lots).Mul(fromUint64(m.state.BaseLotSize)).Div(pow10(m.baseDecimals))
}

// LoadBids fetches and decodes the bid side.
func (m *Market) LoadBids(ctx context.Context, conn AccountLoader) (*Orderbook, error) {
	return m.loadBook(ctx, conn, m.state.Bids, true)
}

// LoadAsks fetches and decodes the ask side.
func (m *Market) LoadAsks(ctx context.Context, conn AccountLoader) (*Orderbook, error) {
	return m.loadBook(ctx, conn, m.state.Asks, false)
}

func (m *Market) loadBook(ctx context.Context, conn AccountLoader, address PublicKey, wantBids bool) (*Orderbook, error) {
	side := "asks"
	if wantBids {
		side = "bids"
	}

	acct, err := conn.GetAccountInfo(ctx, address.String())
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", side, address, err)
	}

	isBids, leaves, err := decodeSlab(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", side, address, err)
	}
	if isBids != wantBids {
		return nil, fmt.Errorf("%w: %s account %s is flagged as the other side", ErrInvalidOrderbook, side, address)
	}

	return &Orderbook{market: m, isBids: isBids, leaves: leaves}, nil
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func pow10(exp uint8) decimal.Decimal {
	return decimal.New(1, int32(exp))
}
