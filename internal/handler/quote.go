package handler

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/serum"
)

// Quote answers the "quote" endpoint with the size-weighted mid of the
// best bid and ask, rounded to the market's tick precision.
type Quote struct {
	books bookReader
}

// NewQuote creates the quote handler.
func NewQuote(loader serum.AccountLoader, opts serum.Options) *Quote {
	return &Quote{books: bookReader{loader: loader, opts: opts}}
}

func (h *Quote) Handle(ctx context.Context, req model.Request) (model.Response, error) {
	b, err := h.books.load(ctx, req)
	if err != nil {
		return nil, err
	}

	bestBid := b.bids.TopOfBook(1)
	bestAsk := b.asks.TopOfBook(1)
	if len(bestBid) == 0 || len(bestAsk) == 0 {
		return nil, fmt.Errorf("market %s: %w", req.MarketAddress, ErrEmptyBook)
	}

	mid, err := VolumeWeightedMid(bestBid[0], bestAsk[0])
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", req.MarketAddress, err)
	}

	return model.QuoteResponse{
		Price: mid.StringFixed(PricePrecision(b.market.TickSize())),
	}, nil
}

// VolumeWeightedMid returns (bp*bs + ap*as) / (bs + as).
func VolumeWeightedMid(bid, ask serum.Level) (decimal.Decimal, error) {
	total := bid.Size.Add(ask.Size)
	if total.IsZero() {
		return decimal.Decimal{}, ErrEmptyBook
	}
	weighted := bid.Price.Mul(bid.Size).Add(ask.Price.Mul(ask.Size))
	return weighted.Div(total), nil
}

// PricePrecision returns max(0, -floor(log10(tick))), the number of
// decimals needed to show a price at tick resolution.
func PricePrecision(tick decimal.Decimal) int32 {
	if tick.Sign() <= 0 {
		return 0
	}
	// tick = coeff * 10^exp, so floor(log10(tick)) = digits(coeff) - 1 + exp.
	digits := int32(len(tick.Coefficient().String()))
	floorLog := digits - 1 + tick.Exponent()
	if floorLog >= 0 {
		return 0
	}
	return -floorLog
}
