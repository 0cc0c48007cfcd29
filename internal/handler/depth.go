package handler

import (
	"context"

	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/serum"
)

// Depth answers the "depth" endpoint with every resting order on both
// sides, best price first.
type Depth struct {
	books bookReader
}

// NewDepth creates the depth handler.
func NewDepth(loader serum.AccountLoader, opts serum.Options) *Depth {
	return &Depth{books: bookReader{loader: loader, opts: opts}}
}

func (h *Depth) Handle(ctx context.Context, req model.Request) (model.Response, error) {
	b, err := h.books.load(ctx, req)
	if err != nil {
		return nil, err
	}

	return model.DepthResponse{
		Bids: ladder(b.bids),
		Asks: ladder(b.asks),
	}, nil
}

func ladder(ob *serum.Orderbook) []model.Level {
	orders := ob.Levels()
	out := make([]model.Level, 0, len(orders))
	for _, o := range orders {
		out = append(out, model.Level{Price: o.Price, Size: o.Size})
	}
	return out
}
