package handler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/serum"
)

// bookReader loads a market and both sides of its book.
type bookReader struct {
	loader serum.AccountLoader
	opts   serum.Options
}

type books struct {
	market *serum.Market
	bids   *serum.Orderbook
	asks   *serum.Orderbook
}

func (r bookReader) load(ctx context.Context, req model.Request) (*books, error) {
	address, err := serum.ParsePublicKey(req.MarketAddress)
	if err != nil {
		return nil, err
	}
	program, err := serum.ParsePublicKey(req.Program)
	if err != nil {
		return nil, err
	}

	market, err := serum.LoadMarket(ctx, r.loader, address, program, r.opts)
	if err != nil {
		return nil, upstream(SourceLedger, err)
	}

	b := &books{market: market}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bids, err := market.LoadBids(gctx, r.loader)
		b.bids = bids
		return err
	})
	g.Go(func() error {
		asks, err := market.LoadAsks(gctx, r.loader)
		b.asks = asks
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, upstream(SourceLedger, err)
	}

	return b, nil
}
