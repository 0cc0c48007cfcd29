package handler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/tokenlist"
)

// TokenResolver fetches the token registry.
type TokenResolver interface {
	Resolve(ctx context.Context) (*tokenlist.TokenList, error)
}

// MarketLister returns the advertised markets.
type MarketLister interface {
	Active() []model.MarketInfo
}

// List answers the "list" endpoint.
type List struct {
	tokens      TokenResolver
	markets     MarketLister
	clusterSlug string
}

// NewList creates the list handler.
func NewList(tokens TokenResolver, markets MarketLister, clusterSlug string) *List {
	return &List{
		tokens:      tokens,
		markets:     markets,
		clusterSlug: clusterSlug,
	}
}

// Handle resolves the token registry and the market set concurrently.
func (h *List) Handle(ctx context.Context, _ model.Request) (model.Response, error) {
	var (
		tokens  []model.TokenInfo
		markets []model.MarketInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := h.tokens.Resolve(gctx)
		if err != nil {
			return upstream(SourceTokenList, err)
		}
		filtered, err := list.FilterByClusterSlug(h.clusterSlug)
		if err != nil {
			return err
		}
		tokens = filtered.List()
		return nil
	})
	g.Go(func() error {
		markets = h.markets.Active()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if markets == nil {
		markets = []model.MarketInfo{}
	}
	return model.ListResponse{TokenList: tokens, Markets: markets}, nil
}
