package tokenlist

import (
	"fmt"

	"github.com/rickgao/serum-gateway/internal/model"
)

// Cluster chain ids used by the registry.
const (
	ChainIDMainnetBeta = 101
	ChainIDTestnet     = 102
	ChainIDDevnet      = 103
)

var clusterChainIDs = map[string]int{
	"mainnet-beta": ChainIDMainnetBeta,
	"testnet":      ChainIDTestnet,
	"devnet":       ChainIDDevnet,
}

// TokenList is a resolved registry snapshot.
type TokenList struct {
	tokens []model.TokenInfo
}

// NewTokenList wraps tokens in a TokenList.
func NewTokenList(tokens []model.TokenInfo) *TokenList {
	return &TokenList{tokens: tokens}
}

// FilterByClusterSlug keeps the tokens of one cluster.
func (l *TokenList) FilterByClusterSlug(slug string) (*TokenList, error) {
	id, ok := clusterChainIDs[slug]
	if !ok {
		return nil, fmt.Errorf("unknown cluster slug %q", slug)
	}
	return l.FilterByChainID(id), nil
}

// FilterByChainID keeps the tokens with the given chain id.
func (l *TokenList) FilterByChainID(chainID int) *TokenList {
	out := make([]model.TokenInfo, 0, len(l.tokens))
	for _, t := range l.tokens {
		if t.ChainID == chainID {
			out = append(out, t)
		}
	}
	return &TokenList{tokens: out}
}

// List returns the tokens. The slice is never nil.
func (l *TokenList) List() []model.TokenInfo {
	if l.tokens == nil {
		return []model.TokenInfo{}
	}
	return l.tokens
}

// KnownClusterSlug reports whether slug names a registry cluster.
func KnownClusterSlug(slug string) bool {
	_, ok := clusterChainIDs[slug]
	return ok
}
