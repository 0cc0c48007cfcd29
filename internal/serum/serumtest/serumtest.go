// Package serumtest builds synthetic DEX accounts for tests.
package serumtest

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/rickgao/serum-gateway/internal/ledger"
)

// Account flag bits.
const (
	FlagInitialized uint64 = 1 << 0
	FlagMarket      uint64 = 1 << 1
	FlagBids        uint64 = 1 << 5
	FlagAsks        uint64 = 1 << 6
)

const (
	marketStateSize = 388
	headPadding     = 5
	slabHeaderSize  = 32
	slabNodeSize    = 72

	offFlags        = 5
	offBaseMint     = 53
	offQuoteMint    = 85
	offBids         = 285
	offAsks         = 317
	offBaseLotSize  = 349
	offQuoteLotSize = 357
	offMintDecimals = 44
)

// WrappedSOLMint is the native mint, whose decimals the loader knows.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// NewKey returns a deterministic 32-byte key derived from seed.
func NewKey(seed byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = seed + byte(i)
	}
	return k
}

// Address returns the base58 form of NewKey(seed).
func Address(seed byte) string {
	k := NewKey(seed)
	return base58.Encode(k[:])
}

func decode(address string) [32]byte {
	var k [32]byte
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		panic("serumtest: bad address " + address)
	}
	copy(k[:], raw)
	return k
}

// MarketLayout holds the market state fields tests care about.
type MarketLayout struct {
	Flags        uint64
	BaseMint     string
	QuoteMint    string
	Bids         string
	Asks         string
	BaseLotSize  uint64
	QuoteLotSize uint64
}

// EncodeMarket returns a 388-byte market state account.
func EncodeMarket(l MarketLayout) []byte {
	data := make([]byte, marketStateSize)
	copy(data, "serum")
	le := binary.LittleEndian
	le.PutUint64(data[offFlags:], l.Flags)
	for off, addr := range map[int]string{
		offBaseMint:  l.BaseMint,
		offQuoteMint: l.QuoteMint,
		offBids:      l.Bids,
		offAsks:      l.Asks,
	} {
		if addr != "" {
			k := decode(addr)
			copy(data[off:], k[:])
		}
	}
	le.PutUint64(data[offBaseLotSize:], l.BaseLotSize)
	le.PutUint64(data[offQuoteLotSize:], l.QuoteLotSize)
	copy(data[marketStateSize-7:], "padding")
	return data
}

// EncodeMint returns an SPL mint account with the given decimals.
func EncodeMint(decimals uint8) []byte {
	data := make([]byte, 82)
	data[offMintDecimals] = decimals
	return data
}

// Order is a resting order in lots.
type Order struct {
	PriceLots uint64
	Quantity  uint64
}

// EncodeBook returns an order book account holding orders. Keys are
// priceLots<<64 | input index, so equal prices keep input order within
// ascending key order.
func EncodeBook(bids bool, orders []Order) []byte {
	type keyed struct {
		Order
		seq uint64
	}
	sorted := make([]keyed, len(orders))
	for i, o := range orders {
		sorted[i] = keyed{Order: o, seq: uint64(i)}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriceLots < sorted[j].PriceLots
	})

	le := binary.LittleEndian
	var nodes [][]byte

	var build func(lo, hi int) uint32
	build = func(lo, hi int) uint32 {
		node := make([]byte, slabNodeSize)
		idx := uint32(len(nodes))
		nodes = append(nodes, node)
		if hi-lo == 1 {
			o := sorted[lo]
			le.PutUint32(node, 2) // leaf
			le.PutUint64(node[8:], o.seq)
			le.PutUint64(node[16:], o.PriceLots)
			le.PutUint64(node[56:], o.Quantity)
			le.PutUint64(node[64:], o.seq+100)
			return idx
		}
		mid := (lo + hi) / 2
		le.PutUint32(node, 1) // inner
		left := build(lo, mid)
		right := build(mid, hi)
		le.PutUint32(node[24:], left)
		le.PutUint32(node[28:], right)
		return idx
	}

	var root uint32
	if len(sorted) > 0 {
		root = build(0, len(sorted))
	}

	flags := FlagInitialized | FlagAsks
	if bids {
		flags = FlagInitialized | FlagBids
	}

	data := make([]byte, headPadding+8+slabHeaderSize+len(nodes)*slabNodeSize+7)
	copy(data, "serum")
	le.PutUint64(data[headPadding:], flags)
	header := data[headPadding+8:]
	le.PutUint32(header[0:], uint32(len(nodes))) // bump index
	le.PutUint32(header[20:], root)
	le.PutUint32(header[24:], uint32(len(sorted)))
	for i, n := range nodes {
		copy(header[slabHeaderSize+i*slabNodeSize:], n)
	}
	copy(data[len(data)-7:], "padding")
	return data
}

// Loader serves accounts from memory. It is safe for concurrent use.
type Loader struct {
	mu       sync.Mutex
	accounts map[string]*ledger.Account
	calls    []string
	err      error
}

// NewLoader returns an empty Loader.
func NewLoader() *Loader {
	return &Loader{accounts: make(map[string]*ledger.Account)}
}

// Put stores an account.
func (l *Loader) Put(address, owner string, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &ledger.Account{Address: address, Owner: owner, Data: data}
}

// Delete removes an account.
func (l *Loader) Delete(address string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, address)
}

// SetErr makes every call fail with err. nil restores normal behavior.
func (l *Loader) SetErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// Calls returns the methods invoked so far.
func (l *Loader) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *Loader) GetAccountInfo(ctx context.Context, address string) (*ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "getAccountInfo:"+address)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.err != nil {
		return nil, l.err
	}
	acct, ok := l.accounts[address]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return acct, nil
}

func (l *Loader) GetMultipleAccounts(ctx context.Context, addresses []string) ([]*ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "getMultipleAccounts")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.err != nil {
		return nil, l.err
	}
	out := make([]*ledger.Account, len(addresses))
	for i, a := range addresses {
		out[i] = l.accounts[a]
	}
	return out, nil
}

// Fixture is a SOL/USDC-like market: base lot 0.1 SOL, quote lot 0.0001
// USDC, so one price lot is 0.001 and one size lot is 0.1.
type Fixture struct {
	Program   string
	Market    string
	QuoteMint string
	Bids      string
	Asks      string
}

// NewFixture stores a market with the given books in l.
func NewFixture(l *Loader, bids, asks []Order) Fixture {
	f := Fixture{
		Program:   Address(1),
		Market:    Address(2),
		QuoteMint: Address(3),
		Bids:      Address(4),
		Asks:      Address(5),
	}
	l.Put(f.Market, f.Program, EncodeMarket(MarketLayout{
		Flags:        FlagInitialized | FlagMarket,
		BaseMint:     WrappedSOLMint,
		QuoteMint:    f.QuoteMint,
		Bids:         f.Bids,
		Asks:         f.Asks,
		BaseLotSize:  100_000_000,
		QuoteLotSize: 100,
	}))
	l.Put(f.QuoteMint, Address(9), EncodeMint(6))
	l.Put(f.Bids, f.Program, EncodeBook(true, bids))
	l.Put(f.Asks, f.Program, EncodeBook(false, asks))
	return f
}
