package serum

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Account flag bits shared by every DEX-owned account.
const (
	flagInitialized  uint64 = 1 << 0
	flagMarket       uint64 = 1 << 1
	flagOpenOrders   uint64 = 1 << 2
	flagRequestQueue uint64 = 1 << 3
	flagEventQueue   uint64 = 1 << 4
	flagBids         uint64 = 1 << 5
	flagAsks         uint64 = 1 << 6
)

// DEX accounts start with a 5-byte "serum" head before the flags word.
const headPadding = 5

// Market state offsets (v2/v3 layout; v1 is identical up to feeRateBps).
const (
	offAccountFlags = headPadding
	offOwnAddress   = offAccountFlags + 8
	offVaultNonce   = offOwnAddress + 32
	offBaseMint     = offVaultNonce + 8
	offQuoteMint    = offBaseMint + 32
	offBaseVault    = offQuoteMint + 32
	offQuoteVault   = offBaseVault + 32 + 8 + 8
	offRequestQueue = offQuoteVault + 32 + 8 + 8 + 8
	offEventQueue   = offRequestQueue + 32
	offBids         = offEventQueue + 32
	offAsks         = offBids + 32
	offBaseLotSize  = offAsks + 32
	offQuoteLotSize = offBaseLotSize + 8
	offFeeRateBps   = offQuoteLotSize + 8

	minMarketStateSize = offFeeRateBps + 8
)

// mintDecimalsOffset is the position of the decimals byte in an SPL mint.
const mintDecimalsOffset = 44

// Slab layout.
const (
	slabHeaderSize = 32
	slabNodeSize   = 72

	offSlabBumpIndex = 0
	offSlabRoot      = 20
	offSlabLeafCount = 24
)

// Slab node tags.
const (
	nodeUninitialized uint32 = 0
	nodeInner         uint32 = 1
	nodeLeaf          uint32 = 2
	nodeFree          uint32 = 3
	nodeLastFree      uint32 = 4
)

// Errors returned while decoding DEX accounts.
var (
	ErrInvalidMarketState = errors.New("invalid market state")
	ErrInvalidOrderbook   = errors.New("invalid orderbook")
	ErrProgramMismatch    = errors.New("market not owned by program")
	ErrInvalidMint        = errors.New("invalid mint account")
)

// marketState is the decoded subset of a market account.
type marketState struct {
	AccountFlags uint64
	OwnAddress   PublicKey
	BaseMint     PublicKey
	QuoteMint    PublicKey
	RequestQueue PublicKey
	EventQueue   PublicKey
	Bids         PublicKey
	Asks         PublicKey
	BaseLotSize  uint64
	QuoteLotSize uint64
	FeeRateBps   uint64
}

func decodeMarketState(data []byte) (*marketState, error) {
	if len(data) < minMarketStateSize {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrInvalidMarketState, len(data), minMarketStateSize)
	}

	le := binary.LittleEndian
	s := &marketState{
		AccountFlags: le.Uint64(data[offAccountFlags:]),
		OwnAddress:   publicKeyAt(data, offOwnAddress),
		BaseMint:     publicKeyAt(data, offBaseMint),
		QuoteMint:    publicKeyAt(data, offQuoteMint),
		RequestQueue: publicKeyAt(data, offRequestQueue),
		EventQueue:   publicKeyAt(data, offEventQueue),
		Bids:         publicKeyAt(data, offBids),
		Asks:         publicKeyAt(data, offAsks),
		BaseLotSize:  le.Uint64(data[offBaseLotSize:]),
		QuoteLotSize: le.Uint64(data[offQuoteLotSize:]),
		FeeRateBps:   le.Uint64(data[offFeeRateBps:]),
	}

	if s.AccountFlags&flagInitialized == 0 || s.AccountFlags&flagMarket == 0 {
		return nil, fmt.Errorf("%w: flags %#x", ErrInvalidMarketState, s.AccountFlags)
	}
	if s.BaseLotSize == 0 || s.QuoteLotSize == 0 {
		return nil, fmt.Errorf("%w: zero lot size", ErrInvalidMarketState)
	}

	return s, nil
}

func decodeMintDecimals(data []byte) (uint8, error) {
	if len(data) <= mintDecimalsOffset {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidMint, len(data))
	}
	return data[mintDecimalsOffset], nil
}

// slabLeaf is a resting order as stored in the slab.
type slabLeaf struct {
	OwnerSlot     uint8
	FeeTier       uint8
	OrderID       [16]byte // u128 key, little-endian
	Owner         PublicKey
	Quantity      uint64
	ClientOrderID uint64
}

// PriceLots is the high 64 bits of the order key.
func (l slabLeaf) PriceLots() uint64 {
	return binary.LittleEndian.Uint64(l.OrderID[8:])
}

// decodeSlab validates an order book account and returns its leaves in
// book order: descending price for bids, ascending for asks.
func decodeSlab(data []byte) (isBids bool, leaves []slabLeaf, err error) {
	if len(data) < headPadding+8+slabHeaderSize {
		return false, nil, fmt.Errorf("%w: %d bytes", ErrInvalidOrderbook, len(data))
	}

	le := binary.LittleEndian
	flags := le.Uint64(data[headPadding:])
	bids := flags&flagBids != 0
	asks := flags&flagAsks != 0
	if flags&flagInitialized == 0 || bids == asks {
		return false, nil, fmt.Errorf("%w: flags %#x", ErrInvalidOrderbook, flags)
	}

	slab := data[headPadding+8:]
	header := slab[:slabHeaderSize]
	nodes := slab[slabHeaderSize:]
	nodeCount := len(nodes) / slabNodeSize

	bumpIndex := le.Uint32(header[offSlabBumpIndex:])
	root := le.Uint32(header[offSlabRoot:])
	leafCount := le.Uint32(header[offSlabLeafCount:])

	if leafCount == 0 {
		return bids, nil, nil
	}
	if int(bumpIndex) > nodeCount || int(leafCount) > nodeCount {
		return false, nil, fmt.Errorf("%w: header references %d nodes, account holds %d", ErrInvalidOrderbook, bumpIndex, nodeCount)
	}

	leaves = make([]slabLeaf, 0, leafCount)
	seen := make([]bool, nodeCount)
	stack := []uint32{root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if int(idx) >= nodeCount {
			return false, nil, fmt.Errorf("%w: node index %d out of range", ErrInvalidOrderbook, idx)
		}
		// A node reachable twice means a cycle or a shared subtree.
		if seen[idx] {
			return false, nil, fmt.Errorf("%w: node %d reached twice", ErrInvalidOrderbook, idx)
		}
		seen[idx] = true
		node := nodes[int(idx)*slabNodeSize : int(idx+1)*slabNodeSize]

		switch le.Uint32(node) {
		case nodeInner:
			left := le.Uint32(node[24:])
			right := le.Uint32(node[28:])
			// Stack is LIFO: push the side visited second first.
			if bids {
				stack = append(stack, left, right)
			} else {
				stack = append(stack, right, left)
			}
		case nodeLeaf:
			var leaf slabLeaf
			leaf.OwnerSlot = node[4]
			leaf.FeeTier = node[5]
			copy(leaf.OrderID[:], node[8:24])
			copy(leaf.Owner[:], node[24:56])
			leaf.Quantity = le.Uint64(node[56:])
			leaf.ClientOrderID = le.Uint64(node[64:])
			leaves = append(leaves, leaf)
		default:
			return false, nil, fmt.Errorf("%w: unexpected node tag %d at %d", ErrInvalidOrderbook, le.Uint32(node), idx)
		}

		if len(leaves) > int(leafCount) {
			return false, nil, fmt.Errorf("%w: more than %d leaves reachable", ErrInvalidOrderbook, leafCount)
		}
	}

	return bids, leaves, nil
}
