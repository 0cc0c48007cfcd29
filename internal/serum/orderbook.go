package serum

import (
	"github.com/shopspring/decimal"
)

// Order is one resting order, converted to market units.
type Order struct {
	OrderID       [16]byte
	ClientOrderID uint64
	Owner         PublicKey
	OwnerSlot     uint8
	FeeTier       uint8
	PriceLots     uint64
	SizeLots      uint64
	Price         decimal.Decimal
	Size          decimal.Decimal
	Bid           bool
}

// Level is an aggregated price level.
type Level struct {
	Price     decimal.Decimal
	Size      decimal.Decimal
	PriceLots uint64
	SizeLots  uint64
}

// Orderbook is one side of a market as read at load time.
type Orderbook struct {
	market *Market
	isBids bool
	leaves []slabLeaf
}

// IsBids reports whether this is the bid side.
func (ob *Orderbook) IsBids() bool { return ob.isBids }

// Len returns the number of resting orders.
func (ob *Orderbook) Len() int { return len(ob.leaves) }

// Levels returns every order in book order: best price first, so bids
// descend and asks ascend.
func (ob *Orderbook) Levels() []Order {
	orders := make([]Order, 0, len(ob.leaves))
	for _, leaf := range ob.leaves {
		priceLots := leaf.PriceLots()
		orders = append(orders, Order{
			OrderID:       leaf.OrderID,
			ClientOrderID: leaf.ClientOrderID,
			Owner:         leaf.Owner,
			OwnerSlot:     leaf.OwnerSlot,
			FeeTier:       leaf.FeeTier,
			PriceLots:     priceLots,
			SizeLots:      leaf.Quantity,
			Price:         ob.market.PriceLotsToDecimal(priceLots),
			Size:          ob.market.BaseSizeLotsToDecimal(leaf.Quantity),
			Bid:           ob.isBids,
		})
	}
	return orders
}

// TopOfBook aggregates orders at equal prices and returns up to depth
// levels, best first. depth <= 0 returns every level.
func (ob *Orderbook) TopOfBook(depth int) []Level {
	var lots []Level
	for _, leaf := range ob.leaves {
		priceLots := leaf.PriceLots()
		if n := len(lots); n > 0 && lots[n-1].PriceLots == priceLots {
			lots[n-1].SizeLots += leaf.Quantity
			continue
		}
		if depth > 0 && len(lots) == depth {
			break
		}
		lots = append(lots, Level{PriceLots: priceLots, SizeLots: leaf.Quantity})
	}

	for i := range lots {
		lots[i].Price = ob.market.PriceLotsToDecimal(lots[i].PriceLots)
		lots[i].Size = ob.market.BaseSizeLotsToDecimal(lots[i].SizeLots)
	}
	return lots
}
