package serum

import (
	"github.com/rickgao/serum-gateway/internal/serum/serumtest"
)

type testOrder = serumtest.Order

func testKey(seed byte) PublicKey {
	return PublicKey(serumtest.NewKey(seed))
}

// Keys of serumtest.NewFixture.
var (
	testProgram   = testKey(1)
	testMarketKey = testKey(2)
	testQuoteMint = testKey(3)
	testBidsKey   = testKey(4)
	testAsksKey   = testKey(5)
)

func newFakeLoader() *serumtest.Loader {
	return serumtest.NewLoader()
}

func newTestMarket(l *serumtest.Loader, bids, asks []testOrder) {
	serumtest.NewFixture(l, bids, asks)
}

func encodeSlab(bids bool, orders []testOrder) []byte {
	return serumtest.EncodeBook(bids, orders)
}
