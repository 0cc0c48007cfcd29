package market

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed markets.json
var builtinJSON []byte

// Builtin returns the markets embedded in the binary.
func Builtin() ([]Market, error) {
	var markets []Market
	if err := json.Unmarshal(builtinJSON, &markets); err != nil {
		return nil, fmt.Errorf("decode builtin markets: %w", err)
	}
	for i := range markets {
		markets[i].Source = SourceBuiltin
	}
	return markets, nil
}
