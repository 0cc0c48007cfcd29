package ledger

import (
	"context"
	"fmt"
)

// GetAccountInfo loads a single account. Returns ErrAccountNotFound if the
// account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*Account, error) {
	var res contextResult[*accountWire]
	params := []any{address, c.accountConfig()}
	if err := c.call(ctx, "getAccountInfo", params, &res); err != nil {
		return nil, fmt.Errorf("get account %s: %w", address, err)
	}
	if res.Value == nil {
		return nil, fmt.Errorf("get account %s: %w", address, ErrAccountNotFound)
	}
	return res.Value.toAccount(address, res.Context.Slot), nil
}

// GetMultipleAccounts loads several accounts in one round trip. The result
// has one entry per address, nil where the account does not exist.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []string) ([]*Account, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var res contextResult[[]*accountWire]
	params := []any{addresses, c.accountConfig()}
	if err := c.call(ctx, "getMultipleAccounts", params, &res); err != nil {
		return nil, fmt.Errorf("get %d accounts: %w", len(addresses), err)
	}
	if len(res.Value) != len(addresses) {
		return nil, fmt.Errorf("get %d accounts: node returned %d", len(addresses), len(res.Value))
	}

	accounts := make([]*Account, len(addresses))
	for i, w := range res.Value {
		if w != nil {
			accounts[i] = w.toAccount(addresses[i], res.Context.Slot)
		}
	}
	return accounts, nil
}

func (c *Client) accountConfig() accountConfig {
	return accountConfig{
		Encoding:   "base64",
		Commitment: c.commitment,
	}
}
