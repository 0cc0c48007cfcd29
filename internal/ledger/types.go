package ledger

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAccountNotFound is returned when the node has no account at an address.
var ErrAccountNotFound = errors.New("account not found")

// Account is an on-chain account snapshot.
type Account struct {
	Address    string
	Owner      string // base58 program id
	Lamports   uint64
	Executable bool
	Data       []byte
	Slot       uint64
}

// accountConfig is the config object passed with account queries.
type accountConfig struct {
	Encoding   string `json:"encoding"`
	Commitment string `json:"commitment,omitempty"`
}

// contextResult wraps results that carry the slot they were read at.
type contextResult[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// accountWire is the wire format of an account in a base64 response.
type accountWire struct {
	Data       accountData `json:"data"`
	Executable bool        `json:"executable"`
	Lamports   uint64      `json:"lamports"`
	Owner      string      `json:"owner"`
	RentEpoch  json.Number `json:"rentEpoch"`
}

// accountData decodes ["<base64>", "base64"].
type accountData []byte

func (d *accountData) UnmarshalJSON(b []byte) error {
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("account data: want [data, encoding], got %d elements", len(parts))
	}
	if parts[1] != "base64" {
		return fmt.Errorf("account data: unsupported encoding %q", parts[1])
	}
	raw, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	*d = raw
	return nil
}

func (w *accountWire) toAccount(address string, slot uint64) *Account {
	return &Account{
		Address:    address,
		Owner:      w.Owner,
		Lamports:   w.Lamports,
		Executable: w.Executable,
		Data:       []byte(w.Data),
		Slot:       slot,
	}
}
