package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/serum"
)

// ErrEmptyBook is returned by quote when a side has no resting orders.
var ErrEmptyBook = errors.New("order book side is empty")

// Upstream names used in UpstreamFetchError.
const (
	SourceLedger    = "ledger"
	SourceTokenList = "tokenlist"
)

// UpstreamFetchError wraps a failure to read from an upstream service.
type UpstreamFetchError struct {
	Source string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

func upstream(source string, err error) error {
	var addrErr *serum.InvalidAddressError
	if errors.As(err, &addrErr) {
		return err
	}
	return &UpstreamFetchError{Source: source, Err: err}
}

// Classify maps a handler error to a reply code and client-facing message.
func Classify(err error) (code, message string) {
	var (
		addrErr     *serum.InvalidAddressError
		upstreamErr *UpstreamFetchError
	)
	switch {
	case errors.As(err, &addrErr):
		return model.CodeInvalidAddress, addrErr.Error()
	case errors.Is(err, ErrEmptyBook):
		return model.CodeEmptyBook, ErrEmptyBook.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return model.CodeUpstreamError, "upstream fetch timed out"
	case errors.As(err, &upstreamErr):
		return model.CodeUpstreamError, upstreamErr.Source + " fetch failed"
	default:
		return model.CodeInternalError, "internal error"
	}
}
