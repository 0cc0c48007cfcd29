package model

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// Endpoint selects the operation a request asks for.
type Endpoint string

const (
	EndpointList  Endpoint = "list"
	EndpointQuote Endpoint = "quote"
	EndpointDepth Endpoint = "depth"
)

// Known reports whether the endpoint is one the gateway serves.
func (e Endpoint) Known() bool {
	switch e {
	case EndpointList, EndpointQuote, EndpointDepth:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

// Request is a decoded client request.
type Request struct {
	Endpoint      Endpoint `json:"endpoint"`
	MarketAddress string   `json:"marketAddress,omitempty"`
	Program       string   `json:"program,omitempty"`
	Timestamp     float64  `json:"timestamp,omitempty"` // Unix seconds, optional
}

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

// Response is implemented by every payload the gateway sends back.
type Response interface {
	response()
}

// TokenInfo is one entry of the token registry.
type TokenInfo struct {
	ChainID    int            `json:"chainId"`
	Address    string         `json:"address"`
	Name       string         `json:"name"`
	Decimals   int            `json:"decimals"`
	Symbol     string         `json:"symbol"`
	LogoURI    string         `json:"logoURI,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// MarketInfo is the public projection of a known market.
type MarketInfo struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	ProgramID string `json:"programId"`
}

// ListResponse answers the "list" endpoint.
type ListResponse struct {
	TokenList []TokenInfo  `json:"tokenList"`
	Markets   []MarketInfo `json:"markets"`
}

// QuoteResponse answers the "quote" endpoint.
type QuoteResponse struct {
	Price string `json:"price"`
}

// Level is a single [price, size] ladder entry.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// MarshalJSON encodes the level as a two-element array of JSON numbers.
func (l Level) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(l.Price.String())
	buf.WriteByte(',')
	buf.WriteString(l.Size.String())
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// DepthResponse answers the "depth" endpoint.
type DepthResponse struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// Error codes carried by ErrorResponse.
const (
	CodeDecodeError     = "decode_error"
	CodeUnknownEndpoint = "unknown_endpoint"
	CodeInvalidAddress  = "invalid_address"
	CodeEmptyBook       = "empty_book"
	CodeUpstreamError   = "upstream_error"
	CodeOverloaded      = "overloaded"
	CodeInternalError   = "internal_error"
)

// ErrorDetail describes why a request failed.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is sent instead of a result when a request cannot be served.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewErrorResponse builds an ErrorResponse.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

func (ListResponse) response()  {}
func (QuoteResponse) response() {}
func (DepthResponse) response() {}
func (ErrorResponse) response() {}
