package router

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rickgao/serum-gateway/internal/model"
)

// DecodeError reports a payload that is not a usable request.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode request: %s: %v", e.Reason, e.Err)
	}
	return "decode request: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// requestWire keeps endpoint raw so a missing or non-string value can be
// told apart from an unknown one.
type requestWire struct {
	Endpoint      json.RawMessage `json:"endpoint"`
	MarketAddress string          `json:"marketAddress"`
	Program       string          `json:"program"`
	Timestamp     *float64        `json:"timestamp"`
}

// Decode parses a request payload. An endpoint value the gateway does not
// serve decodes successfully; check Endpoint.Known. If maxAge > 0, a
// request whose timestamp is older than maxAge relative to now is stale.
func Decode(payload []byte, now time.Time, maxAge time.Duration) (model.Request, error) {
	var wire requestWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return model.Request{}, &DecodeError{Reason: "invalid json", Err: err}
	}

	if len(wire.Endpoint) == 0 || string(wire.Endpoint) == "null" {
		return model.Request{}, &DecodeError{Reason: "missing endpoint"}
	}
	var endpoint string
	if err := json.Unmarshal(wire.Endpoint, &endpoint); err != nil {
		return model.Request{}, &DecodeError{Reason: "endpoint must be a string", Err: err}
	}

	req := model.Request{
		Endpoint:      model.Endpoint(endpoint),
		MarketAddress: wire.MarketAddress,
		Program:       wire.Program,
	}

	if wire.Timestamp != nil {
		req.Timestamp = *wire.Timestamp
		// Compared in float seconds: timestamps beyond the int64 range
		// are far future, not stale.
		if maxAge > 0 {
			age := float64(now.UnixNano())/1e9 - req.Timestamp
			if age > maxAge.Seconds() {
				return model.Request{}, &DecodeError{
					Reason: fmt.Sprintf("stale request: %.3fs old, limit %s", age, maxAge),
				}
			}
		}
	}

	return req, nil
}
