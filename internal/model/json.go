package model

import (
	"encoding/json"
	"fmt"
)

// Encode marshals a response payload to JSON bytes.
func Encode(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", resp, err)
	}
	return data, nil
}
