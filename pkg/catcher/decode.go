package catcher

import (
	"encoding/json"
	"fmt"
)

// decodeBatch parses a datagram payload: a JSON array of metric updates.
// Decoding is all-or-nothing; a malformed payload discards the whole batch so
// no partial update is ever applied.
func decodeBatch(data []byte) ([]metricMessage, error) {
	var batch []metricMessage
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode metric batch: %w", err)
	}

	return batch, nil
}
