package value

import "encoding/json"

// Snapshot is a point-in-time price observation of a matched listing,
// produced once per collector run.
type Snapshot struct {
	CurrentPrice  float64         `json:"currentPrice"`
	PreviousPrice *float64        `json:"previousPrice,omitempty"`
	Info          json.RawMessage `json:"info,omitempty"`
}
