package entity

import (
	"encoding/json"
	"time"

	"aucwatch/internal/domain/value"
)

// PriceRecord is one append-only row of the price history time series.
// At most one record exists per (ItemID, Source, CapturedMinute); concurrent
// duplicate snapshots within the same minute are absorbed by the uniqueness
// constraint, first writer wins.
type PriceRecord struct {
	ItemID         string          `json:"itemId"`
	Source         value.Source    `json:"source"`
	Price          float64         `json:"price"`
	CapturedAt     time.Time       `json:"capturedAt"`
	CapturedMinute time.Time       `json:"capturedMinute"`
	Meta           json.RawMessage `json:"meta,omitempty"`
}
