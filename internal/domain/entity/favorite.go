package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"aucwatch/internal/domain/value"
)

// Favorite is one user's tracked item. Many favorites (possibly of different
// users) may point at the same listing; they are grouped by GroupKey for a
// single upstream query per poll cycle.
type Favorite struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"userId"`
	Source        value.Source       `json:"source"`
	Name          string             `json:"name"`
	Grade         string             `json:"grade"`
	Tier          *int               `json:"tier,omitempty"`
	Quality       *int               `json:"quality,omitempty"`
	Icon          string             `json:"icon,omitempty"`
	CurrentPrice  float64            `json:"currentPrice"`
	PreviousPrice *float64           `json:"previousPrice,omitempty"`
	TargetPrice   *float64           `json:"targetPrice,omitempty"`
	Info          json.RawMessage    `json:"info,omitempty"` // raw auctionInfo/marketInfo blob from the upstream
	Options       []value.ItemOption `json:"options,omitempty"`

	// ItemID is the upstream's stable numeric id (market only).
	ItemID *int64 `json:"itemId,omitempty"`
	// MatchKey is the derived identity key (auction only), computed when the
	// favorite is created and stored for fast grouping.
	MatchKey string `json:"matchKey,omitempty"`

	IsAlerted      bool       `json:"isAlerted"`
	Active         bool       `json:"active"`
	LastCheckedAt  *time.Time `json:"lastCheckedAt,omitempty"`
	LastNotifiedAt *time.Time `json:"lastNotifiedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupKey returns the compound identity key favorites are grouped by:
// "market:<itemId>" or "auction:<matchKey>". ok is false when the identity
// cannot be computed (missing market id, empty auction key) — such favorites
// are filtered out before grouping and never reach the gateway.
func (f Favorite) GroupKey() (string, bool) {
	switch f.Source {
	case value.SourceMarket:
		if f.ItemID == nil || *f.ItemID <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s:%d", value.SourceMarket, *f.ItemID), true
	case value.SourceAuction:
		if f.MatchKey == "" {
			return "", false
		}
		return fmt.Sprintf("%s:%s", value.SourceAuction, f.MatchKey), true
	default:
		return "", false
	}
}
