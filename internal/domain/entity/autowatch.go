package entity

import (
	"encoding/json"
	"time"

	"aucwatch/internal/domain/value"
)

// AutoWatch is a per-user opt-in to keep snapshotting an item even when no
// active favorite references it. Sample keeps the favorite-like attribute
// snapshot needed to re-run the identity search.
type AutoWatch struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	ItemKey        string          `json:"itemKey"` // compound group key, e.g. "auction:auc:1a2b3c4d"
	Source         value.Source    `json:"source"`
	DisplayName    string          `json:"displayName"`
	Sample         json.RawMessage `json:"sample,omitempty"`
	Enabled        bool            `json:"enabled"`
	LastSeenAt     *time.Time      `json:"lastSeenAt,omitempty"`
	LastSnapshotAt *time.Time      `json:"lastSnapshotAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
