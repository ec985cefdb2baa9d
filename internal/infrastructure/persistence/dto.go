package persistence

import (
	"encoding/json"
	"time"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
)

// favoriteSchema maps one favorites row.
type favoriteSchema struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	Source         string     `db:"source"`
	Name           string     `db:"name"`
	Grade          string     `db:"grade"`
	Tier           *int       `db:"tier"`
	Quality        *int       `db:"quality"`
	Icon           string     `db:"icon"`
	CurrentPrice   float64    `db:"current_price"`
	PreviousPrice  *float64   `db:"previous_price"`
	TargetPrice    *float64   `db:"target_price"`
	Info           []byte     `db:"info"`
	Options        []byte     `db:"options"`
	ItemID         *int64     `db:"item_id"`
	MatchKey       *string    `db:"match_key"`
	IsAlerted      bool       `db:"is_alerted"`
	Active         bool       `db:"active"`
	LastCheckedAt  *time.Time `db:"last_checked_at"`
	LastNotifiedAt *time.Time `db:"last_notified_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (s *favoriteSchema) toDomain() (*entity.Favorite, error) {
	var options []value.ItemOption
	if len(s.Options) > 0 {
		if err := json.Unmarshal(s.Options, &options); err != nil {
			return nil, err
		}
	}

	matchKey := ""
	if s.MatchKey != nil {
		matchKey = *s.MatchKey
	}

	return &entity.Favorite{
		ID:             s.ID,
		UserID:         s.UserID,
		Source:         value.Source(s.Source),
		Name:           s.Name,
		Grade:          s.Grade,
		Tier:           s.Tier,
		Quality:        s.Quality,
		Icon:           s.Icon,
		CurrentPrice:   s.CurrentPrice,
		PreviousPrice:  s.PreviousPrice,
		TargetPrice:    s.TargetPrice,
		Info:           json.RawMessage(s.Info),
		Options:        options,
		ItemID:         s.ItemID,
		MatchKey:       matchKey,
		IsAlerted:      s.IsAlerted,
		Active:         s.Active,
		LastCheckedAt:  s.LastCheckedAt,
		LastNotifiedAt: s.LastNotifiedAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}, nil
}

func fromFavorite(f *entity.Favorite) (*favoriteSchema, error) {
	optionsBytes, err := json.Marshal(f.Options)
	if err != nil {
		return nil, err
	}

	var matchKey *string
	if f.MatchKey != "" {
		matchKey = &f.MatchKey
	}

	return &favoriteSchema{
		ID:             f.ID,
		UserID:         f.UserID,
		Source:         f.Source.String(),
		Name:           f.Name,
		Grade:          f.Grade,
		Tier:           f.Tier,
		Quality:        f.Quality,
		Icon:           f.Icon,
		CurrentPrice:   f.CurrentPrice,
		PreviousPrice:  f.PreviousPrice,
		TargetPrice:    f.TargetPrice,
		Info:           []byte(f.Info),
		Options:        optionsBytes,
		ItemID:         f.ItemID,
		MatchKey:       matchKey,
		IsAlerted:      f.IsAlerted,
		Active:         f.Active,
		LastCheckedAt:  f.LastCheckedAt,
		LastNotifiedAt: f.LastNotifiedAt,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}, nil
}

// priceRecordSchema maps one price_history row.
type priceRecordSchema struct {
	ItemID         string    `db:"item_id"`
	Source         string    `db:"source"`
	Price          float64   `db:"price"`
	CapturedAt     time.Time `db:"captured_at"`
	CapturedMinute time.Time `db:"captured_minute"`
	Meta           []byte    `db:"meta"`
}

func (s *priceRecordSchema) toDomain() entity.PriceRecord {
	return entity.PriceRecord{
		ItemID:         s.ItemID,
		Source:         value.Source(s.Source),
		Price:          s.Price,
		CapturedAt:     s.CapturedAt,
		CapturedMinute: s.CapturedMinute,
		Meta:           json.RawMessage(s.Meta),
	}
}

// autoWatchSchema maps one auto_watch row.
type autoWatchSchema struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	ItemKey        string     `db:"item_key"`
	Source         string     `db:"source"`
	DisplayName    string     `db:"display_name"`
	Sample         []byte     `db:"sample"`
	Enabled        bool       `db:"enabled"`
	LastSeenAt     *time.Time `db:"last_seen_at"`
	LastSnapshotAt *time.Time `db:"last_snapshot_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (s *autoWatchSchema) toDomain() *entity.AutoWatch {
	return &entity.AutoWatch{
		ID:             s.ID,
		UserID:         s.UserID,
		ItemKey:        s.ItemKey,
		Source:         value.Source(s.Source),
		DisplayName:    s.DisplayName,
		Sample:         json.RawMessage(s.Sample),
		Enabled:        s.Enabled,
		LastSeenAt:     s.LastSeenAt,
		LastSnapshotAt: s.LastSnapshotAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
