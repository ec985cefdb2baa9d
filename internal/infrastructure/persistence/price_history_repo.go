package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/pkg/errcodes"
)

type PriceHistoryRepository struct {
	db *sqlx.DB
}

func NewPriceHistoryRepository(db *sqlx.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// Insert appends one observation. Repeated captures within the same
// minute bucket are dropped silently, which makes collector retries
// idempotent.
func (r *PriceHistoryRepository) Insert(ctx context.Context, rec entity.PriceRecord) error {
	query := `
		INSERT INTO price_history (item_id, source, price, captured_at, captured_minute, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id, source, captured_minute) DO NOTHING`

	meta := []byte(rec.Meta)
	if len(meta) == 0 {
		meta = []byte("null")
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ItemID,
		rec.Source.String(),
		rec.Price,
		rec.CapturedAt,
		rec.CapturedMinute,
		meta,
	)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert price record")
	}

	return nil
}

// ListByItem returns observations for one item, newest first.
func (r *PriceHistoryRepository) ListByItem(ctx context.Context, itemID string, since time.Time, limit int) ([]entity.PriceRecord, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT item_id, source, price, captured_at, captured_minute, meta
		FROM price_history
		WHERE item_id = $1 AND captured_at >= $2
		ORDER BY captured_at DESC
		LIMIT $3`

	var schemas []priceRecordSchema
	if err := r.db.SelectContext(ctx, &schemas, query, itemID, since, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list price history")
	}

	records := make([]entity.PriceRecord, 0, len(schemas))
	for i := range schemas {
		records = append(records, schemas[i].toDomain())
	}

	return records, nil
}

// DeleteOlderThan prunes observations that fell out of the retention
// window. Returns the number of rows removed.
func (r *PriceHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE captured_at < $1`, cutoff)
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to prune price history")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	return rows, nil
}
