package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/pkg/errcodes"
)

type AutoWatchRepository struct {
	db *sqlx.DB
}

func NewAutoWatchRepository(db *sqlx.DB) *AutoWatchRepository {
	return &AutoWatchRepository{db: db}
}

const autoWatchColumns = `
	id, user_id, item_key, source, display_name, sample, enabled,
	last_seen_at, last_snapshot_at, created_at, updated_at`

// Upsert records that a user looked at an item. An existing entry for
// the same user and identity key only refreshes last_seen_at.
func (r *AutoWatchRepository) Upsert(ctx context.Context, watch *entity.AutoWatch) error {
	sample := []byte(watch.Sample)
	if len(sample) == 0 {
		sample = []byte("null")
	}

	now := time.Now()

	query := `
		INSERT INTO auto_watch (user_id, item_key, source, display_name, sample, enabled, last_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6, $6)
		ON CONFLICT (user_id, item_key) DO UPDATE
		SET last_seen_at = EXCLUDED.last_seen_at,
		    display_name = EXCLUDED.display_name,
		    updated_at = EXCLUDED.updated_at
		RETURNING id`

	row := r.db.QueryRowxContext(ctx, query,
		watch.UserID,
		watch.ItemKey,
		watch.Source.String(),
		watch.DisplayName,
		sample,
		now,
	)
	if err := row.Scan(&watch.ID); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to upsert auto watch")
	}

	return nil
}

// ListEnabled returns every entry still worth snapshotting.
func (r *AutoWatchRepository) ListEnabled(ctx context.Context) ([]entity.AutoWatch, error) {
	query := `SELECT ` + autoWatchColumns + ` FROM auto_watch WHERE enabled ORDER BY id ASC`

	var schemas []autoWatchSchema
	if err := r.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list auto watch entries")
	}

	watches := make([]entity.AutoWatch, 0, len(schemas))
	for i := range schemas {
		watches = append(watches, *schemas[i].toDomain())
	}

	return watches, nil
}

// GetByID returns one entry.
func (r *AutoWatchRepository) GetByID(ctx context.Context, id int64) (*entity.AutoWatch, error) {
	query := `SELECT ` + autoWatchColumns + ` FROM auto_watch WHERE id = $1`

	var schema autoWatchSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.NotFound, "auto watch entry not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get auto watch entry")
	}

	return schema.toDomain(), nil
}

// MarkSnapshot bumps last_snapshot_at after a successful capture.
func (r *AutoWatchRepository) MarkSnapshot(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE auto_watch
		SET last_snapshot_at = $1,
		    updated_at = $1
		WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to mark auto watch snapshot")
	}

	return nil
}

// Disable turns an entry off without deleting its history.
func (r *AutoWatchRepository) Disable(ctx context.Context, id int64) error {
	query := `
		UPDATE auto_watch
		SET enabled = FALSE,
		    updated_at = $1
		WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to disable auto watch entry")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.NotFound, "auto watch entry not found")
	}

	return nil
}
