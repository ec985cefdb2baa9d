package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/pkg/errcodes"
)

type FavoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

const favoriteColumns = `
	id, user_id, source, name, grade, tier, quality, icon,
	current_price, previous_price, target_price, info, options,
	item_id, match_key, is_alerted, active,
	last_checked_at, last_notified_at, created_at, updated_at`

// Create stores a new favorite.
func (r *FavoriteRepository) Create(ctx context.Context, favorite *entity.Favorite) error {
	schema, err := fromFavorite(favorite)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to marshal favorite")
	}

	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = time.Now()
	}
	schema.UpdatedAt = schema.CreatedAt

	query := `
		INSERT INTO favorites (
			user_id, source, name, grade, tier, quality, icon,
			current_price, previous_price, target_price, info, options,
			item_id, match_key, is_alerted, active,
			last_checked_at, last_notified_at, created_at, updated_at
		) VALUES (
			:user_id, :source, :name, :grade, :tier, :quality, :icon,
			:current_price, :previous_price, :target_price, :info, :options,
			:item_id, :match_key, :is_alerted, :active,
			:last_checked_at, :last_notified_at, :created_at, :updated_at
		)
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, schema)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert favorite")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&favorite.ID); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to scan favorite id")
		}
	}

	return nil
}

// GetByID returns one favorite.
func (r *FavoriteRepository) GetByID(ctx context.Context, id int64) (*entity.Favorite, error) {
	query := `SELECT ` + favoriteColumns + ` FROM favorites WHERE id = $1`

	var schema favoriteSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.FavoriteNotFound, "favorite not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get favorite")
	}

	return schema.toDomain()
}

// ListActive returns every favorite eligible for polling.
func (r *FavoriteRepository) ListActive(ctx context.Context) ([]entity.Favorite, error) {
	query := `SELECT ` + favoriteColumns + ` FROM favorites WHERE active ORDER BY id ASC`

	var schemas []favoriteSchema
	if err := r.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list active favorites")
	}

	favorites := make([]entity.Favorite, 0, len(schemas))
	for i := range schemas {
		favorite, err := schemas[i].toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert favorite")
		}
		favorites = append(favorites, *favorite)
	}

	return favorites, nil
}

// UpdateSnapshot writes the freshly collected prices onto a favorite.
func (r *FavoriteRepository) UpdateSnapshot(
	ctx context.Context,
	id int64,
	currentPrice float64,
	previousPrice *float64,
	checkedAt time.Time,
) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE favorites
			SET current_price = $1,
			    previous_price = $2,
			    last_checked_at = $3,
			    updated_at = $3
			WHERE id = $4`

		return r.execUpdateTx(ctx, tx, query, currentPrice, previousPrice, checkedAt, id)
	})
}

// MarkAlerted latches the alert flag so the favorite does not fire again
// until the user resets it.
func (r *FavoriteRepository) MarkAlerted(ctx context.Context, id int64, notifiedAt time.Time) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE favorites
			SET is_alerted = TRUE,
			    last_notified_at = $1,
			    updated_at = $1
			WHERE id = $2`

		return r.execUpdateTx(ctx, tx, query, notifiedAt, id)
	})
}

// ResetAlert re-arms a favorite after an explicit user reset.
func (r *FavoriteRepository) ResetAlert(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE favorites
			SET is_alerted = FALSE,
			    updated_at = $1
			WHERE id = $2`

		return r.execUpdateTx(ctx, tx, query, time.Now(), id)
	})
}

// SetActive toggles polling for a favorite.
func (r *FavoriteRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE favorites
			SET active = $1,
			    updated_at = $2
			WHERE id = $3`

		return r.execUpdateTx(ctx, tx, query, active, time.Now(), id)
	})
}

// Delete removes a favorite permanently.
func (r *FavoriteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to delete favorite")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.FavoriteNotFound, "favorite not found")
	}

	return nil
}

// ActiveTouchedSince reports whether any active favorite of the given
// identity group was checked after the cutoff. Drives auto-watch eviction.
func (r *FavoriteRepository) ActiveTouchedSince(ctx context.Context, groupKey string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM favorites
			WHERE active
			  AND last_checked_at > $2
			  AND (
			        (source = 'market' AND item_id IS NOT NULL AND 'market:' || item_id::text = $1)
			     OR (source = 'auction' AND match_key IS NOT NULL AND 'auction:' || match_key = $1)
			  )
		)`

	var touched bool
	if err := r.db.GetContext(ctx, &touched, query, groupKey, since); err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to check favorite activity")
	}

	return touched, nil
}

func (r *FavoriteRepository) execUpdateTx(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to execute update")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.FavoriteNotFound, fmt.Sprintf("favorite not found: %v", args[len(args)-1]))
	}

	return nil
}
