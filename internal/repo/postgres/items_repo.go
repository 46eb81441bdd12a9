package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wardrobeapp/wardrobe/internal/domain/item"
	"github.com/wardrobeapp/wardrobe/internal/observability"
)

const itemColumns = `id, user_id, name, category, color, style, season, image_path, created_at`

type ItemsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewItemsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ItemsRepo {
	return &ItemsRepo{pool: pool, prom: prom}
}

func (r *ItemsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanItem(row pgx.Row) (item.Item, error) {
	var it item.Item

	err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Category, &it.Color, &it.Style, &it.Season, &it.ImagePath, &it.CreatedAt)

	return it, err
}

func (r *ItemsRepo) Create(ctx context.Context, userID int64, f item.Fields, imagePath *string) (item.Item, error) {
	var it item.Item
	var err error

	err = r.observe("items.create", func() error {
		it, err = scanItem(r.pool.QueryRow(ctx,
			`INSERT INTO items (user_id, name, category, color, style, season, image_path)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+itemColumns,
			userID, f.Name, f.Category, f.Color, f.Style, f.Season, imagePath,
		))
		return err
	})

	if err != nil {
		return item.Item{}, err
	}

	return it, nil
}

func (r *ItemsRepo) ListByOwner(ctx context.Context, userID int64) (items []item.Item, err error) {
	var rows pgx.Rows

	err = r.observe("items.list_by_owner", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT `+itemColumns+`
			 FROM items
			 WHERE user_id = $1
			 ORDER BY id ASC`,
			userID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]item.Item, 0)

	for rows.Next() {
		it, e := scanItem(rows)

		if e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()

	return
}

// GetOwned loads one item and enforces ownership: unknown id is ErrNotFound,
// an id belonging to someone else is ErrForbidden.
func (r *ItemsRepo) GetOwned(ctx context.Context, userID, id int64) (item.Item, error) {
	var it item.Item
	var err error

	err = r.observe("items.get_owned", func() error {
		it, err = scanItem(r.pool.QueryRow(ctx,
			`SELECT `+itemColumns+` FROM items WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, item.ErrNotFound
		}

		return item.Item{}, err
	}

	if it.UserID != userID {
		return item.Item{}, item.ErrForbidden
	}

	return it, nil
}

// Update replaces the editable fields wholesale. A nil imagePath keeps the
// stored one; callers pass a new path only when a new file was uploaded.
// Ownership is checked by the caller via GetOwned; two racing updates on the
// same row resolve to last-write-wins at the row level.
func (r *ItemsRepo) Update(ctx context.Context, userID, id int64, f item.Fields, imagePath *string) (item.Item, error) {
	var it item.Item
	var err error

	err = r.observe("items.update", func() error {
		it, err = scanItem(r.pool.QueryRow(ctx,
			`UPDATE items
			 SET name = $3,
			     category = $4,
			     color = $5,
			     style = $6,
			     season = $7,
			     image_path = COALESCE($8, image_path)
			 WHERE id = $1 AND user_id = $2
			 RETURNING `+itemColumns,
			id, userID, f.Name, f.Category, f.Color, f.Style, f.Season, imagePath,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, item.ErrNotFound
		}

		return item.Item{}, err
	}

	return it, nil
}

func (r *ItemsRepo) Delete(ctx context.Context, userID, id int64) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("items.delete", func() error {
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM items WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return item.ErrNotFound
	}

	return nil
}

// AllImagePaths returns every stored item image path. Used by the offline
// reprocessing tool, not by any request handler.
func (r *ItemsRepo) AllImagePaths(ctx context.Context) (paths []string, err error) {
	var rows pgx.Rows

	err = r.observe("items.all_image_paths", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT image_path FROM items WHERE image_path IS NOT NULL ORDER BY id ASC`,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	paths = make([]string, 0)

	for rows.Next() {
		var p string

		if e := rows.Scan(&p); e != nil {
			err = e
			return
		}
		paths = append(paths, p)
	}

	err = rows.Err()

	return
}
