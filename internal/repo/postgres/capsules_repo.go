package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wardrobeapp/wardrobe/internal/domain/capsule"
	"github.com/wardrobeapp/wardrobe/internal/domain/item"
	"github.com/wardrobeapp/wardrobe/internal/observability"
)

const capsuleColumns = `id, user_id, name, description, layout, image_path, created_at`

type CapsulesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCapsulesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CapsulesRepo {
	return &CapsulesRepo{pool: pool, prom: prom}
}

func (r *CapsulesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanCapsule(row pgx.Row) (capsule.Capsule, error) {
	var c capsule.Capsule

	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Layout, &c.ImagePath, &c.CreatedAt)

	return c, err
}

// Create inserts the capsule and its association rows in one transaction.
// ItemIDs belonging to other users are dropped silently: the write succeeds
// with the valid subset. See the package docs before "fixing" this.
func (r *CapsulesRepo) Create(ctx context.Context, userID int64, f capsule.Fields, imagePath *string) (c capsule.Capsule, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("capsules.create", func() error {
		var e error
		c, e = scanCapsule(tx.QueryRow(ctx,
			`INSERT INTO capsules (user_id, name, layout, image_path)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+capsuleColumns,
			userID, f.Name, f.Layout, imagePath,
		))
		return e
	})

	if err != nil {
		return
	}

	c.Items, err = r.replaceAssociations(ctx, tx, c.ID, userID, f.ItemIDs)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

func (r *CapsulesRepo) ListByOwner(ctx context.Context, userID int64) (caps []capsule.Capsule, err error) {
	var rows pgx.Rows

	err = r.observe("capsules.list_by_owner", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT `+capsuleColumns+`
			 FROM capsules
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

	caps = make([]capsule.Capsule, 0)

	for rows.Next() {
		c, e := scanCapsule(rows)

		if e != nil {
			err = e
			return
		}
		c.Items = make([]item.Item, 0)
		caps = append(caps, c)
	}

	if err = rows.Err(); err != nil {
		return
	}

	if len(caps) == 0 {
		return
	}

	// eager-load items for the whole page in one query
	ids := make([]int64, 0, len(caps))
	index := make(map[int64]int, len(caps))

	for i, c := range caps {
		ids = append(ids, c.ID)
		index[c.ID] = i
	}

	var itemRows pgx.Rows

	err = r.observe("capsules.list_items", func() error {
		itemRows, err = r.pool.Query(ctx,
			`SELECT ci.capsule_id, `+prefixed("i", itemColumns)+`
			 FROM capsule_items ci
			 JOIN items i ON i.id = ci.item_id
			 WHERE ci.capsule_id = ANY($1)
			 ORDER BY ci.capsule_id ASC, i.id ASC`,
			ids,
		)
		return err
	})

	if err != nil {
		return
	}

	defer itemRows.Close()

	for itemRows.Next() {
		var capID int64
		var it item.Item

		e := itemRows.Scan(&capID, &it.ID, &it.UserID, &it.Name, &it.Category, &it.Color, &it.Style, &it.Season, &it.ImagePath, &it.CreatedAt)

		if e != nil {
			err = e
			return
		}

		i := index[capID]
		caps[i].Items = append(caps[i].Items, it)
	}

	err = itemRows.Err()

	return
}

// GetOwned mirrors the items repo: ErrNotFound for unknown ids, ErrForbidden
// for foreign ones. Items come back eagerly loaded.
func (r *CapsulesRepo) GetOwned(ctx context.Context, userID, id int64) (capsule.Capsule, error) {
	var c capsule.Capsule
	var err error

	err = r.observe("capsules.get_owned", func() error {
		c, err = scanCapsule(r.pool.QueryRow(ctx,
			`SELECT `+capsuleColumns+` FROM capsules WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return capsule.Capsule{}, capsule.ErrNotFound
		}

		return capsule.Capsule{}, err
	}

	if c.UserID != userID {
		return capsule.Capsule{}, capsule.ErrForbidden
	}

	c.Items, err = r.itemsFor(ctx, c.ID)

	if err != nil {
		return capsule.Capsule{}, err
	}

	return c, nil
}

// Update replaces name and layout unconditionally and the association set
// wholesale; an empty ItemIDs list clears the capsule. A nil imagePath keeps
// the stored screenshot.
func (r *CapsulesRepo) Update(ctx context.Context, userID, id int64, f capsule.Fields, imagePath *string) (c capsule.Capsule, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("capsules.update", func() error {
		var e error
		c, e = scanCapsule(tx.QueryRow(ctx,
			`UPDATE capsules
			 SET name = $3,
			     layout = $4,
			     image_path = COALESCE($5, image_path)
			 WHERE id = $1 AND user_id = $2
			 RETURNING `+capsuleColumns,
			id, userID, f.Name, f.Layout, imagePath,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = capsule.ErrNotFound
		}
		return
	}

	err = r.observe("capsules.clear_items", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM capsule_items WHERE capsule_id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	c.Items, err = r.replaceAssociations(ctx, tx, id, userID, f.ItemIDs)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

func (r *CapsulesRepo) Delete(ctx context.Context, userID, id int64) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("capsules.delete", func() error {
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM capsules WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return capsule.ErrNotFound
	}

	return nil
}

// replaceAssociations resolves ids against the owner's items and inserts the
// join rows. The filter runs in SQL so a foreign id never reaches the table.
func (r *CapsulesRepo) replaceAssociations(ctx context.Context, tx pgx.Tx, capsuleID, userID int64, itemIDs []int64) (items []item.Item, err error) {
	items = make([]item.Item, 0)

	if len(itemIDs) == 0 {
		return
	}

	var rows pgx.Rows

	err = r.observe("capsules.resolve_items", func() error {
		rows, err = tx.Query(ctx,
			`SELECT `+itemColumns+`
			 FROM items
			 WHERE id = ANY($1) AND user_id = $2
			 ORDER BY id ASC`,
			itemIDs, userID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	for rows.Next() {
		it, e := scanItem(rows)

		if e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	if err = rows.Err(); err != nil {
		return
	}

	for _, it := range items {
		err = r.observe("capsules.link_item", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO capsule_items (capsule_id, item_id) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				capsuleID, it.ID,
			)
			return e
		})

		if err != nil {
			return
		}
	}

	return
}

func (r *CapsulesRepo) itemsFor(ctx context.Context, capsuleID int64) (items []item.Item, err error) {
	var rows pgx.Rows

	err = r.observe("capsules.items_for", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT `+prefixed("i", itemColumns)+`
			 FROM capsule_items ci
			 JOIN items i ON i.id = ci.item_id
			 WHERE ci.capsule_id = $1
			 ORDER BY i.id ASC`,
			capsuleID,
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
