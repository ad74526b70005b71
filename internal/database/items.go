package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shareit/internal/models"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item      models.Item
		requestID sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID, &requestID); err != nil {
		return nil, err
	}
	if requestID.Valid {
		id := requestID.Int64
		item.RequestID = &id
	}
	return &item, nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO items (name, description, available, owner_id, request_id) VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Available, item.OwnerID, nullableID(item.RequestID))
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	item, err := scanItem(row)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return item, nil
}

// UpdateItem writes the fields set in patch. An empty patch only checks that
// the item exists.
func (db *DB) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) error {
	var (
		sets []string
		args []interface{}
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Available != nil {
		sets = append(sets, "available = ?")
		args = append(args, *patch.Available)
	}
	if len(sets) == 0 {
		_, err := db.GetItemByID(ctx, id)
		return err
	}

	args = append(args, id)
	result, err := db.ExecContext(ctx,
		db.rebind(`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Item, error) {
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
}

// SearchItems matches text case-insensitively against name or description of
// available items. Folding is Unicode-aware on both drivers.
func (db *DB) SearchItems(ctx context.Context, text string, limit, offset int) ([]*models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	fold := db.foldFunc()
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE available = ?
		   AND (`+fold+`(name) LIKE ? ESCAPE '\' OR `+fold+`(description) LIKE ? ESCAPE '\')
		 ORDER BY id LIMIT ? OFFSET ?`,
		true, pattern, pattern, limit, offset)
}

func (db *DB) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE request_id IN (`+placeholders(len(requestIDs))+`) ORDER BY id`,
		int64Args(requestIDs)...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
