package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

const requestColumns = `id, description, requester_id, created`

func scanRequest(row rowScanner) (*models.ItemRequest, error) {
	var r models.ItemRequest
	if err := row.Scan(&r.ID, &r.Description, &r.RequesterID, &r.Created); err != nil {
		return nil, err
	}
	r.Created = fromStored(r.Created)
	return &r, nil
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO requests (description, requester_id, created) VALUES (?, ?, ?)`,
		req.Description, req.RequesterID, toStored(req.Created))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+requestColumns+` FROM requests WHERE id = ?`), id)
	r, err := scanRequest(row)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return r, nil
}

func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = ? ORDER BY created DESC, id DESC`,
		requesterID)
}

// GetRequestsExcept pages through requests posted by everybody but requesterID, newest first.
func (db *DB) GetRequestsExcept(ctx context.Context, requesterID int64, limit, offset int) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id <> ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`,
		requesterID, limit, offset)
}
