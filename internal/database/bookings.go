package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const bookingColumns = `b.id, b.start_date, b.end_date, b.item_id, b.booker_id, b.status,
	i.id, i.name, i.description, i.available, i.owner_id, i.request_id,
	u.id, u.name, u.email`

const bookingFrom = ` FROM bookings b
	JOIN items i ON i.id = b.item_id
	JOIN users u ON u.id = b.booker_id`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b         models.Booking
		item      models.Item
		booker    models.User
		requestID sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.Start, &b.End, &b.ItemID, &b.BookerID, &b.Status,
		&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID, &requestID,
		&booker.ID, &booker.Name, &booker.Email,
	)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		id := requestID.Int64
		item.RequestID = &id
	}
	b.Start = fromStored(b.Start)
	b.End = fromStored(b.End)
	b.Item = &item
	b.Booker = &booker
	return &b, nil
}

// CreateBookingWithLock takes the item with a compare-and-set on its
// availability flag and stores the booking as WAITING, atomically.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			db.rebind(`UPDATE items SET available = ? WHERE id = ? AND available = ?`),
			false, booking.ItemID, true)
		if err != nil {
			return fmt.Errorf("failed to reserve item in tx: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotAvailable
		}

		booking.Status = models.StatusWaiting
		id, err := db.insertReturningID(ctx, tx,
			`INSERT INTO bookings (start_date, end_date, item_id, booker_id, status) VALUES (?, ?, ?, ?, ?)`,
			toStored(booking.Start), toStored(booking.End), booking.ItemID, booking.BookerID, booking.Status)
		if err != nil {
			return fmt.Errorf("failed to insert booking in tx: %w", err)
		}
		booking.ID = id
		return nil
	})
}

// ResolveBooking moves a WAITING booking to status and releases its item.
// It fails with ErrConcurrentModification when the booking already left WAITING.
func (db *DB) ResolveBooking(ctx context.Context, id int64, status string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			db.rebind(`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`),
			status, id, models.StatusWaiting)
		if err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrConcurrentModification
		}

		_, err = tx.ExecContext(ctx,
			db.rebind(`UPDATE items SET available = ? WHERE id = (SELECT item_id FROM bookings WHERE id = ?)`),
			true, id)
		if err != nil {
			return fmt.Errorf("failed to release item: %w", err)
		}
		return nil
	})
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+bookingColumns+bookingFrom+` WHERE b.id = ?`), id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return b, nil
}

// ListBookings returns bookings matching filter, newest start first.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.BookerID != 0 {
		conds = append(conds, "b.booker_id = ?")
		args = append(args, filter.BookerID)
	}
	if filter.OwnerID != 0 {
		conds = append(conds, "i.owner_id = ?")
		args = append(args, filter.OwnerID)
	}

	now := toStored(filter.Now)
	switch filter.State {
	case models.StateCurrent:
		conds = append(conds, "b.start_date <= ? AND b.end_date >= ?")
		args = append(args, now, now)
	case models.StatePast:
		conds = append(conds, "b.end_date < ?")
		args = append(args, now)
	case models.StateFuture:
		conds = append(conds, "b.start_date > ?")
		args = append(args, now)
	case models.StateWaiting:
		conds = append(conds, "b.status = ?")
		args = append(args, models.StatusWaiting)
	case models.StateRejected:
		conds = append(conds, "b.status = ?")
		args = append(args, models.StatusRejected)
	}

	query := `SELECT ` + bookingColumns + bookingFrom
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.start_date DESC, b.id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetLastBooking returns the latest non-rejected booking of the item that
// started before now, or nil when there is none.
func (db *DB) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.adjacentBooking(ctx,
		`WHERE b.item_id = ? AND b.start_date < ? AND b.status <> ? ORDER BY b.start_date DESC, b.id DESC LIMIT 1`,
		itemID, toStored(now), models.StatusRejected)
}

// GetNextBooking returns the earliest non-rejected booking of the item that
// starts after now, or nil when there is none.
func (db *DB) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.adjacentBooking(ctx,
		`WHERE b.item_id = ? AND b.start_date > ? AND b.status <> ? ORDER BY b.start_date ASC, b.id ASC LIMIT 1`,
		itemID, toStored(now), models.StatusRejected)
}

func (db *DB) adjacentBooking(ctx context.Context, where string, args ...interface{}) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+bookingColumns+bookingFrom+" "+where), args...)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get adjacent booking: %w", err)
	}
	return b, nil
}

// HasFinishedBooking reports whether bookerID has a booking of itemID that ended before now.
func (db *DB) HasFinishedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		db.rebind(`SELECT COUNT(*) FROM bookings WHERE item_id = ? AND booker_id = ? AND end_date < ?`),
		itemID, bookerID, toStored(now)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}
