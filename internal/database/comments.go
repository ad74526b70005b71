package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`,
		comment.Text, comment.ItemID, comment.AuthorID, toStored(comment.Created))
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = id
	return nil
}

// GetCommentsByItem returns the item's comments newest first, with author names.
func (db *DB) GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	rows, err := db.QueryContext(ctx, db.rebind(
		`SELECT c.id, c.text, c.item_id, c.author_id, c.created, u.name
		 FROM comments c JOIN users u ON u.id = c.author_id
		 WHERE c.item_id = ?
		 ORDER BY c.created DESC, c.id DESC`), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.ItemID, &c.AuthorID, &c.Created, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.Created = fromStored(c.Created)
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}
