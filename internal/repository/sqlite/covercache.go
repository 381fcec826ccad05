package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tmarkhart/stacks/internal/domain"
)

// CoverCache implements domain.CoverCache using SQLite BLOBs.
type CoverCache struct {
	db *sql.DB
}

func (c *CoverCache) Save(ctx context.Context, bookID int64, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cover_cache (book_id, data) VALUES (?, ?)
		 ON CONFLICT(book_id) DO UPDATE SET data = excluded.data`,
		bookID, data,
	)
	if err != nil {
		return fmt.Errorf("save cover blob: %w", err)
	}
	return nil
}

func (c *CoverCache) Get(ctx context.Context, bookID int64) ([]byte, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM cover_cache WHERE book_id = ?`, bookID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get cover blob: %w", err)
	}
	return data, nil
}

func (c *CoverCache) Delete(ctx context.Context, bookID int64) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM cover_cache WHERE book_id = ?`, bookID,
	)
	if err != nil {
		return fmt.Errorf("delete cover blob: %w", err)
	}
	return nil
}
