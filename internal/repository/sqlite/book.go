package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tmarkhart/stacks/internal/domain"
)

// BookRepository implements domain.BookRepository using SQLite.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new SQLite-backed BookRepository.
func NewBookRepository(db *DB) *BookRepository {
	return &BookRepository{db: db.SqlDB}
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO books (title, author, image_path, borrowed_by_user_id)
		 VALUES (?, ?, ?, ?)`,
		book.Title, book.Author, book.ImagePath, domain.AvailableBorrowerID,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	book.ID = id
	book.BorrowedByUserID = domain.AvailableBorrowerID
	return nil
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	book := &domain.Book{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, image_path, borrowed_by_user_id
		 FROM books WHERE id = ?`, id,
	).Scan(&book.ID, &book.Title, &book.Author, &book.ImagePath, &book.BorrowedByUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query book by id: %w", err)
	}
	return book, nil
}

// List returns all books ordered by title ascending. Borrower display
// names are resolved in the same query with a LEFT JOIN instead of one
// lookup per row.
func (r *BookRepository) List(ctx context.Context) ([]domain.BookWithBorrower, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.title, b.author, b.image_path, b.borrowed_by_user_id,
		        CASE WHEN b.borrowed_by_user_id = ? THEN ?
		             ELSE COALESCE(u.name, ?) END
		 FROM books b
		 LEFT JOIN users u ON u.id = b.borrowed_by_user_id
		 ORDER BY b.title ASC`,
		domain.AvailableBorrowerID, domain.BorrowerLabelAvailable, domain.BorrowerLabelUnknown,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.BookWithBorrower
	for rows.Next() {
		var b domain.BookWithBorrower
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ImagePath, &b.BorrowedByUserID, &b.BorrowerName); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// SetBorrower assigns the borrower with a single conditional update so
// two concurrent borrows of the same book cannot both succeed.
func (r *BookRepository) SetBorrower(ctx context.Context, bookID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET borrowed_by_user_id = ?
		 WHERE id = ? AND borrowed_by_user_id = ?`,
		userID, bookID, domain.AvailableBorrowerID,
	)
	if err != nil {
		return fmt.Errorf("set borrower: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return r.missingOrConflict(ctx, bookID, domain.ErrAlreadyBorrowed)
	}
	return nil
}

// ClearBorrower resets the borrower to the sentinel, again guarded by
// the current state.
func (r *BookRepository) ClearBorrower(ctx context.Context, bookID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET borrowed_by_user_id = ?
		 WHERE id = ? AND borrowed_by_user_id <> ?`,
		domain.AvailableBorrowerID, bookID, domain.AvailableBorrowerID,
	)
	if err != nil {
		return fmt.Errorf("clear borrower: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return r.missingOrConflict(ctx, bookID, domain.ErrAlreadyAvailable)
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResolveBorrowerName maps a single borrower reference to its display
// name. List resolves names in bulk; this exists for detail views.
func (r *BookRepository) ResolveBorrowerName(ctx context.Context, userID int64) (string, error) {
	if userID == domain.AvailableBorrowerID {
		return domain.BorrowerLabelAvailable, nil
	}
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Dangling reference: store inconsistency, not a failure.
			return domain.BorrowerLabelUnknown, nil
		}
		return "", fmt.Errorf("query borrower name: %w", err)
	}
	return name, nil
}

// missingOrConflict distinguishes "book does not exist" from "the
// conditional update guard failed" after a zero-row update.
func (r *BookRepository) missingOrConflict(ctx context.Context, bookID int64, conflict error) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`, bookID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return conflict
}
