package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmarkhart/stacks/internal/domain"
)

// CatalogService orchestrates catalog reads and mutations. It holds no
// session state itself: the authenticated user id arrives per call
// from the caller's session.
type CatalogService struct {
	books  domain.BookRepository
	covers domain.CoverCache
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(books domain.BookRepository, covers domain.CoverCache) *CatalogService {
	return &CatalogService{books: books, covers: covers}
}

// Add creates a catalog entry. Title and author are required after
// trimming; the image path is optional and not validated as a URI.
func (s *CatalogService) Add(ctx context.Context, title, author, imagePath string) (*domain.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", domain.ErrInvalidInput)
	}

	book := &domain.Book{
		Title:     title,
		Author:    author,
		ImagePath: strings.TrimSpace(imagePath),
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// Borrow assigns the book to the user. The repository performs the
// availability check and the write as one atomic update, so the
// Available -> Borrowed transition cannot race.
func (s *CatalogService) Borrow(ctx context.Context, bookID, userID int64) error {
	return s.books.SetBorrower(ctx, bookID, userID)
}

// Return releases the book back to the catalog.
func (s *CatalogService) Return(ctx context.Context, bookID int64) error {
	return s.books.ClearBorrower(ctx, bookID)
}

// Delete removes a book permanently. The caller must have confirmed
// the action explicitly; any logged-in user may delete any book. The
// cached cover is dropped alongside the row, best effort.
func (s *CatalogService) Delete(ctx context.Context, bookID int64, confirmed bool) error {
	if !confirmed {
		return domain.ErrConfirmRequired
	}
	if err := s.books.Delete(ctx, bookID); err != nil {
		return err
	}
	if s.covers != nil {
		if err := s.covers.Delete(ctx, bookID); err != nil {
			return fmt.Errorf("drop cached cover: %w", err)
		}
	}
	return nil
}

// List returns the full catalog, title ascending, with borrower
// display names resolved.
func (s *CatalogService) List(ctx context.Context) ([]domain.BookWithBorrower, error) {
	return s.books.List(ctx)
}

// Get returns a single book by id.
func (s *CatalogService) Get(ctx context.Context, bookID int64) (*domain.Book, error) {
	return s.books.GetByID(ctx, bookID)
}

// BorrowerName resolves a borrower reference to its display label.
func (s *CatalogService) BorrowerName(ctx context.Context, userID int64) (string, error) {
	return s.books.ResolveBorrowerName(ctx, userID)
}
