package domain

import "context"

// AvailableBorrowerID is the reserved borrower sentinel meaning "no
// borrower". It is never assigned to a real user: SQLite AUTOINCREMENT
// ids start at 1.
const AvailableBorrowerID int64 = 0

// Borrower display labels for the two non-user states.
const (
	BorrowerLabelAvailable = "Available"
	BorrowerLabelUnknown   = "Unknown User"
)

// Book is a catalog entry. BorrowedByUserID is either the sentinel
// (available) or the id of the borrowing user.
type Book struct {
	ID               int64
	Title            string
	Author           string
	ImagePath        string
	BorrowedByUserID int64
}

// Available reports whether the book currently has no borrower.
func (b *Book) Available() bool {
	return b.BorrowedByUserID == AvailableBorrowerID
}

// BookWithBorrower is a listing row: the book plus its resolved
// borrower display name.
type BookWithBorrower struct {
	Book
	BorrowerName string
}

// BookRepository defines persistence operations for books. Mutating
// operations report outcomes as tagged errors; "not found" is never
// collapsed into a store failure.
type BookRepository interface {
	Create(ctx context.Context, book *Book) error
	GetByID(ctx context.Context, id int64) (*Book, error)
	// List returns all books ordered by title ascending, with borrower
	// names resolved in the same query.
	List(ctx context.Context) ([]BookWithBorrower, error)
	// SetBorrower assigns the borrower only if the book is currently
	// available. Returns ErrAlreadyBorrowed when it is not, ErrNotFound
	// when the book does not exist.
	SetBorrower(ctx context.Context, bookID, userID int64) error
	// ClearBorrower resets the borrower to the sentinel only if the
	// book is currently borrowed. Returns ErrAlreadyAvailable when it
	// is not, ErrNotFound when the book does not exist.
	ClearBorrower(ctx context.Context, bookID int64) error
	Delete(ctx context.Context, id int64) error
	// ResolveBorrowerName maps a borrower reference to a display name:
	// the available label for the sentinel, the user's name otherwise,
	// or the unknown label when the reference is dangling.
	ResolveBorrowerName(ctx context.Context, userID int64) (string, error)
}

// CoverCache stores rescaled cover bitmaps so repeated detail views do
// not refetch the source image.
type CoverCache interface {
	Save(ctx context.Context, bookID int64, data []byte) error
	Get(ctx context.Context, bookID int64) ([]byte, error)
	Delete(ctx context.Context, bookID int64) error
}
