package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tmarkhart/stacks/internal/domain"
	"github.com/tmarkhart/stacks/internal/repository/sqlite"
)

func addTestUser(t *testing.T, db *sqlite.DB, name, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, PasswordHash: "hash"}
	if err := sqlite.NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func addTestBook(t *testing.T, db *sqlite.DB, title, author string) *domain.Book {
	t.Helper()
	book := &domain.Book{Title: title, Author: author}
	if err := sqlite.NewBookRepository(db).Create(context.Background(), book); err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return book
}

func TestBookRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	book := &domain.Book{Title: "Dune", Author: "Herbert", ImagePath: "http://example.com/dune.jpg"}
	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if book.ID == 0 {
		t.Fatal("expected book ID to be set after create")
	}
	if !book.Available() {
		t.Fatal("expected new book to be available")
	}
}

func TestBookRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)

	_, err := repo.GetByID(context.Background(), 99999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookRepository_List_SortedByTitle(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	addTestBook(t, db, "Solaris", "Lem")
	addTestBook(t, db, "Dune", "Herbert")
	addTestBook(t, db, "Neuromancer", "Gibson")

	books, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"Dune", "Neuromancer", "Solaris"}
	if len(books) != len(want) {
		t.Fatalf("expected %d books, got %d", len(want), len(books))
	}
	for i, title := range want {
		if books[i].Title != title {
			t.Fatalf("position %d: expected %q, got %q", i, title, books[i].Title)
		}
	}
}

func TestBookRepository_List_BorrowerLabels(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	ada := addTestUser(t, db, "Ada", "ada@x.com")
	available := addTestBook(t, db, "Available Book", "Author")
	borrowed := addTestBook(t, db, "Borrowed Book", "Author")
	dangling := addTestBook(t, db, "Dangling Book", "Author")

	if err := repo.SetBorrower(ctx, borrowed.ID, ada.ID); err != nil {
		t.Fatalf("SetBorrower: %v", err)
	}
	// Point the third book at a user id that does not exist.
	if err := repo.SetBorrower(ctx, dangling.ID, 4242); err != nil {
		t.Fatalf("SetBorrower dangling: %v", err)
	}

	books, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	labels := make(map[int64]string)
	for _, b := range books {
		labels[b.ID] = b.BorrowerName
	}

	if labels[available.ID] != domain.BorrowerLabelAvailable {
		t.Fatalf("available book: expected %q, got %q", domain.BorrowerLabelAvailable, labels[available.ID])
	}
	if labels[borrowed.ID] != "Ada" {
		t.Fatalf("borrowed book: expected Ada, got %q", labels[borrowed.ID])
	}
	if labels[dangling.ID] != domain.BorrowerLabelUnknown {
		t.Fatalf("dangling book: expected %q, got %q", domain.BorrowerLabelUnknown, labels[dangling.ID])
	}
}

func TestBookRepository_SetBorrower(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	ada := addTestUser(t, db, "Ada", "ada@x.com")
	bob := addTestUser(t, db, "Bob", "bob@x.com")
	book := addTestBook(t, db, "Dune", "Herbert")

	if err := repo.SetBorrower(ctx, book.ID, ada.ID); err != nil {
		t.Fatalf("SetBorrower: %v", err)
	}

	got, err := repo.GetByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.BorrowedByUserID != ada.ID {
		t.Fatalf("expected borrower %d, got %d", ada.ID, got.BorrowedByUserID)
	}

	// A second borrow must fail and leave the borrower unchanged.
	err = repo.SetBorrower(ctx, book.ID, bob.ID)
	if !errors.Is(err, domain.ErrAlreadyBorrowed) {
		t.Fatalf("expected ErrAlreadyBorrowed, got %v", err)
	}
	got, _ = repo.GetByID(ctx, book.ID)
	if got.BorrowedByUserID != ada.ID {
		t.Fatalf("borrower changed after failed borrow: %d", got.BorrowedByUserID)
	}
}

func TestBookRepository_SetBorrower_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)

	err := repo.SetBorrower(context.Background(), 99999, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookRepository_ClearBorrower(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	ada := addTestUser(t, db, "Ada", "ada@x.com")
	book := addTestBook(t, db, "Dune", "Herbert")

	// Returning an available book is a conflict.
	err := repo.ClearBorrower(ctx, book.ID)
	if !errors.Is(err, domain.ErrAlreadyAvailable) {
		t.Fatalf("expected ErrAlreadyAvailable, got %v", err)
	}

	if err := repo.SetBorrower(ctx, book.ID, ada.ID); err != nil {
		t.Fatalf("SetBorrower: %v", err)
	}
	if err := repo.ClearBorrower(ctx, book.ID); err != nil {
		t.Fatalf("ClearBorrower: %v", err)
	}

	got, err := repo.GetByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Available() {
		t.Fatalf("expected book to be available, borrower is %d", got.BorrowedByUserID)
	}
}

func TestBookRepository_ClearBorrower_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)

	err := repo.ClearBorrower(context.Background(), 99999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	book := addTestBook(t, db, "Dune", "Herbert")

	if err := repo.Delete(ctx, book.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	books, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected empty listing after delete, got %d books", len(books))
	}

	// Deleting again reports the absence.
	if err := repo.Delete(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestBookRepository_ResolveBorrowerName(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewBookRepository(db)
	ctx := context.Background()

	ada := addTestUser(t, db, "Ada", "ada@x.com")

	name, err := repo.ResolveBorrowerName(ctx, domain.AvailableBorrowerID)
	if err != nil {
		t.Fatalf("ResolveBorrowerName(sentinel): %v", err)
	}
	if name != domain.BorrowerLabelAvailable {
		t.Fatalf("expected %q for sentinel, got %q", domain.BorrowerLabelAvailable, name)
	}

	name, err = repo.ResolveBorrowerName(ctx, ada.ID)
	if err != nil {
		t.Fatalf("ResolveBorrowerName(ada): %v", err)
	}
	if name != "Ada" {
		t.Fatalf("expected Ada, got %q", name)
	}

	name, err = repo.ResolveBorrowerName(ctx, 4242)
	if err != nil {
		t.Fatalf("ResolveBorrowerName(dangling): %v", err)
	}
	if name != domain.BorrowerLabelUnknown {
		t.Fatalf("expected %q for dangling reference, got %q", domain.BorrowerLabelUnknown, name)
	}
}
