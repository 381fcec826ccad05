package handler

import (
	"time"

	"github.com/tmarkhart/stacks/internal/domain"
)

// bookIDOffset separates the public catalog number shown to users from
// the storage key.
const bookIDOffset int64 = 10000

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// BookDTO is the JSON representation of a book.
type BookDTO struct {
	ID           int64  `json:"id"`
	DisplayID    int64  `json:"displayId"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ImagePath    string `json:"imagePath"`
	Available    bool   `json:"available"`
	BorrowerName string `json:"borrowerName,omitempty"`
}

func toBookDTO(b *domain.Book, borrowerName string) BookDTO {
	return BookDTO{
		ID:           b.ID,
		DisplayID:    b.ID + bookIDOffset,
		Title:        b.Title,
		Author:       b.Author,
		ImagePath:    b.ImagePath,
		Available:    b.Available(),
		BorrowerName: borrowerName,
	}
}

func toBookDTOs(books []domain.BookWithBorrower) []BookDTO {
	dtos := make([]BookDTO, len(books))
	for i := range books {
		dtos[i] = toBookDTO(&books[i].Book, books[i].BorrowerName)
	}
	return dtos
}
