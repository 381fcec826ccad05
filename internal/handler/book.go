package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tmarkhart/stacks/internal/domain"
	"github.com/tmarkhart/stacks/internal/service"
)

// BookHandler handles catalog HTTP requests.
type BookHandler struct {
	catalog *service.CatalogService
	covers  *service.CoverService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(catalog *service.CatalogService, covers *service.CoverService) *BookHandler {
	return &BookHandler{catalog: catalog, covers: covers}
}

// HandleList returns the full catalog with borrower labels.
// GET /api/books
// Response: {"books": [...]}
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list books")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"books": toBookDTOs(books),
	})
}

// HandleCreate adds a book to the catalog.
// POST /api/books
// Request:  {"title":"...","author":"...","imagePath":"..."}
// Response: {"book": {...}}
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string `json:"title"`
		Author    string `json:"author"`
		ImagePath string `json:"imagePath"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	book, err := h.catalog.Add(r.Context(), req.Title, req.Author, req.ImagePath)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error().Err(err).Msg("add book")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"book": toBookDTO(book, domain.BorrowerLabelAvailable),
	})
}

// HandleGet returns a single book with its borrower label.
// GET /api/books/{id}
// Response: {"book": {...}}
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No such book.")
			return
		}
		log.Error().Err(err).Msg("get book")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	name, err := h.catalog.BorrowerName(r.Context(), book.BorrowedByUserID)
	if err != nil {
		log.Error().Err(err).Msg("resolve borrower name")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"book": toBookDTO(book, name),
	})
}

// HandleBorrow assigns the book to the authenticated user.
// POST /api/books/{id}/borrow
// Response: 204, 404, or 409 when already borrowed
func (h *BookHandler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	if err := h.catalog.Borrow(r.Context(), id, user.ID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "No such book.")
		case errors.Is(err, domain.ErrAlreadyBorrowed):
			writeError(w, http.StatusConflict, "This book is already borrowed.")
		default:
			log.Error().Err(err).Msg("borrow book")
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReturn releases the book back to the catalog.
// POST /api/books/{id}/return
// Response: 204, 404, or 409 when already available
func (h *BookHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Return(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "No such book.")
		case errors.Is(err, domain.ErrAlreadyAvailable):
			writeError(w, http.StatusConflict, "This book is already in the library.")
		default:
			log.Error().Err(err).Msg("return book")
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete permanently removes a book. The request must carry an
// explicit confirmation; without it the delete is refused.
// DELETE /api/books/{id}
// Request:  {"confirm": true}
// Response: 204, 404, or 428 when unconfirmed
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	// An absent body means "not confirmed", not a malformed request.
	_ = readJSON(r, &req)

	if err := h.catalog.Delete(r.Context(), id, req.Confirm); err != nil {
		switch {
		case errors.Is(err, domain.ErrConfirmRequired):
			writeError(w, http.StatusPreconditionRequired, "Deletion must be confirmed.")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "No such book.")
		default:
			log.Error().Err(err).Msg("delete book")
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCover returns the book's cover scaled for display. Each
// request represents a new selection, so the cover generation is
// bumped first; a fetch that loses the race to a newer selection is
// dropped with 204.
// GET /api/books/{id}/cover
// Response: image/png, 204 when superseded, 404 when unavailable
func (h *BookHandler) HandleCover(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No such book.")
			return
		}
		log.Error().Err(err).Msg("get book for cover")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	gen := h.covers.Bump()
	data, err := h.covers.Fetch(r.Context(), gen, book)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStale):
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, domain.ErrCoverUnavailable):
			writeError(w, http.StatusNotFound, "No Image Available")
		default:
			log.Error().Err(err).Msg("fetch cover")
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("write cover response")
	}
}

// bookID parses the {id} route parameter, writing a 400 on failure.
func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid book id.")
		return 0, false
	}
	return id, true
}
