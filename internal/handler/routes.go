package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tmarkhart/stacks/internal/service"
)

// NewRouter builds the full route tree. Auth endpoints are public;
// everything under /api/books requires a valid session.
func NewRouter(auth *service.AuthService, catalog *service.CatalogService, covers *service.CoverService) *chi.Mux {
	ah := NewAuthHandler(auth)
	bh := NewBookHandler(catalog, covers)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)

	r.Get("/healthz", HandleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", ah.HandleRegister)
		r.Post("/auth/login", ah.HandleLogin)
		r.Post("/auth/logout", ah.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(auth))

			r.Get("/auth/me", ah.HandleMe)

			r.Get("/books", bh.HandleList)
			r.Post("/books", bh.HandleCreate)
			r.Get("/books/{id}", bh.HandleGet)
			r.Post("/books/{id}/borrow", bh.HandleBorrow)
			r.Post("/books/{id}/return", bh.HandleReturn)
			r.Delete("/books/{id}", bh.HandleDelete)
			r.Get("/books/{id}/cover", bh.HandleCover)
		})
	})

	return r
}
