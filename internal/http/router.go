package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jpereiran/txlink/internal/http/match"
	"github.com/jpereiran/txlink/internal/http/search"
)

func New(
	matchV1 *match.Handler,
	searchV1 *search.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			// Static segments register first so semantic_search and
			// transactions_with_users never resolve as a transaction id.
			searchV1.Routes(r)
			matchV1.Routes(r)
		})
	})

	return router
}
