package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aucwatch/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			// unauthorized zone
			r.Get("/search", handler(s.getV1Search))
			r.Post("/views", handler(s.postV1Views))

			r.Route("/items/{itemID}", func(r chi.Router) {
				r.Get("/history", handler(s.getV1ItemHistory))
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
