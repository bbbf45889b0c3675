package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemregistry/pkg/app"
	"github.com/ghuser/itemregistry/services/item/application/handlers"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
)

// ItemRoutes registers item endpoints on the provided chi router.
func ItemRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	log := a.Logger
	r.Group(func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", handlers.NewPostItemHandler(svcs, log).Execute)
			r.Get("/", handlers.NewListItemsHandler(svcs, log).Execute)
			r.Get("/{id}", handlers.NewGetItemHandler(svcs, log).Execute)
			r.Put("/{id}", handlers.NewPutItemHandler(svcs, log).Execute)
			r.Patch("/{id}", handlers.NewPatchItemHandler(svcs, log).Execute)
			r.Delete("/{id}", handlers.NewDeleteItemHandler(svcs, log).Execute)
		})
	})
}
