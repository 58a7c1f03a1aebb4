package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/UnAfraid/ipconfd/pkg/config"
	"github.com/UnAfraid/ipconfd/pkg/manage"
)

func NewRouter(
	conf *config.Config,
	manageService manage.Service,
) http.Handler {
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:      conf.CorsAllowedOrigins,
		AllowedMethods:      []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:      []string{"*"},
		AllowCredentials:    conf.CorsAllowCredentials,
		AllowPrivateNetwork: conf.CorsAllowPrivateNetwork,
	})

	interfaces := &interfaceHandler{
		manageService: manageService,
	}

	router := chi.NewRouter()
	router.Use(corsMiddleware.Handler)

	router.HandleFunc("/health", func(writer http.ResponseWriter, request *http.Request) {})

	router.Route("/api", func(r chi.Router) {
		r.Handle("/events", newEventsHandler(manageService, conf.SubscriptionAllowedOrigins))

		r.Route("/interfaces", func(r chi.Router) {
			r.Get("/", interfaces.list)
			r.Route("/{index}", func(r chi.Router) {
				r.Get("/", interfaces.get)
				r.Post("/configure", interfaces.configure)
				r.Put("/ipv6/privacy", interfaces.setPrivacy)
				r.Delete("/ipv6/privacy", interfaces.resetPrivacy)
				r.Put("/{family}/method", interfaces.setMethod)
				r.Put("/{family}/address", interfaces.setAddress)
				r.Put("/{family}/properties", interfaces.applyProperties)
			})
		})
	})

	return router
}
