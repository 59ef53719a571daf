package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is unauthenticated; everything else requires a
// bearer token from the identity provider. Rate limiting is applied
// globally: 60 requests per minute per IP.
func NewRouter(handlers *Handlers, jwtSecret string, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, redisClient, log))

	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret))

		r.Route("/api/v1/locations", func(r chi.Router) {
			r.Get("/", handlers.ListLocations)
			r.Post("/", handlers.CreateLocation)
			r.Get("/{id}", handlers.GetLocation)
			r.Put("/{id}", handlers.UpdateLocation)
			r.Delete("/{id}", handlers.DeleteLocation)
			r.Get("/{id}/plants", handlers.ListPlantsAtLocation)
		})

		r.Route("/api/v1/plants", func(r chi.Router) {
			r.Get("/", handlers.ListPlants)
			r.Post("/", handlers.CreatePlant)
			r.Get("/{id}", handlers.GetPlant)
			r.Put("/{id}", handlers.UpdatePlant)
			r.Delete("/{id}", handlers.DeletePlant)
			r.Post("/{id}/watering", handlers.RecordWatering)
			r.Get("/{id}/health", handlers.GetPlantHealth)
		})

		r.Get("/api/v1/weather", handlers.GetWeatherOverview)
		r.Post("/api/v1/images", handlers.UploadImage)
	})

	return r
}
