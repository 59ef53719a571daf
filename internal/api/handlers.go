package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	repo     Repository
	cache    SeriesCache
	builder  SeriesBuilder
	overview WeatherOverview
	uploader ImageUploader
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies. The
// uploader may be nil when image storage is not configured.
func NewHandlers(repo Repository, cache SeriesCache, builder SeriesBuilder, overview WeatherOverview, uploader ImageUploader, log *slog.Logger) *Handlers {
	return &Handlers{
		repo:     repo,
		cache:    cache,
		builder:  builder,
		overview: overview,
		uploader: uploader,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation. A false return means the response is already written.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

// GetWeatherOverview handles GET /api/v1/weather.
// Current-day conditions for all of the user's locations, fetched in
// parallel; per-location weather failures are masked by fallback data.
func (h *Handlers) GetWeatherOverview(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	locations, err := h.repo.ListLocations(r.Context(), userID)
	if err != nil {
		h.log.Error("listing locations for weather overview failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	results, err := h.overview.FetchAll(r.Context(), locations)
	if err != nil {
		h.log.Error("weather overview fetch failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch weather overview")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// UploadImage handles POST /api/v1/images.
// Accepts a multipart "image" part and returns the stored public URL.
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "image upload is not configured")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image part")
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(r.Context(), UserID(r.Context()), header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.log.Error("image upload failed", "filename", header.Filename, "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// HealthCheck pings DB and Redis; returns 200 if both ok, 503 otherwise.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis
// connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
