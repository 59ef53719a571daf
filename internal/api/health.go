package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenhaus/plant-tracker/internal/cache"
	"github.com/greenhaus/plant-tracker/internal/plant"
)

// healthSeriesResponse is the payload for the plant health endpoint. The
// fallback flag tells the client the underlying weather was synthetic
// placeholder data.
type healthSeriesResponse struct {
	PlantID   string         `json:"plant_id"`
	StartDate plant.Date     `json:"start_date"`
	EndDate   plant.Date     `json:"end_date"`
	Source    string         `json:"source"`
	Fallback  bool           `json:"fallback"`
	Series    []plant.Health `json:"series"`
}

// defaultHealthWindowDays is the window used when the caller gives no
// range: the past week, ending today.
const defaultHealthWindowDays = 7

// GetPlantHealth handles GET /api/v1/plants/{id}/health.
//
// Recompute-on-demand is the canonical path: Redis cache → live weather +
// scorer → rows upserted into plant_health and cached. The stored rows are
// only a cache; ?source=stored reads them back without recomputing.
func (h *Handlers) GetPlantHealth(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	start, end, ok := h.healthWindow(w, r)
	if !ok {
		return
	}

	p, err := h.repo.GetPlant(r.Context(), userID, id)
	if err != nil {
		h.log.Error("getting plant for health failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	if r.URL.Query().Get("source") == "stored" {
		rows, err := h.repo.GetPlantHealth(r.Context(), id, start, end)
		if err != nil {
			h.log.Error("reading stored health rows failed", "id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if rows == nil {
			rows = []plant.Health{}
		}
		writeJSON(w, http.StatusOK, healthSeriesResponse{
			PlantID: id, StartDate: start, EndDate: end, Source: "stored", Series: rows,
		})
		return
	}

	if cached, err := h.cache.Get(r.Context(), id, start, end); err != nil {
		h.log.Error("health cache get failed", "id", id, "err", err)
	} else if cached != nil {
		writeJSON(w, http.StatusOK, healthSeriesResponse{
			PlantID: id, StartDate: start, EndDate: end, Source: "cache",
			Fallback: cached.Fallback, Series: cached.Rows,
		})
		return
	}

	if p.LocationID == nil {
		writeError(w, http.StatusUnprocessableEntity, "plant has no location; assign one to compute health")
		return
	}
	loc, err := h.repo.GetLocation(r.Context(), userID, *p.LocationID)
	if err != nil || loc == nil {
		h.log.Error("getting plant location for health failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rows, fallback := h.builder.BuildSeries(r.Context(), p.ID, p.WeeklyWaterNeed, p.ExpectedHumidity,
		loc.Latitude, loc.Longitude, start, end)

	// Persisted rows and the Redis entry are both cache layers; failing
	// to write either is not fatal to the response.
	if err := h.repo.UpsertPlantHealth(r.Context(), rows); err != nil {
		h.log.Warn("persisting health rows failed", "id", id, "err", err)
	}
	if err := h.cache.Set(r.Context(), id, start, end, &cache.Series{Rows: rows, Fallback: fallback}); err != nil {
		h.log.Warn("health cache set failed", "id", id, "err", err)
	}

	writeJSON(w, http.StatusOK, healthSeriesResponse{
		PlantID: id, StartDate: start, EndDate: end, Source: "computed",
		Fallback: fallback, Series: rows,
	})
}

// healthWindow parses start_date/end_date query params, defaulting to the
// past week. A false return means the response is already written.
func (h *Handlers) healthWindow(w http.ResponseWriter, r *http.Request) (start, end plant.Date, ok bool) {
	end = plant.Today()
	start = end.AddDays(-(defaultHealthWindowDays - 1))

	var err error
	if s := r.URL.Query().Get("start_date"); s != "" {
		if start, err = plant.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return start, end, false
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		if end, err = plant.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return start, end, false
		}
	}
	if start.After(end.Time) {
		writeError(w, http.StatusBadRequest, "start_date must not be after end_date")
		return start, end, false
	}
	return start, end, true
}
