package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greenhaus/plant-tracker/internal/plant"
	"github.com/greenhaus/plant-tracker/internal/storage"
)

// ListPlants handles GET /api/v1/plants, with an optional ?location_id= filter.
func (h *Handlers) ListPlants(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var (
		plants []plant.Plant
		err    error
	)
	if locationID := r.URL.Query().Get("location_id"); locationID != "" {
		plants, err = h.repo.ListPlantsByLocation(r.Context(), userID, locationID)
	} else {
		plants, err = h.repo.ListPlants(r.Context(), userID)
	}
	if err != nil {
		h.log.Error("listing plants failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if plants == nil {
		plants = []plant.Plant{}
	}

	writeJSON(w, http.StatusOK, plants)
}

// GetPlant handles GET /api/v1/plants/{id}.
func (h *Handlers) GetPlant(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	p, err := h.repo.GetPlant(r.Context(), userID, id)
	if err != nil {
		h.log.Error("getting plant failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// plantFromRequest builds a full record from a validated payload, checking
// the cross-field invariants the struct tags cannot express.
func (h *Handlers) plantFromRequest(w http.ResponseWriter, r *http.Request, req *plantRequest) (*plant.Plant, bool) {
	planted, lastWatered, err := req.dates()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return nil, false
	}
	if lastWatered.After(plant.Today().Time) {
		writeError(w, http.StatusBadRequest, "last watering date cannot be in the future")
		return nil, false
	}

	if req.LocationID != nil {
		loc, err := h.repo.GetLocation(r.Context(), UserID(r.Context()), *req.LocationID)
		if err != nil {
			h.log.Error("checking plant location failed", "location", *req.LocationID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return nil, false
		}
		if loc == nil {
			writeError(w, http.StatusBadRequest, "location does not exist")
			return nil, false
		}
	}

	return &plant.Plant{
		Name:             req.Name,
		Species:          req.Species,
		PlantType:        req.PlantType,
		WeeklyWaterNeed:  req.WeeklyWaterNeed,
		ExpectedHumidity: req.ExpectedHumidity,
		LocationID:       req.LocationID,
		ImageURL:         req.ImageURL,
		PlantedDate:      planted,
		WateringInterval: req.WateringInterval,
		LastWateringDate: lastWatered,
		UserID:           UserID(r.Context()),
	}, true
}

// CreatePlant handles POST /api/v1/plants.
func (h *Handlers) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var req plantRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p, ok := h.plantFromRequest(w, r, &req)
	if !ok {
		return
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()

	if err := h.repo.CreatePlant(r.Context(), *p); err != nil {
		h.log.Error("creating plant failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create plant")
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlant handles PUT /api/v1/plants/{id}.
// Full overwrite; cached health series for the plant are dropped since the
// care expectations may have changed.
func (h *Handlers) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	var req plantRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.repo.GetPlant(r.Context(), userID, id)
	if err != nil {
		h.log.Error("getting plant for update failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	p, ok := h.plantFromRequest(w, r, &req)
	if !ok {
		return
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt

	if err := h.repo.UpdatePlant(r.Context(), *p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		h.log.Error("updating plant failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update plant")
		return
	}

	if err := h.cache.Invalidate(r.Context(), id); err != nil {
		h.log.Warn("cache invalidate failed after plant update", "id", id, "err", err)
	}

	writeJSON(w, http.StatusOK, p)
}

// DeletePlant handles DELETE /api/v1/plants/{id}.
// Stored health rows are left behind as orphaned cache entries.
func (h *Handlers) DeletePlant(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.repo.DeletePlant(r.Context(), userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		h.log.Error("deleting plant failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete plant")
		return
	}

	if err := h.cache.Invalidate(r.Context(), id); err != nil {
		h.log.Warn("cache invalidate failed after plant delete", "id", id, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordWatering handles POST /api/v1/plants/{id}/watering.
// Sets the plant's last watering date to today and returns the refreshed
// record. No history log is kept.
func (h *Handlers) RecordWatering(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.repo.RecordWatering(r.Context(), userID, id, plant.Today()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		h.log.Error("recording watering failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to record watering")
		return
	}

	p, err := h.repo.GetPlant(r.Context(), userID, id)
	if err != nil || p == nil {
		h.log.Error("reloading plant after watering failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, p)
}
