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

// ListLocations handles GET /api/v1/locations.
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	locations, err := h.repo.ListLocations(r.Context(), userID)
	if err != nil {
		h.log.Error("listing locations failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if locations == nil {
		locations = []plant.Location{}
	}

	writeJSON(w, http.StatusOK, locations)
}

// GetLocation handles GET /api/v1/locations/{id}.
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	loc, err := h.repo.GetLocation(r.Context(), userID, id)
	if err != nil {
		h.log.Error("getting location failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// CreateLocation handles POST /api/v1/locations.
func (h *Handlers) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	loc := plant.Location{
		ID:        uuid.NewString(),
		Name:      req.Name,
		City:      req.City,
		Country:   req.Country,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		UserID:    UserID(r.Context()),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.repo.CreateLocation(r.Context(), loc); err != nil {
		h.log.Error("creating location failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	writeJSON(w, http.StatusCreated, loc)
}

// UpdateLocation handles PUT /api/v1/locations/{id}.
// Full overwrite of the mutable fields; no staleness check.
func (h *Handlers) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	var req locationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.repo.GetLocation(r.Context(), userID, id)
	if err != nil {
		h.log.Error("getting location for update failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	existing.Name = req.Name
	existing.City = req.City
	existing.Country = req.Country
	existing.Latitude = req.Latitude
	existing.Longitude = req.Longitude

	if err := h.repo.UpdateLocation(r.Context(), *existing); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "location not found")
			return
		}
		h.log.Error("updating location failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update location")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// DeleteLocation handles DELETE /api/v1/locations/{id}.
// Refused with 409 while any plant still references the location.
func (h *Handlers) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteLocation(r.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrLocationHasPlants):
			writeError(w, http.StatusConflict, "location has plants associated with it; delete or move the plants first")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "location not found")
		default:
			h.log.Error("deleting location failed", "id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to delete location")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPlantsAtLocation handles GET /api/v1/locations/{id}/plants.
func (h *Handlers) ListPlantsAtLocation(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")

	plants, err := h.repo.ListPlantsByLocation(r.Context(), userID, id)
	if err != nil {
		h.log.Error("listing plants at location failed", "location", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if plants == nil {
		plants = []plant.Plant{}
	}

	writeJSON(w, http.StatusOK, plants)
}
