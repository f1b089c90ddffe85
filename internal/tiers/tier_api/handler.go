package tier_api

import (
	"encoding/json"
	"errors"
	"net/http"

	"gatekeeper/internal/inventory"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
	"gatekeeper/internal/tiers"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TierService *tiers.TierService
	Inventory   *inventory.InventoryService
	Logger      *logger.Logger
}

type createTierRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Capacity int     `json:"capacity"`
}

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req createTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tier, err := h.TierService.CreateTier(r.Context(), eventID, req.Name, req.Price, req.Capacity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tier)
}

// ListTiers returns an event's tiers. Buyers get active tiers only;
// hosts pass ?include_inactive=true.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	tiersList, err := h.TierService.ListTiers(r.Context(), eventID, includeInactive)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tiersList)
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	tierID := chi.URLParam(r, "tierID")

	var update models.TierUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tier, err := h.TierService.UpdateTier(r.Context(), tierID, update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tier)
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	tierID := chi.URLParam(r, "tierID")

	availability, err := h.Inventory.GetAvailability(r.Context(), tierID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(availability)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tiers.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, tiers.ErrNotFound),
		errors.Is(err, tiers.ErrEventNotFound),
		errors.Is(err, inventory.ErrTierNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.Logger.Error("TIER_API", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
