package event_api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/events"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"

	"github.com/go-chi/chi/v5"
)

// 8 MB cap on poster uploads.
const maxPosterBytes = 8 << 20

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	hostID := auth.UserID(r.Context())
	if hostID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.EventService.CreateEvent(r.Context(), hostID, event)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	hostID := auth.UserID(r.Context())
	if hostID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	eventID := chi.URLParam(r, "eventID")

	var update models.Event
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), hostID, eventID, update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// ListEvents returns the public discovery feed, or the caller's own
// events (drafts included) with ?mine=true.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		eventsList []models.Event
		err        error
	)
	if r.URL.Query().Get("mine") == "true" {
		hostID := auth.UserID(r.Context())
		if hostID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		eventsList, err = h.EventService.ListEventsByHost(r.Context(), hostID)
	} else {
		eventsList, err = h.EventService.ListPublicEvents(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventsList)
}

// UploadPoster handles multipart poster uploads for an event.
func (h *Handler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	hostID := auth.UserID(r.Context())
	if hostID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	eventID := chi.URLParam(r, "eventID")

	if err := r.ParseMultipartForm(maxPosterBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("poster")
	if err != nil {
		http.Error(w, "poster file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPosterBytes))
	if err != nil {
		http.Error(w, "Failed to read poster: "+err.Error(), http.StatusBadRequest)
		return
	}

	url, err := h.EventService.UploadPoster(r.Context(), hostID, eventID, data, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"poster_url": url})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, events.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, events.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, events.ErrNotHost):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		h.Logger.Error("EVENT_API", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
