package stats_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gatekeeper/internal/logger"
	"gatekeeper/internal/sse"
	"gatekeeper/internal/stats"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	StatsService *stats.Service
	SalesEvents  *sse.SalesEventEmitter
	Logger       *logger.Logger
}

func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	eventStats, err := h.StatsService.GetEventStats(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("STATS_API", err.Error())
		http.Error(w, "Failed to load event stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventStats)
}

func (h *Handler) GetCheckedInCount(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	count, err := h.StatsService.GetCheckedInCount(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("STATS_API", err.Error())
		http.Error(w, "Failed to count check-ins", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"checked_in": count})
}

// StreamSales pushes live sale events for one event over SSE. Host
// dashboards keep this open while the manage page is visible.
func (h *Handler) StreamSales(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	salesChan := h.SalesEvents.Subscribe(r.Context(), eventID)
	h.Logger.Info("STATS_API", fmt.Sprintf("Sales stream opened for event %s", eventID))

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for sale := range salesChan {
		payload, err := json.Marshal(sale)
		if err != nil {
			h.Logger.Error("STATS_API", fmt.Sprintf("Failed to marshal sale event: %v", err))
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	h.Logger.Info("STATS_API", fmt.Sprintf("Sales stream closed for event %s", eventID))
}
