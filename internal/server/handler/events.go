package handler

import (
	"log/slog"
	"net/http"

	"github.com/stakeline/stakeline/internal/domain"
	"github.com/stakeline/stakeline/internal/service"
)

// EventsHandler serves the event log and distribution history endpoints.
type EventsHandler struct {
	svc    *service.PoolService
	logger *slog.Logger
}

// NewEventsHandler creates an EventsHandler backed by the given service.
func NewEventsHandler(svc *service.PoolService, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{svc: svc, logger: logHandler(logger, "events")}
}

// ListEvents returns the persisted event log, newest first.
// GET /api/events
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list events failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListDistributions returns the yield distribution history, newest first.
// GET /api/distributions
func (h *EventsHandler) ListDistributions(w http.ResponseWriter, r *http.Request) {
	dists, err := h.svc.Distributions(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list distributions failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	if dists == nil {
		dists = []domain.Distribution{}
	}
	writeJSON(w, http.StatusOK, dists)
}
