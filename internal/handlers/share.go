package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/critfumble/internal/services"
	"github.com/jwebster45206/critfumble/pkg/roll"
)

type ShareRequest struct {
	Message string `json:"message"`
}

type ShareHandler struct {
	sharer services.Sharer
	log    *slog.Logger
}

func NewShareHandler(sharer services.Sharer, log *slog.Logger) *ShareHandler {
	return &ShareHandler{
		sharer: sharer,
		log:    log,
	}
}

func (h *ShareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ShareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, h.log, http.StatusBadRequest, statusResponse{Status: roll.StatusError, Error: "Invalid request data."})
		return
	}

	err := h.sharer.Share(r.Context(), req.Message)
	switch {
	case err == nil:
		writeJSON(w, h.log, http.StatusOK, statusResponse{Status: roll.StatusSuccess})
	case errors.Is(err, services.ErrWebhookNotConfigured):
		writeJSON(w, h.log, http.StatusInternalServerError, statusResponse{Status: roll.StatusError, Error: "Webhook URL not configured on server."})
	case errors.Is(err, services.ErrEmptyMessage):
		writeJSON(w, h.log, http.StatusBadRequest, statusResponse{Status: roll.StatusError, Error: "No message content provided."})
	case errors.Is(err, services.ErrWebhookRejected):
		h.log.Warn("Share rejected by webhook", "error", err)
		writeJSON(w, h.log, http.StatusBadGateway, statusResponse{Status: roll.StatusError, Error: "Failed to send message to webhook."})
	default:
		h.log.Error("Share failed", "error", err)
		writeJSON(w, h.log, http.StatusInternalServerError, statusResponse{Status: roll.StatusError, Error: "Internal server error"})
	}
}
