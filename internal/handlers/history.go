package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/storage"
)

// HistoryReader returns recent narratives, newest first.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]storage.HistoryItem, error)
}

type HistoryResponse struct {
	Status  string                `json:"status"`
	History []storage.HistoryItem `json:"history"`
}

type HistoryHandler struct {
	reader HistoryReader
	log    *slog.Logger
}

func NewHistoryHandler(reader HistoryReader, log *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		reader: reader,
		log:    log,
	}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := storage.MaxHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = storage.ClampLimit(n)
	}

	items, err := h.reader.History(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to read history", "error", err)
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, http.StatusOK, HistoryResponse{Status: roll.StatusSuccess, History: items})
}
