package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/critfumble/internal/services"
	"github.com/jwebster45206/critfumble/pkg/roll"
)

// Roller resolves one roll request for a caller address.
type Roller interface {
	Roll(ctx context.Context, req roll.Request, addr string) (*roll.Result, error)
}

type RollHandler struct {
	roller Roller
	log    *slog.Logger
}

func NewRollHandler(roller Roller, log *slog.Logger) *RollHandler {
	return &RollHandler{
		roller: roller,
		log:    log,
	}
}

func (h *RollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RollHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req roll.Request
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Debug("Invalid roll request body", "error", err)
		writeJSON(w, h.log, http.StatusBadRequest, &roll.Result{
			Status:       roll.StatusError,
			ErrorMessage: "Invalid request data.",
		})
		return
	}

	res, err := h.roller.Roll(r.Context(), req, services.ClientAddr(r))
	if err != nil {
		if errors.Is(err, roll.ErrInvalidInput) {
			writeJSON(w, h.log, http.StatusBadRequest, roll.ErrorResult(err))
			return
		}
		h.log.Error("Roll failed", "error", err)
		writeJSON(w, h.log, http.StatusInternalServerError, &roll.Result{
			Status:       roll.StatusError,
			ErrorMessage: "Internal server error",
		})
		return
	}

	writeJSON(w, h.log, http.StatusOK, res)
}
