package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/NethermindEth/incrementer/controller"
	"github.com/NethermindEth/incrementer/counter"
	"github.com/NethermindEth/incrementer/utils"
)

const maxRequestBytes = 4 * utils.Kilobyte

// IncrementRequest carries the amount exactly as typed. Parsing is left to the
// controller so a rejection shows up in every client's snapshot.
type IncrementRequest struct {
	Amount string `json:"amount"`
}

type ErrorResponse struct {
	Error  string          `json:"error"`
	Kind   controller.Kind `json:"kind"`
	Detail string          `json:"detail,omitempty"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.respond(w, h.controller.Connect(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.respond(w, h.controller.Refresh(r.Context()))
}

func (h *Handler) handleIncrement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IncrementRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: decode request: %w", counter.ErrInvalidAmount, err))
		return
	}
	h.respond(w, h.controller.Submit(r.Context(), req.Amount))
}

// respond writes the snapshot after a successful action and the classified error
// otherwise.
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := controller.Classify(err)
	h.writeJSON(w, StatusFor(kind), ErrorResponse{
		Error:  kind.Message(),
		Kind:   kind,
		Detail: err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		h.log.Debugw("Failed to write response", "err", err)
	}
}

// StatusFor maps a failure kind to the HTTP status the API answers with.
func StatusFor(kind controller.Kind) int {
	switch kind {
	case controller.None:
		return http.StatusOK
	case controller.InvalidInput:
		return http.StatusBadRequest
	case controller.AuthorizationDenied:
		return http.StatusForbidden
	case controller.Busy, controller.NotConnected:
		return http.StatusConflict
	case controller.CallReverted, controller.Overflow:
		return http.StatusUnprocessableEntity
	case controller.NetworkFailure:
		return http.StatusBadGateway
	case controller.EnvironmentMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
