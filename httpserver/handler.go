package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sokoerp/etims-bridge/metrics"
	"github.com/sokoerp/etims-bridge/simulator"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler serves the device API surface over HTTP, backed by the demo
// responder. It lets client stacks exercise the full transport path,
// including headers and envelope decoding, against a local server.
type Handler struct {
	responder *simulator.Responder
	log       *slog.Logger
}

// NewHandler creates an HTTP handler around the given demo responder.
func NewHandler(responder *simulator.Responder, log *slog.Logger) *Handler {
	return &Handler{responder: responder, log: log}
}

// HandleDeviceCall processes POST /etims/api/{endpoint}. The body is the
// JSON payload a real device would receive; the response is the standard
// result envelope.
func (h *Handler) HandleDeviceCall(w http.ResponseWriter, r *http.Request) {
	endpoint := chi.URLParam(r, "endpoint")
	if endpoint == "" {
		http.Error(w, "missing endpoint in URL", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read request body", "err", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	payload := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			h.log.Error("Invalid request payload", slog.String("endpoint", endpoint), "err", err)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	envelope, err := h.responder.Respond(endpoint, payload)
	if err != nil {
		h.log.Error("Demo responder failed", slog.String("endpoint", endpoint), "err", err)
		http.Error(w, fmt.Sprintf("responder error: %v", err), http.StatusInternalServerError)
		return
	}

	metrics.SimulatorRequests.WithLabelValues(endpoint).Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
