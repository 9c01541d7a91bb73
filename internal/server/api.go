package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/logging"
)

// maxBodySize caps POST bodies.
const maxBodySize = 64 << 10

type errorResponse struct {
	Error      string `json:"error"`
	Hint       string `json:"hint,omitempty"`
	NoResponse bool   `json:"no_response,omitempty"`
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.listDevices())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dev, err := s.resolve(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	h := s.handleFor(dev)
	state, err := h.state(ctx)
	s.config.Metrics.Poll(string(h.family), pollResult(err))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var values map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&values); err != nil {
		writeError(w, controller.NewValidationError("body must be a JSON object of parameter names to values"))
		return
	}

	dev, err := s.resolve(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	written, err := s.handleFor(dev).write(ctx, values)
	if err != nil {
		writeError(w, err)
		return
	}
	// WRITE is not acknowledged by controllers.
	writeJSON(w, http.StatusAccepted, map[string][]string{"written": written})
}

func pollResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case controller.IsNoResponse(err):
		return "no_response"
	default:
		return "error"
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, discovery.ErrDeviceNotFound):
		return http.StatusNotFound
	case controller.IsValidationError(err):
		return http.StatusBadRequest
	case controller.IsNoResponse(err), errors.Is(err, discovery.ErrNoUnitType):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error(), NoResponse: controller.IsNoResponse(err)}
	var devErr *controller.DeviceError
	if errors.As(err, &devErr) {
		resp.Hint = controller.GetTroubleshootingHint(err)
	}
	writeJSON(w, statusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}
