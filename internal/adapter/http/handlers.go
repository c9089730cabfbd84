package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
	"github.com/Ankitanand2411/Agent-x402/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Catalog  *tool.Catalog
	Executor *service.Executor
}

// invocationResponse is the tool invocation envelope. On upstream failure
// Error carries the upstream payload verbatim.
type invocationResponse struct {
	Success bool            `json:"success"`
	Result  string          `json:"result,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// toolView is the discovery payload: the wire descriptor plus the price
// parsed out of the description for callers that do not want to parse it.
type toolView struct {
	tool.Descriptor
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "tool marketplace gateway is running",
	})
}

// ListTools returns the wire descriptors of every marketplace tool. The
// price travels embedded in each description.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.List())
}

// ToolInfo returns the descriptors with the price broken out as fields.
func (h *Handlers) ToolInfo(w http.ResponseWriter, _ *http.Request) {
	tools := h.Catalog.List()
	views := make([]toolView, 0, len(tools))
	for _, d := range tools {
		views = append(views, toolView{Descriptor: d, Price: d.Price, Currency: d.Currency})
	}
	writeJSON(w, http.StatusOK, views)
}

// InvokeTool returns the invocation handler for one named tool. The payment
// gate runs before this handler; by the time it executes the call has been
// admitted.
func (h *Handlers) InvokeTool(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		args, ok := readJSON[map[string]any](w, r)
		if !ok {
			return
		}

		res, err := h.Executor.Execute(r.Context(), name, args)
		if err != nil {
			h.writeExecutionError(w, name, err)
			return
		}

		if res.Audio != nil {
			w.Header().Set("Content-Type", res.MIME)
			w.WriteHeader(res.Status)
			_, _ = w.Write(res.Audio)
			return
		}

		writeJSON(w, res.Status, invocationResponse{
			Success: res.Success,
			Result:  res.Summary,
			Data:    res.Data,
			Error:   res.Err,
		})
	}
}

// UnknownTool rejects invocations of tools outside the catalog.
func (h *Handlers) UnknownTool(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "unknown tool")
}

func (h *Handlers) writeExecutionError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown tool")
	default:
		slog.Error("tool execution failed", "tool", name, "error", err)
		errMsg, _ := json.Marshal("internal server error")
		writeJSON(w, http.StatusInternalServerError, invocationResponse{
			Success: false,
			Result:  "Internal error",
			Error:   errMsg,
		})
	}
}
