package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/Ankitanand2411/Agent-x402/internal/middleware"
)

// MountRoutes registers the gateway routes. Each priced tool gets its own
// invocation route with the payment gate applied; discovery and health stay
// open so callers can see prices before paying.
func MountRoutes(r chi.Router, h *Handlers, gate *middleware.PaymentGate) {
	r.Get("/health", h.Health)
	r.Get("/tools", h.ListTools)
	r.Get("/tools/info", h.ToolInfo)

	for _, name := range h.Catalog.Names() {
		r.With(gate.Require(name)).Post("/tools/"+name, h.InvokeTool(name))
	}
	r.Post("/tools/{toolId}", h.UnknownTool)
}
