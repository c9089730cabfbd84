package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Ankitanand2411/Agent-x402/internal/domain/agentrun"
)

// EventProgress is the message type for orchestration progress events.
const EventProgress = "agent.progress"

// Emit implements the progress sink port: each orchestration event is
// broadcast to all connected observers. Fire-and-forget; failures are
// logged and dropped.
func (h *Hub) Emit(ev agentrun.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal progress event", "step", ev.Step, "error", err)
		return
	}

	h.Broadcast(context.Background(), Message{
		Type:    EventProgress,
		Payload: json.RawMessage(data),
	})
}
