// Package progress defines the port for orchestration progress sinks.
package progress

import "github.com/Ankitanand2411/Agent-x402/internal/domain/agentrun"

// Sink receives fire-and-forget progress events from an orchestration
// session. Implementations must not block: a slow or absent observer cannot
// be allowed to affect control flow.
type Sink interface {
	Emit(ev agentrun.Event)
}

// Discard is a Sink that drops every event.
type Discard struct{}

// Emit implements Sink.
func (Discard) Emit(agentrun.Event) {}

// Multi fans events out to several sinks.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ev agentrun.Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Func adapts a function to the Sink interface.
type Func func(agentrun.Event)

// Emit implements Sink.
func (f Func) Emit(ev agentrun.Event) { f(ev) }
