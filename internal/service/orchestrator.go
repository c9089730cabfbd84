package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/groq"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/market"
	"github.com/Ankitanand2411/Agent-x402/internal/config"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/agentrun"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
	"github.com/Ankitanand2411/Agent-x402/internal/port/progress"
)

// systemPrompt instructs the model on tool use and cost discipline. The
// model sees each tool's price inside its description and is told to pick
// the cheapest equivalent tool.
const systemPrompt = `You are an autonomous agent that can use tools from a paid marketplace.

IMPORTANT RULES:
1. First analyze the user's query to determine if a tool is needed
2. If multiple tools provide the same capability, ALWAYS choose the lowest-cost tool
3. Only call a tool if it is absolutely necessary to answer the question
4. Construct arguments exactly according to the tool's parameter schema
5. Be concise and helpful in your responses

Each tool has a monetary cost stated in its description. Consider cost when selecting tools.`

// Marketplace is the gateway surface the orchestrator drives: discovery and
// the priced invocation handshake.
type Marketplace interface {
	FetchTools(ctx context.Context) ([]market.Listing, error)
	Invoke(ctx context.Context, name string, args map[string]any, proofHeader string) (*market.Outcome, error)
}

// Settler converts a payment challenge into a proof the gateway accepts.
type Settler interface {
	Pay(ctx context.Context, ch payment.Challenge) (payment.Proof, error)
}

// ChatClient is the LLM surface used for tool selection and composition.
type ChatClient interface {
	ChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error)
}

// Orchestrator drives one user query through discovery, tool selection,
// payment settlement and answer composition. Sessions are independent;
// nothing carries over between queries.
type Orchestrator struct {
	market Marketplace
	payer  Settler
	llm    ChatClient
	cfg    config.Agent
	model  string
	sink   progress.Sink
	log    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. sink may be nil to discard
// progress events.
func NewOrchestrator(mkt Marketplace, payer Settler, llm ChatClient, cfg config.Agent, model string, sink progress.Sink, log *slog.Logger) *Orchestrator {
	if sink == nil {
		sink = progress.Discard{}
	}
	return &Orchestrator{
		market: mkt,
		payer:  payer,
		llm:    llm,
		cfg:    cfg,
		model:  model,
		sink:   sink,
		log:    log,
	}
}

// Run processes a single user query end to end. It returns a failed Outcome
// rather than an error for every fault after the session started, so the
// caller always has something renderable plus the failure classification.
func (o *Orchestrator) Run(ctx context.Context, query string) *agentrun.Outcome {
	s := &agentrun.Session{
		ID:    uuid.NewString(),
		Query: query,
		State: agentrun.StateDiscovering,
	}
	o.emit(s, agentrun.Event{Step: agentrun.StepAnalyzing, Message: "Analyzing your request..."})

	listings, err := o.market.FetchTools(ctx)
	if err != nil {
		return o.fail(s, agentrun.FailDiscovery, fmt.Sprintf("tool discovery failed: %v", err))
	}

	byName := make(map[string]market.Listing, len(listings))
	tools := make([]groq.Tool, 0, len(listings))
	for _, l := range listings {
		byName[l.Descriptor.Name] = l
		schema, err := l.Descriptor.SchemaJSON()
		if err != nil {
			return o.fail(s, agentrun.FailDiscovery, fmt.Sprintf("bad tool schema: %v", err))
		}
		tools = append(tools, groq.Tool{
			Type: "function",
			Function: groq.ToolFunction{
				Name:        l.Descriptor.Name,
				Description: l.Descriptor.Description,
				Parameters:  schema,
			},
		})
	}

	s.State = agentrun.StateSelecting
	messages := []groq.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}
	resp, err := o.llm.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Tools:       tools,
		ToolChoice:  "auto",
		Temperature: 0.5,
		MaxTokens:   4096,
	})
	if err != nil {
		return o.fail(s, agentrun.FailSelection, fmt.Sprintf("tool selection failed: %v", err))
	}
	msg, err := resp.Message()
	if err != nil {
		return o.fail(s, agentrun.FailSelection, err.Error())
	}

	if len(msg.ToolCalls) == 0 {
		s.State = agentrun.StateNoToolNeeded
		o.emit(s, agentrun.Event{Step: agentrun.StepDone, Message: "Answered without tools"})
		s.State = agentrun.StateDone
		return &agentrun.Outcome{Answer: msg.Content, Cost: 0}
	}

	if o.cfg.RejectMultiCall && len(msg.ToolCalls) > 1 {
		return o.fail(s, agentrun.FailSelection, fmt.Sprintf("model requested %d tools, single-tool policy in effect", len(msg.ToolCalls)))
	}

	// Only the first requested tool is honored; anything beyond it is
	// ignored so one query never settles more than one payment.
	call := msg.ToolCalls[0]
	listing, ok := byName[call.Function.Name]
	if !ok {
		return o.fail(s, agentrun.FailSelection, fmt.Sprintf("model selected unknown tool %q", call.Function.Name))
	}
	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return o.fail(s, agentrun.FailSelection, fmt.Sprintf("model produced invalid arguments: %v", err))
		}
	}
	if !listing.Priced && o.cfg.StrictPricing {
		return o.fail(s, agentrun.FailPayment, fmt.Sprintf("tool %q has no parseable price", listing.Descriptor.Name))
	}

	s.State = agentrun.StateSelected
	s.Tool = listing.Descriptor.Name
	s.ToolArgs = args
	s.Cost = listing.Price
	o.emit(s, agentrun.Event{
		Step:    agentrun.StepToolSelected,
		Message: "Selected tool: " + s.Tool,
		Tool:    s.Tool,
		Args:    args,
	})
	o.emit(s, agentrun.Event{
		Step:    agentrun.StepPaymentRequired,
		Message: fmt.Sprintf("Payment required: %g %s", listing.Price, listing.Currency),
		Tool:    s.Tool,
		Amount:  listing.Price,
	})

	outcome, err := o.invokeWithPayment(ctx, s, args)
	if err != nil {
		return o.fail(s, s.Failure, err.Error())
	}

	s.State = agentrun.StateComposing
	o.emit(s, agentrun.Event{Step: agentrun.StepGeneratingResponse, Message: "Generating final response..."})

	toolContent := o.toolMessageContent(outcome)
	messages = append(messages, msg, groq.ChatMessage{
		Role:       "tool",
		ToolCallID: call.ID,
		Name:       s.Tool,
		Content:    toolContent,
	})
	final, err := o.llm.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0.5,
		MaxTokens:   4096,
	})
	if err != nil {
		return o.fail(s, agentrun.FailCompose, fmt.Sprintf("answer composition failed: %v", err))
	}
	finalMsg, err := final.Message()
	if err != nil {
		return o.fail(s, agentrun.FailCompose, err.Error())
	}

	s.State = agentrun.StateDone
	o.emit(s, agentrun.Event{Step: agentrun.StepDone, Message: "Done", Tool: s.Tool, Amount: s.Cost})

	return &agentrun.Outcome{
		Answer:     finalMsg.Content,
		ToolUsed:   s.Tool,
		ToolArgs:   s.ToolArgs,
		ToolOutput: outcome.Body,
		AudioPath:  outcome.AudioPath,
		Cost:       s.Cost,
		Proof:      s.Proof,
	}
}

// invokeWithPayment runs the 402 handshake: call, settle on challenge,
// retry with proof. A second 402 after a settled payment is a hard failure,
// never another payment.
func (o *Orchestrator) invokeWithPayment(ctx context.Context, s *agentrun.Session, args map[string]any) (*market.Outcome, error) {
	s.State = agentrun.StateInvoking
	out, err := o.market.Invoke(ctx, s.Tool, args, "")
	if err != nil {
		s.Failure = agentrun.FailTool
		return nil, fmt.Errorf("tool invocation failed: %w", err)
	}

	if out.PaymentRequired() {
		s.State = agentrun.StatePaying
		o.emit(s, agentrun.Event{Step: agentrun.StepProcessingPayment, Message: "Processing payment...", Tool: s.Tool, Amount: s.Cost})

		proof, err := o.payer.Pay(ctx, *out.Challenge)
		if err != nil {
			s.Failure = agentrun.FailPayment
			return nil, fmt.Errorf("payment failed: %w", err)
		}
		s.Proof = &proof
		o.emit(s, agentrun.Event{Step: agentrun.StepPaymentConfirmed, Message: "Payment confirmed", Tool: s.Tool, Amount: s.Cost, TxHash: proof.TxHash})

		header, err := proof.Encode()
		if err != nil {
			s.Failure = agentrun.FailPayment
			return nil, err
		}
		s.State = agentrun.StateInvoking
		out, err = o.market.Invoke(ctx, s.Tool, args, header)
		if err != nil {
			s.Failure = agentrun.FailTool
			return nil, fmt.Errorf("paid retry failed: %w", err)
		}
		if out.PaymentRequired() {
			s.Failure = agentrun.FailPayment
			return nil, fmt.Errorf("gateway rejected settled payment proof %s", proof.TxHash)
		}
	}

	if out.StatusCode >= http.StatusBadRequest {
		s.Failure = agentrun.FailTool
		return nil, fmt.Errorf("tool returned %d: %s", out.StatusCode, truncateBody(out.Body))
	}
	return out, nil
}

// toolMessageContent renders the tool result for the composition turn.
// Audio results pass a small JSON stub; the binary itself never reaches
// the model.
func (o *Orchestrator) toolMessageContent(out *market.Outcome) string {
	if out.AudioPath != "" {
		stub, _ := json.Marshal(map[string]string{"type": "audio", "format": "wav", "path": out.AudioPath})
		return string(stub)
	}
	return string(out.Body)
}

func (o *Orchestrator) fail(s *agentrun.Session, kind agentrun.FailureKind, msg string) *agentrun.Outcome {
	if kind == agentrun.FailNone {
		kind = agentrun.FailTool
	}
	s.State = agentrun.StateFailed
	s.Failure = kind
	o.log.Error("session failed", "session", s.ID, "failure", string(kind), "error", msg)
	o.emit(s, agentrun.Event{Step: agentrun.StepFailed, Message: msg, Tool: s.Tool})

	cost := 0.0
	if s.Proof != nil {
		// Payment already settled; the cost was incurred even though the
		// session failed afterwards.
		cost = s.Cost
	}
	return &agentrun.Outcome{
		Answer:   "Sorry, I encountered an error: " + msg,
		ToolUsed: s.Tool,
		ToolArgs: s.ToolArgs,
		Cost:     cost,
		Proof:    s.Proof,
		Failure:  kind,
	}
}

func (o *Orchestrator) emit(s *agentrun.Session, ev agentrun.Event) {
	ev.SessionID = s.ID
	o.sink.Emit(ev)
}

// truncateBody bounds error payloads embedded in failure messages.
func truncateBody(body []byte) string {
	const maxLen = 200
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}
