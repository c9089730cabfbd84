// Package service contains the gateway and agent application services:
// tool execution, payment settlement and the tool orchestration loop.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/adzuna"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/groq"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/otel"
	"github.com/Ankitanand2411/Agent-x402/internal/config"
	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
)

// Result is the normalized outcome of one tool execution. Status is the
// HTTP status the caller should relay; for upstream failures it is the
// upstream's own status. Audio, when non-nil, replaces the JSON envelope
// as a raw binary body.
type Result struct {
	Status  int
	Success bool
	Summary string
	Data    json.RawMessage
	Err     json.RawMessage
	Audio   []byte
	MIME    string
}

// weatherEntry is one record of the built-in weather dataset.
type weatherEntry struct {
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    string `json:"humidity"`
}

// weatherData is a fixed in-memory dataset; the weather tools exist to
// exercise the payment flow, not to forecast.
var weatherData = map[string]weatherEntry{
	"San Francisco, CA": {Temperature: "72°F", Condition: "Sunny", Humidity: "65%"},
	"New York, NY":      {Temperature: "65°F", Condition: "Cloudy", Humidity: "70%"},
	"London, UK":        {Temperature: "58°F", Condition: "Rainy", Humidity: "85%"},
}

// Executor validates arguments against each tool's schema and dispatches
// to the capability backing it.
type Executor struct {
	catalog *tool.Catalog
	jobs    *adzuna.Client
	speech  *groq.Client
	groqCfg config.Groq
	metrics *otel.Metrics
	log     *slog.Logger
	schemas map[string]*jsonschema.Schema
}

// NewExecutor compiles the argument schema of every catalog tool up front
// so invalid descriptors fail at startup rather than on first call.
func NewExecutor(catalog *tool.Catalog, jobs *adzuna.Client, speech *groq.Client, groqCfg config.Groq, metrics *otel.Metrics, log *slog.Logger) (*Executor, error) {
	schemas := make(map[string]*jsonschema.Schema, len(catalog.List()))
	for _, d := range catalog.List() {
		doc, err := d.SchemaJSON()
		if err != nil {
			return nil, err
		}
		compiler := jsonschema.NewCompiler()
		id := "tool://" + d.Name
		if err := compiler.AddResource(id, strings.NewReader(string(doc))); err != nil {
			return nil, fmt.Errorf("add schema for %q: %w", d.Name, err)
		}
		sch, err := compiler.Compile(id)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %q: %w", d.Name, err)
		}
		schemas[d.Name] = sch
	}
	return &Executor{
		catalog: catalog,
		jobs:    jobs,
		speech:  speech,
		groqCfg: groqCfg,
		metrics: metrics,
		log:     log,
		schemas: schemas,
	}, nil
}

// Execute runs the named tool with the given arguments. The returned error
// is non-nil only for internal faults; validation failures are reported via
// domain.ErrValidation and upstream failures come back as a failed Result
// carrying the upstream's status and payload.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	d, ok := e.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown tool %q", domain.ErrNotFound, name)
	}

	if sch := e.schemas[name]; sch != nil {
		if err := sch.Validate(normalizeArgs(args)); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidation, validationMessage(err))
		}
	}

	if e.metrics != nil {
		e.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", name)))
	}

	start := time.Now()
	res, err := e.dispatch(ctx, d, args)
	if e.metrics != nil {
		e.metrics.UpstreamMillis.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("tool", name)))
		if err != nil || (res != nil && !res.Success) {
			e.metrics.ToolFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", name)))
		}
	}
	return res, err
}

func (e *Executor) dispatch(ctx context.Context, d tool.Descriptor, args map[string]any) (*Result, error) {
	switch d.Name {
	case "get_weather1", "get_weather2", "get_weather3":
		return e.weather(args), nil
	case "get_audio":
		return e.audio(ctx, args)
	case "adzuna_search_jobs":
		return e.jobCall(ctx, args, "Adzuna job search completed", "Adzuna job search failed",
			func(ctx context.Context, p adzuna.SearchParams) (json.RawMessage, error) {
				return e.jobs.SearchJobs(ctx, p)
			})
	case "adzuna_get_categories":
		return e.jobCall(ctx, args, "Categories fetched", "Failed to fetch categories",
			func(ctx context.Context, p adzuna.SearchParams) (json.RawMessage, error) {
				return e.jobs.Categories(ctx, p.Country)
			})
	case "adzuna_salary_histogram":
		return e.jobCall(ctx, args, "Salary histogram fetched", "Failed to fetch salary histogram", e.jobs.SalaryHistogram)
	case "adzuna_top_companies":
		return e.jobCall(ctx, args, "Top companies fetched", "Failed to fetch top companies", e.jobs.TopCompanies)
	case "adzuna_geodata":
		return e.jobCall(ctx, args, "Geographic job data fetched", "Failed to fetch geodata", e.jobs.Geodata)
	case "adzuna_salary_history":
		return e.jobCall(ctx, args, "Salary history fetched", "Failed to fetch salary history", e.jobs.SalaryHistory)
	default:
		return nil, fmt.Errorf("%w: tool %q has no capability", domain.ErrNotFound, d.Name)
	}
}

// weather looks a location up in the fixed dataset. A miss is a successful
// invocation with a failed lookup, not an error.
func (e *Executor) weather(args map[string]any) *Result {
	location, _ := args["location"].(string)
	w, ok := weatherData[location]
	if !ok {
		return &Result{
			Status:  http.StatusOK,
			Success: false,
			Summary: "Weather data not available for this location",
		}
	}
	data, _ := json.Marshal(w)
	return &Result{
		Status:  http.StatusOK,
		Success: true,
		Summary: fmt.Sprintf("%s, %s, Humidity: %s", w.Condition, w.Temperature, w.Humidity),
		Data:    data,
	}
}

func (e *Executor) audio(ctx context.Context, args map[string]any) (*Result, error) {
	text, _ := args["text"].(string)
	if text == "" {
		return nil, fmt.Errorf("%w: text required", domain.ErrValidation)
	}
	wav, err := e.speech.CreateSpeech(ctx, groq.SpeechRequest{
		Model: e.groqCfg.SpeechModel,
		Voice: e.groqCfg.SpeechVoice,
		Input: text,
	})
	if err != nil {
		return upstreamResult(err, "Speech synthesis failed")
	}
	return &Result{
		Status:  http.StatusOK,
		Success: true,
		Audio:   wav,
		MIME:    "audio/wav",
	}, nil
}

func (e *Executor) jobCall(ctx context.Context, args map[string]any, okMsg, failMsg string, call func(context.Context, adzuna.SearchParams) (json.RawMessage, error)) (*Result, error) {
	data, err := call(ctx, searchParams(args))
	if err != nil {
		return upstreamResult(err, failMsg)
	}
	return &Result{
		Status:  http.StatusOK,
		Success: true,
		Summary: okMsg,
		Data:    data,
	}, nil
}

// upstreamResult folds a classified upstream failure into a failed Result.
// Anything unclassified propagates as an internal fault.
func upstreamResult(err error, summary string) (*Result, error) {
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		return nil, err
	}
	res := &Result{Success: false, Summary: summary}
	switch ue.Kind {
	case domain.UpstreamStatus:
		res.Status = ue.StatusCode
		if json.Valid(ue.Body) {
			res.Err = ue.Body
		} else {
			res.Err, _ = json.Marshal(string(ue.Body))
		}
	case domain.UpstreamTimeout:
		res.Status = http.StatusGatewayTimeout
		res.Err, _ = json.Marshal("upstream request timed out")
	default:
		res.Status = http.StatusBadGateway
		res.Err, _ = json.Marshal("upstream unreachable")
	}
	return res, nil
}

func searchParams(args map[string]any) adzuna.SearchParams {
	return adzuna.SearchParams{
		Country:        stringArg(args, "country"),
		Keywords:       stringArg(args, "keywords"),
		Location:       stringArg(args, "location"),
		Category:       stringArg(args, "category"),
		Months:         intArg(args, "months"),
		Page:           intArg(args, "page"),
		ResultsPerPage: intArg(args, "resultsPerPage"),
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		return n
	default:
		return 0
	}
}

// normalizeArgs round-trips args through JSON so schema validation sees
// the same value shapes a decoded request body would have.
func normalizeArgs(args map[string]any) any {
	if args == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return args
	}
	return v
}

// validationMessage flattens a schema validation error to its first line.
func validationMessage(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
