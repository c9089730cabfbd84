package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/adzuna"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/groq"
	"github.com/Ankitanand2411/Agent-x402/internal/config"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
	"github.com/Ankitanand2411/Agent-x402/internal/middleware"
	"github.com/Ankitanand2411/Agent-x402/internal/service"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	catalog := tool.DefaultCatalog()
	exec, err := service.NewExecutor(
		catalog,
		adzuna.NewClient("http://unused", "id", "key"),
		groq.NewClient("http://unused", "key"),
		config.Defaults().Groq,
		nil,
		slog.Default(),
	)
	if err != nil {
		t.Fatal(err)
	}

	gate := middleware.NewPaymentGate(catalog, payment.Terms{
		Currency: "USDC",
		Network:  "sepolia",
		Asset:    "0xtoken",
		PayTo:    "0xgw",
	}, payment.AcceptPresence{}, nil, nil)

	r := chi.NewRouter()
	MountRoutes(r, &Handlers{Catalog: catalog, Executor: exec}, gate)
	return r
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestListToolsOpenEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, discovery must not require payment", rec.Code)
	}
	var tools []tool.Descriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &tools); err != nil {
		t.Fatal(err)
	}
	if len(tools) != 10 {
		t.Fatalf("tools = %d", len(tools))
	}
	for _, d := range tools {
		if _, _, ok := tool.ParsePrice(d.Description); !ok {
			t.Fatalf("tool %s listed without embedded price", d.Name)
		}
	}
}

func TestToolInfoBreaksOutPrices(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools/info", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var views []struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	for _, v := range views {
		if v.Price == "" {
			t.Fatalf("tool %s has no structured price", v.Name)
		}
	}
}

func TestInvokeHandshake(t *testing.T) {
	r := newTestRouter(t)

	// Unpaid attempt gets the challenge.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/get_weather1", strings.NewReader(`{"location":"San Francisco, CA"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	var ch payment.Challenge
	if err := json.Unmarshal(rec.Body.Bytes(), &ch); err != nil {
		t.Fatal(err)
	}
	if ch.Price != "0.04" {
		t.Fatalf("challenge price = %s", ch.Price)
	}

	// Retry with proof runs the tool.
	proof, _ := payment.NewProof("0xfeed", "sepolia", "0xme").Encode()
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/tools/get_weather1", strings.NewReader(`{"location":"San Francisco, CA"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(payment.ProofHeader, proof)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		Result  string `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Result != "Sunny, 72°F, Humidity: 65%" {
		t.Fatalf("body = %+v", body)
	}
}

func TestInvokeDataMissIsStill200(t *testing.T) {
	r := newTestRouter(t)
	proof, _ := payment.NewProof("0xfeed", "sepolia", "0xme").Encode()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/get_weather2", strings.NewReader(`{"location":"Nowhere"}`))
	req.Header.Set(payment.ProofHeader, proof)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Result  string `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success {
		t.Fatal("expected data miss")
	}
	if body.Result != "Weather data not available for this location" {
		t.Fatalf("result = %q", body.Result)
	}
}

func TestInvokeValidationError(t *testing.T) {
	r := newTestRouter(t)
	proof, _ := payment.NewProof("0xfeed", "sepolia", "0xme").Encode()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/get_weather1", strings.NewReader(`{}`))
	req.Header.Set(payment.ProofHeader, proof)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing required argument", rec.Code)
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/no_such_tool", strings.NewReader(`{}`)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
