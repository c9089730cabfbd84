package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/adapter/adzuna"
	"github.com/Ankitanand2411/Agent-x402/internal/adapter/groq"
	"github.com/Ankitanand2411/Agent-x402/internal/config"
	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
)

func newTestExecutor(t *testing.T, adzunaURL, groqURL string) *Executor {
	t.Helper()
	jobs := adzuna.NewClient(adzunaURL, "test-id", "test-key")
	speech := groq.NewClient(groqURL, "test-key")
	groqCfg := config.Defaults().Groq
	exec, err := NewExecutor(tool.DefaultCatalog(), jobs, speech, groqCfg, nil, slog.Default())
	if err != nil {
		t.Fatalf("executor: %v", err)
	}
	return exec
}

func TestExecuteWeatherKnownLocation(t *testing.T) {
	exec := newTestExecutor(t, "http://unused", "http://unused")

	res, err := exec.Execute(context.Background(), "get_weather1", map[string]any{"location": "San Francisco, CA"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Status != http.StatusOK {
		t.Fatalf("success=%v status=%d", res.Success, res.Status)
	}
	if res.Summary != "Sunny, 72°F, Humidity: 65%" {
		t.Fatalf("summary = %q", res.Summary)
	}

	var data map[string]string
	if err := json.Unmarshal(res.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["temperature"] != "72°F" || data["condition"] != "Sunny" || data["humidity"] != "65%" {
		t.Fatalf("data = %v", data)
	}
}

func TestExecuteWeatherUnknownLocation(t *testing.T) {
	exec := newTestExecutor(t, "http://unused", "http://unused")

	res, err := exec.Execute(context.Background(), "get_weather2", map[string]any{"location": "Nowhere"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected miss for unknown location")
	}
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d, a data miss is not a transport error", res.Status)
	}
	if res.Summary != "Weather data not available for this location" {
		t.Fatalf("summary = %q", res.Summary)
	}
	if res.Data != nil {
		t.Fatalf("unexpected data on miss: %s", res.Data)
	}
}

func TestExecuteRejectsMissingRequiredArg(t *testing.T) {
	exec := newTestExecutor(t, "http://unused", "http://unused")

	_, err := exec.Execute(context.Background(), "get_weather1", map[string]any{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	exec := newTestExecutor(t, "http://unused", "http://unused")

	_, err := exec.Execute(context.Background(), "no_such_tool", nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestExecuteJobSearchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/jobs/gb/search/1") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("app_id") != "test-id" {
			t.Error("missing app_id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 2, "results": []}`))
	}))
	defer srv.Close()

	exec := newTestExecutor(t, srv.URL, "http://unused")
	res, err := exec.Execute(context.Background(), "adzuna_search_jobs", map[string]any{
		"country":  "gb",
		"keywords": "golang",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Status != http.StatusOK {
		t.Fatalf("success=%v status=%d", res.Success, res.Status)
	}
	if res.Summary != "Adzuna job search completed" {
		t.Fatalf("summary = %q", res.Summary)
	}
	if !strings.Contains(string(res.Data), `"count": 2`) {
		t.Fatalf("data = %s", res.Data)
	}
}

func TestExecuteJobSearchUpstreamStatusForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"display":"maintenance"}`))
	}))
	defer srv.Close()

	exec := newTestExecutor(t, srv.URL, "http://unused")
	res, err := exec.Execute(context.Background(), "adzuna_search_jobs", map[string]any{"country": "gb"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected upstream failure")
	}
	if res.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want upstream 503 forwarded", res.Status)
	}
	if res.Summary != "Adzuna job search failed" {
		t.Fatalf("summary = %q", res.Summary)
	}
	if !strings.Contains(string(res.Err), "maintenance") {
		t.Fatalf("upstream payload not forwarded: %s", res.Err)
	}
}

func TestExecuteJobSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := newTestExecutor(t, srv.URL, "http://unused")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := exec.Execute(ctx, "adzuna_get_categories", map[string]any{"country": "gb"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if res.Status != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", res.Status)
	}
	if res.Status == http.StatusPaymentRequired {
		t.Fatal("timeout must be distinguishable from a payment challenge")
	}
}

func TestExecuteAudio(t *testing.T) {
	wav := []byte("RIFF....WAVE")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req groq.SpeechRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Voice != "autumn" || req.ResponseFormat != "wav" {
			t.Errorf("speech request = %+v", req)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wav)
	}))
	defer srv.Close()

	exec := newTestExecutor(t, "http://unused", srv.URL)
	res, err := exec.Execute(context.Background(), "get_audio", map[string]any{"text": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || string(res.Audio) != string(wav) {
		t.Fatalf("audio = %q", res.Audio)
	}
	if res.MIME != "audio/wav" {
		t.Fatalf("mime = %q", res.MIME)
	}
}

func TestExecuteAudioRequiresText(t *testing.T) {
	exec := newTestExecutor(t, "http://unused", "http://unused")

	_, err := exec.Execute(context.Background(), "get_audio", map[string]any{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}
