package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/resilience"
)

func TestChatCompletion(t *testing.T) {
	var got ChatCompletionRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	resp, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{
		Model:    "llama-3.1-8b-instant",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if auth != "Bearer test-key" {
		t.Fatalf("authorization = %q", auth)
	}
	if got.Model != "llama-3.1-8b-instant" {
		t.Fatalf("model = %s", got.Model)
	}

	msg, err := resp.Message()
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "hello" {
		t.Fatalf("content = %q", msg.Content)
	}
}

func TestChatCompletionToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_weather1","arguments":"{\"location\":\"London, UK\"}"}}]},"finish_reason":"tool_calls"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	resp, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if err != nil {
		t.Fatal(err)
	}

	msg, err := resp.Message()
	if err != nil {
		t.Fatal(err)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(msg.ToolCalls))
	}
	call := msg.ToolCalls[0]
	if call.Function.Name != "get_weather1" {
		t.Fatalf("function = %s", call.Function.Name)
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		t.Fatal(err)
	}
	if args["location"] != "London, UK" {
		t.Fatalf("args = %v", args)
	}
}

func TestMessageNoChoices(t *testing.T) {
	var resp ChatCompletionResponse
	if _, err := resp.Message(); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCreateSpeechDefaultsToWAV(t *testing.T) {
	wav := []byte("RIFF....WAVE")
	var got SpeechRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wav)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	data, err := c.CreateSpeech(context.Background(), SpeechRequest{
		Model: "canopylabs/orpheus-v1-english",
		Voice: "autumn",
		Input: "hello world",
	})
	if err != nil {
		t.Fatal(err)
	}

	if got.ResponseFormat != "wav" {
		t.Fatalf("response_format = %q, want wav default", got.ResponseFormat)
	}
	if got.Voice != "autumn" {
		t.Fatalf("voice = %s", got.Voice)
	}
	if !bytes.Equal(data, wav) {
		t.Fatalf("audio bytes mismatch: %q", data)
	}
}

func TestUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T %v", err, err)
	}
	if ue.Kind != domain.UpstreamStatus || ue.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("upstream error = %+v", ue)
	}
	if !bytes.Contains(ue.Body, []byte("rate limited")) {
		t.Fatalf("body = %s", ue.Body)
	}
}

func TestUnreachableUpstream(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k")
	_, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T %v", err, err)
	}
	if ue.Kind != domain.UpstreamUnreachable {
		t.Fatalf("kind = %v", ue.Kind)
	}
}

func TestBreakerShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	c.SetBreaker(resilience.NewBreaker(1, time.Minute))

	if _, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"}); err == nil {
		t.Fatal("expected upstream error")
	}

	srv.Close()
	_, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}
