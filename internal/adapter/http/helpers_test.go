package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadJSONEmptyBodyIsZeroValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/tools/get_weather1", nil)
	rec := httptest.NewRecorder()

	args, ok := readJSON[map[string]any](rec, req)
	if !ok {
		t.Fatalf("empty body rejected: %s", rec.Body.String())
	}
	if args != nil {
		t.Fatalf("args = %v, want nil", args)
	}
}

func TestReadJSONMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/tools/get_weather1", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	if _, ok := readJSON[map[string]any](rec, req); ok {
		t.Fatal("malformed body accepted")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadJSONBodyTooLarge(t *testing.T) {
	body := append([]byte(`{"text":"`), bytes.Repeat([]byte("a"), maxRequestBodySize)...)
	body = append(body, `"}`...)
	req := httptest.NewRequest(http.MethodPost, "/tools/get_weather1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	if _, ok := readJSON[map[string]any](rec, req); ok {
		t.Fatal("oversized body accepted")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}
