package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const sampleGradingBody = `{"records":[{"_objects":[{"name":"Card","prob":0.9}],"grades":{"final":8}}]}`

func TestGradingClient_Grade(t *testing.T) {
	t.Run("sends URL references as _url with token auth", func(t *testing.T) {
		var gotReq gradingRequest
		var gotAuth, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&gotReq)
			w.Write([]byte(sampleGradingBody))
		}))
		defer server.Close()

		client := NewGradingClient(GradingClientOptions{BaseURL: server.URL, APIToken: "abc"})
		body, err := client.Grade(context.Background(), "https://img.example/card.jpg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != sampleGradingBody {
			t.Errorf("body = %s", body)
		}
		if gotAuth != "Token abc" {
			t.Errorf("Authorization = %q, want 'Token abc'", gotAuth)
		}
		if gotPath != gradingGradePath {
			t.Errorf("path = %q, want %q", gotPath, gradingGradePath)
		}
		if len(gotReq.Records) != 1 || gotReq.Records[0].URL != "https://img.example/card.jpg" {
			t.Errorf("unexpected request records: %+v", gotReq.Records)
		}
	})

	t.Run("sends non-URL references as _base64", func(t *testing.T) {
		var gotReq gradingRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotReq)
			w.Write([]byte(sampleGradingBody))
		}))
		defer server.Close()

		client := NewGradingClient(GradingClientOptions{BaseURL: server.URL, APIToken: "abc"})
		if _, err := client.Grade(context.Background(), "aGVsbG8="); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gotReq.Records) != 1 || gotReq.Records[0].Base64 != "aGVsbG8=" || gotReq.Records[0].URL != "" {
			t.Errorf("unexpected request records: %+v", gotReq.Records)
		}
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail":"rate limited"}`))
		}))
		defer server.Close()

		client := NewGradingClient(GradingClientOptions{BaseURL: server.URL, APIToken: "abc"})
		if _, err := client.Grade(context.Background(), "https://img.example/a.jpg"); err == nil {
			t.Error("expected an error for status 429")
		}
	})

	t.Run("successful responses are cached per reference", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(sampleGradingBody))
		}))
		defer server.Close()

		client := NewGradingClient(GradingClientOptions{BaseURL: server.URL, APIToken: "abc"})
		for i := 0; i < 3; i++ {
			if _, err := client.Grade(context.Background(), "https://img.example/same.jpg"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 upstream call, got %d", calls.Load())
		}
	})

	t.Run("disabled without token", func(t *testing.T) {
		client := NewGradingClient(GradingClientOptions{BaseURL: "http://localhost:1"})
		if client.IsEnabled() {
			t.Error("client should be disabled without a token")
		}
		if _, err := client.Grade(context.Background(), "https://img.example/a.jpg"); !errors.Is(err, ErrGradingDisabled) {
			t.Errorf("expected ErrGradingDisabled, got %v", err)
		}
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sampleGradingBody))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewGradingClient(GradingClientOptions{BaseURL: server.URL, APIToken: "abc"})
		if _, err := client.Grade(ctx, "https://img.example/a.jpg"); err == nil {
			t.Error("expected an error for a cancelled context")
		}
	})
}
