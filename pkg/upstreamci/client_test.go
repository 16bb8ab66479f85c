package upstreamci

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_GetJobState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job/build-shop/lastSuccessfulBuild/api/json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"id":"142","number":142}`))
	}))
	defer server.Close()

	got, err := NewClient().GetJobState(context.Background(), server.URL, "build-shop")
	if err != nil || got != "142" {
		t.Errorf("GetJobState() = (%q, %v), want (142, nil)", got, err)
	}
}

func Test_GetJobStateFallsBackToNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"number":7}`))
	}))
	defer server.Close()

	got, err := NewClient().GetJobState(context.Background(), server.URL+"/", "job")
	if err != nil || got != "7" {
		t.Errorf("GetJobState() = (%q, %v), want (7, nil)", got, err)
	}
}

func Test_GetJobStateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewClient().GetJobState(context.Background(), server.URL, "job"); err == nil {
		t.Error("GetJobState() expected error for status 502")
	}
}
