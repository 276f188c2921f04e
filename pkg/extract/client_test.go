package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

const samplePage = `[
	{"camis": "1", "boro": "BRONX", "inspection_date": "2022-05-01T00:00:00.000", "score": 7},
	{"camis": "2", "boro": "BRONX", "inspection_date": "2022-06-01T00:00:00.000"},
	{"camis": "2", "boro": "BRONX", "inspection_date": "2022-06-01T00:00:00.000"}
]`

func TestExtract_Success(t *testing.T) {
	t.Parallel()

	var gotLimit, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("$limit")
		gotToken = r.Header.Get("X-App-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Timeout: 2 * time.Second, AppToken: "tok"}, zaptest.NewLogger(t))
	records, err := c.Extract(context.Background(), 3)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if gotLimit != "3" {
		t.Fatalf("$limit = %q, want 3", gotLimit)
	}
	if gotToken != "tok" {
		t.Fatalf("X-App-Token = %q, want tok", gotToken)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3 (duplicates kept)", len(records))
	}
	if records[0].Score.String() != "7" {
		t.Fatalf("records[0].Score = %q, want 7", records[0].Score.String())
	}
	if records[1].Camis.String() != "2" || records[2].Camis.String() != "2" {
		t.Fatalf("source order not preserved: %+v", records)
	}
}

func TestExtract_NoTokenHeader(t *testing.T) {
	t.Parallel()

	var sawHeader atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-App-Token"]; ok {
			sawHeader.Store(true)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL}, zaptest.NewLogger(t))
	records, err := c.Extract(context.Background(), 10)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("len(records) = %d, want 0", len(records))
	}
	if sawHeader.Load() {
		t.Fatal("X-App-Token sent without a configured token")
	}
}

func TestExtract_NonOKStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "throttled", status: http.StatusTooManyRequests},
		{name: "not found", status: http.StatusNotFound},
		{name: "no content", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			c := NewClient(Config{Endpoint: srv.URL}, zaptest.NewLogger(t))
			_, err := c.Extract(context.Background(), 5)

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Extract() error = %v, want *FetchError", err)
			}
			if fe.StatusCode != tt.status {
				t.Fatalf("StatusCode = %d, want %d", fe.StatusCode, tt.status)
			}
			if !strings.Contains(fe.Error(), "status code") {
				t.Fatalf("Error() = %q, want status code mention", fe.Error())
			}
			if got := atomic.LoadInt32(&hits); got != 1 {
				t.Fatalf("server hits = %d, want exactly 1 (no retry)", got)
			}
		})
	}
}

func TestExtract_DecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": true`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL}, zaptest.NewLogger(t))
	_, err := c.Extract(context.Background(), 5)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Extract() error = %v, want *FetchError", err)
	}
	if fe.StatusCode != 0 || fe.Err == nil {
		t.Fatalf("FetchError = %+v, want decode failure with no status", fe)
	}
}

func TestExtract_InvalidLimit(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL}, zaptest.NewLogger(t))
	for _, limit := range []int{0, -1} {
		_, err := c.Extract(context.Background(), limit)
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("Extract(%d) error = %v, want *FetchError", limit, err)
		}
		if fetchErr.StatusCode != 0 || fetchErr.URL != srv.URL {
			t.Fatalf("Extract(%d) FetchError = %+v, want URL %s and no status", limit, fetchErr, srv.URL)
		}
	}
	if hits != 0 {
		t.Fatalf("server hits = %d, want 0", hits)
	}
}

func TestExtract_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c := NewClient(Config{Endpoint: endpoint, Timeout: time.Second}, zaptest.NewLogger(t))
	_, err := c.Extract(context.Background(), 1)

	var fe *FetchError
	if !errors.As(err, &fe) || fe.Err == nil {
		t.Fatalf("Extract() error = %v, want *FetchError wrapping a transport error", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, nil)
	if c.endpoint != DefaultEndpoint {
		t.Fatalf("endpoint = %q, want %q", c.endpoint, DefaultEndpoint)
	}
	if c.httpClient.Timeout != 60*time.Second {
		t.Fatalf("timeout = %v, want 60s", c.httpClient.Timeout)
	}
}
