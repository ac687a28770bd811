package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
)

func upstreamDetail(t *testing.T, err error) apperr.UpstreamDetail {
	t.Helper()
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindUpstream {
		t.Fatalf("err = %v, want upstream error", err)
	}
	return e.Detail.(apperr.UpstreamDetail)
}

func TestClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Retail-Id") != "RTL-01" || r.Header.Get("X-Request-Id") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	c := NewClient(time.Second, "RTL-01")
	got, err := c.Do(context.Background(), http.MethodPost, srv.URL, map[string]int{"x": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"x":1}` {
		t.Errorf("body = %s", got)
	}
}

func TestClientClassifiesFailures(t *testing.T) {
	t.Run("non-2xx keeps a bounded body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
		}))
		defer srv.Close()

		_, err := NewClient(time.Second, "").Do(context.Background(), http.MethodGet, srv.URL, nil)
		d := upstreamDetail(t, err)
		if d.Reason != apperr.ReasonStatus || d.Status != 503 || !d.Retryable || len(d.Body) != maxErrorBody {
			t.Errorf("detail = %+v (body %d)", d.Reason, len(d.Body))
		}
	})

	t.Run("4xx is not retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"bad"}`, http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		_, err := NewClient(time.Second, "").Do(context.Background(), http.MethodGet, srv.URL, nil)
		if d := upstreamDetail(t, err); d.Retryable || d.Status != 422 {
			t.Errorf("detail = %+v", d)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(block)

		_, err := NewClient(50*time.Millisecond, "").Do(context.Background(), http.MethodGet, srv.URL, nil)
		if d := upstreamDetail(t, err); d.Reason != apperr.ReasonTimeout || !d.Retryable {
			t.Errorf("detail = %+v", d)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewClient(time.Second, "").Do(context.Background(), http.MethodGet, url, nil)
		if d := upstreamDetail(t, err); d.Reason != apperr.ReasonConnection {
			t.Errorf("detail = %+v", d)
		}
	})
}
