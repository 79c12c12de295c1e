package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigilohq/vigilo/model"
)

func testOptions() Options {
	return Options{
		Timeout:       5 * time.Second,
		SlowThreshold: 2 * time.Second,
		Scheme:        "http",
	}
}

func domainOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestProbeHealthEndpointUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","checks":{"db":{"status":"ok","latency":12.5}}}`))
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusUp, r.Status)
	assert.True(t, r.UsedHealthEndpoint)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	if assert.NotNil(t, r.Payload) {
		assert.Equal(t, model.HealthStatusOK, r.Payload.Status)
		assert.Equal(t, float32(12.5), r.Payload.Checks["db"].Latency)
	}
}

func TestProbeHealthEndpointDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusSlow, r.Status)
	assert.True(t, r.UsedHealthEndpoint)
}

func TestProbeHealthEndpointFailingCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","checks":{"redis":{"status":"error","message":"connection refused"}}}`))
	}))
	defer srv.Close()

	// 任一子项 error 压过整体 ok
	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusDown, r.Status)
	assert.True(t, r.UsedHealthEndpoint)
}

func TestProbeHealthEndpoint5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	// 健康端点自身 5xx，即使 JSON 自称 ok 也判 down
	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusDown, r.Status)
	assert.True(t, r.UsedHealthEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, r.StatusCode)
}

func TestProbeFallbackOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			http.NotFound(w, r)
			return
		}
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusUp, r.Status)
	assert.False(t, r.UsedHealthEndpoint)
	assert.Nil(t, r.Payload)
	assert.Equal(t, http.StatusOK, r.StatusCode)
}

func TestProbeFallbackOnNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("<html>welcome</html>"))
		}
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusUp, r.Status)
	assert.False(t, r.UsedHealthEndpoint)
}

func TestProbeFallbackOnMissingStatusField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"healthy":true}`))
		}
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusUp, r.Status)
	assert.False(t, r.UsedHealthEndpoint)
}

func TestProbeFallback5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), "", testOptions())
	assert.Equal(t, model.StatusDown, r.Status)
	assert.False(t, r.UsedHealthEndpoint)
	assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	domain := domainOf(srv)
	srv.Close()

	r := Probe(context.Background(), domain, "", testOptions())
	assert.Equal(t, model.StatusDown, r.Status)
	assert.Equal(t, 0, r.StatusCode)
	assert.False(t, r.UsedHealthEndpoint)
}

func TestProbeSlowLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	opt := testOptions()
	opt.SlowThreshold = time.Millisecond
	r := Probe(context.Background(), domainOf(srv), "", opt)
	assert.Equal(t, model.StatusSlow, r.Status)
	assert.True(t, r.UsedHealthEndpoint)
}

func TestProbeCustomHealthURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	r := Probe(context.Background(), domainOf(srv), srv.URL+"/healthz", testOptions())
	assert.Equal(t, model.StatusUp, r.Status)
	assert.True(t, r.UsedHealthEndpoint)
}
