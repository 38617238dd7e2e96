package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/wireline/internal/link"
	"github.com/danmuck/wireline/internal/testutil/testlog"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	source := link.NewServer(link.DefaultServerConfig(), link.ServerHandlers{})
	return New(Config{
		ListenAddr: "127.0.0.1:0",
		NodeID:     "wirelined.test",
	}, source)
}

func TestHealthEndpoint(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status field: %v", body["status"])
	}
	if body["node"] != "wirelined.test" {
		t.Fatalf("unexpected node field: %v", body["node"])
	}
	if body["clients"] != float64(0) {
		t.Fatalf("unexpected clients field: %v", body["clients"])
	}
}

func TestStatusEndpointReportsRegistry(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=200", w.Code)
	}
	var body struct {
		Node        string            `json:"node"`
		Clients     int               `json:"clients"`
		Connections []link.ConnStatus `json:"connections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Node != "wirelined.test" || body.Clients != 0 || len(body.Connections) != 0 {
		t.Fatalf("unexpected status body: %+v", body)
	}
}

func TestMetricsEndpointExposesNamespace(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "wireline_") {
		t.Fatalf("metrics body missing namespace")
	}
}
