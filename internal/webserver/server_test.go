package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eomgitae/care-console/internal/history"
	"github.com/eomgitae/care-console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store history.Store) *Server {
	t.Helper()
	srv, err := New(Config{
		Port:           0,
		Store:          store,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	require.NoError(t, err)
	return srv
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestDefaultPort(t *testing.T) {
	srv := newTestServer(t, history.NewMemoryStore())
	assert.Equal(t, "127.0.0.1:3000", srv.Addr())
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, history.NewMemoryStore()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestConsultationsThroughCORS(t *testing.T) {
	store := history.NewMemoryStore()
	_, err := store.SaveConsultation(context.Background(), history.FromOutcome(models.Outcome{
		SessionID: "S1",
		Customer:  models.Customer{Name: "홍길동"},
	}))
	require.NoError(t, err)
	handler := newTestServer(t, store).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/consultations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), "홍길동")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	handler := newTestServer(t, history.NewMemoryStore()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, history.NewMemoryStore())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/api/health", ln.Addr()))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
