package health

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "typebot_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	s := New(reg)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	code, body := get(t, newTestServer(), "/health")
	require.Equal(t, fiber.StatusOK, code)

	var out map[string]string
	require.NoError(t, sonic.UnmarshalString(body, &out))
	assert.Equal(t, "OK", out["status"])
	assert.Equal(t, "2024-05-01T12:00:00Z", out["timestamp"])
}

func TestStatusPage(t *testing.T) {
	code, body := get(t, newTestServer(), "/")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "Shiro Oni est en ligne")
}

func TestMetrics(t *testing.T) {
	code, body := get(t, newTestServer(), "/metrics")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "typebot_test_total 3")
}

func TestUnknownRoute(t *testing.T) {
	code, _ := get(t, newTestServer(), "/nope")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestRecoversPanics(t *testing.T) {
	s := newTestServer()
	s.App().Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	code, body := get(t, s, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", body)
}
