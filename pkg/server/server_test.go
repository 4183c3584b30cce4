package server

import (
	"io"
	"net/http/httptest"
	"testing"

	apprelay "github.com/NeuralTrust/TrustRelay/pkg/app/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/config"
	handlers "github.com/NeuralTrust/TrustRelay/pkg/handlers/http"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustRelay/pkg/server/middleware"
	"github.com/NeuralTrust/TrustRelay/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats struct{}

func (fixedStats) Stats() apprelay.Stats {
	return apprelay.Stats{LiveHandles: 1}
}

func newTestAdminServer(t *testing.T) *AdminServer {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	cfg := &config.Config{}

	transport := &handlers.HandlerTransport{
		GetVersionHandler: handlers.NewGetVersionHandler(logger),
		GetStatsHandler:   handlers.NewGetStatsHandler(logger, fixedStats{}),
	}
	s := NewAdminServer(AdminServerDI{
		Config: cfg,
		Logger: logger,
		Routers: []router.ServerRouter{
			router.NewAdminRouter(middleware.NewTransport(middleware.NewTraceMiddleware(logger)), transport),
		},
	})
	s.setupRoutes()
	return s
}

func TestAdminServer_Routes(t *testing.T) {
	s := newTestAdminServer(t)

	for _, path := range []string{"/health", AdminHealthPath, "/api/v1/version", "/api/v1/stats"} {
		t.Run(path, func(t *testing.T) {
			resp, err := s.Router.Test(httptest.NewRequest("GET", path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		})
	}
}

func TestAdminServer_TraceHeader(t *testing.T) {
	s := newTestAdminServer(t)

	resp, err := s.Router.Test(httptest.NewRequest("GET", "/api/v1/stats", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(middleware.TraceIDHeader), 36)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set(middleware.TraceIDHeader, "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	resp, err = s.Router.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", resp.Header.Get(middleware.TraceIDHeader))
}

func TestAdminServer_SetupRoutesIsIdempotent(t *testing.T) {
	s := newTestAdminServer(t)
	s.setupRoutes()

	resp, err := s.Router.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRouter_RejectsMissingTransport(t *testing.T) {
	err := router.NewAdminRouter(nil, nil).BuildRoutes(fiber.New())
	assert.ErrorIs(t, err, router.ErrInvalidHandlerTransport)
}

func TestMetricsHandler(t *testing.T) {
	prometheus.AlbumFlushesTotal.Inc()
	app := fiber.New()
	app.Get("/metrics", metricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trustrelay_album_flushes_total")
}

func TestShutdownWithoutMetrics(t *testing.T) {
	s := newTestAdminServer(t)
	assert.NoError(t, s.shutdownMetrics())
}
