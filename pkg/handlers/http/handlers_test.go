package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	apprelay "github.com/NeuralTrust/TrustRelay/pkg/app/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStats apprelay.Stats

func (s staticStats) Stats() apprelay.Stats {
	return apprelay.Stats(s)
}

func TestGetVersionHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/api/v1/version", NewGetVersionHandler(logrus.New()).Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/version", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var info version.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, version.AppName, info.AppName)
}

func TestGetStatsHandler(t *testing.T) {
	provider := staticStats{LiveHandles: 3, LastHandle: 5, PendingAlbums: 1, TrackedSenders: 4, SuspendedSenders: 2}
	app := fiber.New()
	app.Get("/api/v1/stats", NewGetStatsHandler(logrus.New(), provider).Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(3), body["live_handles"])
	assert.Equal(t, float64(5), body["last_handle"])
	assert.Equal(t, float64(1), body["pending_albums"])
	assert.Equal(t, float64(4), body["tracked_senders"])
	assert.Equal(t, float64(2), body["suspended_senders"])
}
