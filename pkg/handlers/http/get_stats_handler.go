package http

import (
	apprelay "github.com/NeuralTrust/TrustRelay/pkg/app/relay"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type StatsProvider interface {
	Stats() apprelay.Stats
}

type getStatsHandler struct {
	logger   *logrus.Logger
	provider StatsProvider
}

func NewGetStatsHandler(logger *logrus.Logger, provider StatsProvider) Handler {
	return &getStatsHandler{
		logger:   logger,
		provider: provider,
	}
}

// Handle returns aggregate relay counters. No sender identity is exposed.
// @Router /api/v1/stats [get]
func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.provider.Stats())
}
