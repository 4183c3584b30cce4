package middleware

import (
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const TraceIDHeader = "X-Trace-ID"

type traceMiddleware struct {
	logger *logrus.Logger
}

// NewTraceMiddleware tags admin requests with a trace id and logs them.
func NewTraceMiddleware(logger *logrus.Logger) Middleware {
	return &traceMiddleware{logger: logger}
}

func (m *traceMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		c.Locals(string(common.TraceIdKey), traceID)
		c.Set(TraceIDHeader, traceID)

		start := time.Now()
		err := c.Next()
		m.logger.WithFields(logrus.Fields{
			"trace_id": traceID,
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		}).Debug("admin request")
		return err
	}
}
