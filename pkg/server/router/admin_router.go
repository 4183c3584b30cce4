package router

import (
	handlers "github.com/NeuralTrust/TrustRelay/pkg/handlers/http"
	"github.com/NeuralTrust/TrustRelay/pkg/server/middleware"
	"github.com/gofiber/fiber/v2"
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport == nil {
		return ErrInvalidHandlerTransport
	}

	v1 := router.Group("/api/v1")
	{
		if r.middlewareTransport != nil && r.middlewareTransport.GetMiddlewares() != nil {
			v1.Use(r.middlewareTransport.GetMiddlewares()...)
		}
		v1.Get("/version", r.handlerTransport.GetVersionHandler.Handle)
		v1.Get("/stats", r.handlerTransport.GetStatsHandler.Handle)
	}
	return nil
}
