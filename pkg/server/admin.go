package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/NeuralTrust/TrustRelay/pkg/common"
	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/NeuralTrust/TrustRelay/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	AdminServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	AdminServer struct {
		*BaseServer
		routers []router.ServerRouter
		once    sync.Once
	}
)

func NewAdminServer(di AdminServerDI) *AdminServer {
	return &AdminServer{
		BaseServer: NewBaseServer(di.Config, di.Logger),
		routers:    di.Routers,
	}
}

func (s *AdminServer) setupRoutes() {
	s.once.Do(func() {
		s.setupHealthCheck()
		s.WithRouters(s.routers...)
	})
}

// Run blocks until the listener is shut down.
func (s *AdminServer) Run() error {
	s.setupRoutes()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf(":%d", s.Config.Server.AdminPort)
	s.Logger.WithField("addr", addr).Info("starting admin server")
	return s.Router.Listen(addr)
}

func (s *AdminServer) Shutdown() error {
	return errors.Join(s.Router.ShutdownWithTimeout(common.ShutdownTimeout), s.shutdownMetrics())
}
