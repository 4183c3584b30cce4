package dependency_container

import (
	"fmt"

	"github.com/NeuralTrust/TrustRelay/pkg/app/album"
	"github.com/NeuralTrust/TrustRelay/pkg/app/identity"
	"github.com/NeuralTrust/TrustRelay/pkg/app/ratelimit"
	apprelay "github.com/NeuralTrust/TrustRelay/pkg/app/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	handlers "github.com/NeuralTrust/TrustRelay/pkg/handlers/http"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/breaker"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/dispatch"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/telegram"
	"github.com/NeuralTrust/TrustRelay/pkg/server"
	"github.com/NeuralTrust/TrustRelay/pkg/server/middleware"
	"github.com/NeuralTrust/TrustRelay/pkg/server/router"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type Container struct {
	Bot              telegram.Bot
	Breaker          breaker.CircuitBreaker
	Gateway          relay.Gateway
	Limiter          *ratelimit.Limiter
	Registry         *identity.Registry
	Albums           *album.Aggregator
	Controller       *apprelay.Controller
	DispatchWorker   dispatch.Worker
	Receiver         *telegram.Receiver
	HandlerTransport *handlers.HandlerTransport
	AdminServer      *server.AdminServer
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// Bot is created from Cfg.Telegram when nil.
	Bot telegram.Bot
}

func NewContainer(di ContainerDI) (*Container, error) {
	cfg := di.Cfg
	bot := di.Bot
	if bot == nil {
		b, err := telegram.NewBot(cfg.Telegram, di.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		bot = b
	}

	cb := breaker.NewCircuitBreaker("telegram", cfg.Breaker.Timeout, cfg.Breaker.MaxFailures,
		func(from, to gobreaker.State) {
			di.Logger.WithFields(logrus.Fields{
				"from": from.String(),
				"to":   to.String(),
			}).Warn("telegram circuit breaker changed state")
		},
	)
	gateway := telegram.NewGateway(bot, cb)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Limit:         cfg.Relay.SpamLimit,
		Interval:      cfg.Relay.SpamInterval,
		BlockDuration: cfg.Relay.BlockDuration,
	}, di.Logger, &ratelimit.Opts{Shards: cfg.Relay.Shards})
	registry := identity.NewRegistry(di.Logger, cfg.Relay.Shards)
	albums := album.NewAggregator(di.Logger, album.NewTimeScheduler(), cfg.Relay.AlbumTimeout, cfg.Relay.Shards)

	controller := apprelay.NewController(
		apprelay.Config{
			Operator:       relay.SenderKey(cfg.Relay.OperatorID),
			WelcomeMessage: cfg.Relay.WelcomeMessage,
		},
		di.Logger,
		gateway,
		limiter,
		registry,
		albums,
		nil,
	)

	worker := dispatch.NewWorker(di.Logger, cfg.Telegram.Workers, 0)
	receiver := telegram.NewReceiver(bot, worker, controller, di.Logger, cfg.Telegram.PollTimeout)

	handlerTransport := &handlers.HandlerTransport{
		GetVersionHandler: handlers.NewGetVersionHandler(di.Logger),
		GetStatsHandler:   handlers.NewGetStatsHandler(di.Logger, controller),
	}
	middlewareTransport := middleware.NewTransport(
		middleware.NewTraceMiddleware(di.Logger),
	)
	adminServer := server.NewAdminServer(server.AdminServerDI{
		Config:  cfg,
		Logger:  di.Logger,
		Routers: []router.ServerRouter{router.NewAdminRouter(middlewareTransport, handlerTransport)},
	})

	return &Container{
		Bot:              bot,
		Breaker:          cb,
		Gateway:          gateway,
		Limiter:          limiter,
		Registry:         registry,
		Albums:           albums,
		Controller:       controller,
		DispatchWorker:   worker,
		Receiver:         receiver,
		HandlerTransport: handlerTransport,
		AdminServer:      adminServer,
	}, nil
}
