package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/common"
	"github.com/NeuralTrust/TrustRelay/pkg/domain"
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/dispatch"
	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"
)

type Poller interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, msg relay.Message) error
}

// Receiver long polls for updates and hands each message to the dispatch
// worker that owns its sender.
type Receiver struct {
	poller      Poller
	worker      dispatch.Worker
	handler     MessageHandler
	logger      *logrus.Logger
	pollTimeout int
	timeout     time.Duration
}

func NewReceiver(
	poller Poller,
	worker dispatch.Worker,
	handler MessageHandler,
	logger *logrus.Logger,
	pollTimeout int,
) *Receiver {
	return &Receiver{
		poller:      poller,
		worker:      worker,
		handler:     handler,
		logger:      logger,
		pollTimeout: pollTimeout,
		timeout:     common.DeliveryTimeout,
	}
}

// Run blocks until ctx is cancelled and the update stream is closed.
func (r *Receiver) Run(ctx context.Context) error {
	updates, err := r.poller.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        r.pollTimeout,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}
	r.logger.WithField("poll_timeout", r.pollTimeout).Info("receiving telegram updates")

	// tasks already queued at shutdown still get to finish their sends
	taskCtx := context.WithoutCancel(ctx)
	for update := range updates {
		msg, ok := ToMessage(update.Message)
		if !ok {
			continue
		}
		accepted := r.worker.Enqueue(msg.Sender, func() {
			r.handle(taskCtx, msg)
		})
		if !accepted {
			r.logger.Warn("dispatch worker stopped, dropping update")
		}
	}
	r.logger.Info("telegram update stream closed")
	return nil
}

func (r *Receiver) handle(parent context.Context, msg relay.Message) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	err := r.handler.HandleMessage(ctx, msg)
	switch {
	case err == nil:
	case domain.IsRateLimited(err), domain.IsMalformedCommand(err), domain.IsUnknownHandle(err):
		r.logger.WithField("reason", err.Error()).Debug("message rejected")
	default:
		r.logger.WithError(err).Error("failed to handle message")
	}
}
