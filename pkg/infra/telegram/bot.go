package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/NeuralTrust/TrustRelay/pkg/version"
	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"
)

// apiLogger forwards telego errors only. Debug output carries request bodies
// with chat ids, which must not reach the logs.
type apiLogger struct {
	logger *logrus.Logger
}

func (l apiLogger) Debugf(string, ...any) {}

func (l apiLogger) Errorf(format string, args ...any) {
	l.logger.WithField("component", "telego").Errorf(format, args...)
}

// NewBot creates the bot API client. The HTTP timeout leaves room for the
// long poll to complete.
func NewBot(cfg config.TelegramConfig, logger *logrus.Logger) (*telego.Bot, error) {
	pollTimeout := time.Duration(cfg.PollTimeout) * time.Second
	client := NewHTTPClient(
		WithTimeout(pollTimeout+DefaultTimeout),
		WithUserAgent(fmt.Sprintf("%s/%s", version.AppName, version.Version)),
	)

	bot, err := telego.NewBot(
		cfg.Token,
		telego.WithFastHTTPClient(client),
		telego.WithLogger(apiLogger{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// Bot is the full bot API surface the relay needs.
type Bot interface {
	Sender
	Poller
	GetMe(ctx context.Context) (*telego.User, error)
}

var _ Bot = (*telego.Bot)(nil)
