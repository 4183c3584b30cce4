package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/app/album"
	"github.com/NeuralTrust/TrustRelay/pkg/app/identity"
	"github.com/NeuralTrust/TrustRelay/pkg/app/ratelimit"
	"github.com/NeuralTrust/TrustRelay/pkg/common"
	"github.com/NeuralTrust/TrustRelay/pkg/domain"
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/prometheus"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Operator       relay.SenderKey
	WelcomeMessage string
}

type Opts struct {
	UuidProvider    func() uuid.UUID
	DeliveryTimeout time.Duration
}

// Stats is a point in time view of the relay state. It never carries sender
// identities.
type Stats struct {
	LiveHandles      int    `json:"live_handles"`
	LastHandle       uint64 `json:"last_handle"`
	PendingAlbums    int    `json:"pending_albums"`
	TrackedSenders   int    `json:"tracked_senders"`
	SuspendedSenders int    `json:"suspended_senders"`
}

// Controller routes inbound messages between anonymous senders and the
// operator.
type Controller struct {
	cfg             Config
	logger          *logrus.Logger
	gateway         relay.Gateway
	limiter         *ratelimit.Limiter
	registry        *identity.Registry
	albums          *album.Aggregator
	uuidProvider    func() uuid.UUID
	deliveryTimeout time.Duration
}

func NewController(
	cfg Config,
	logger *logrus.Logger,
	gateway relay.Gateway,
	limiter *ratelimit.Limiter,
	registry *identity.Registry,
	albums *album.Aggregator,
	opts *Opts,
) *Controller {
	c := &Controller{
		cfg:             cfg,
		logger:          logger,
		gateway:         gateway,
		limiter:         limiter,
		registry:        registry,
		albums:          albums,
		uuidProvider:    uuid.New,
		deliveryTimeout: common.DeliveryTimeout,
	}
	if opts != nil {
		if opts.UuidProvider != nil {
			c.uuidProvider = opts.UuidProvider
		}
		if opts.DeliveryTimeout > 0 {
			c.deliveryTimeout = opts.DeliveryTimeout
		}
	}
	albums.OnFlush(c.deliverBatch)
	return c
}

// HandleMessage processes one inbound message. Rejections come back as
// rate limited, malformed command or unknown handle errors after the
// matching notice has been sent.
func (c *Controller) HandleMessage(ctx context.Context, msg relay.Message) error {
	if msg.Sender == c.cfg.Operator {
		return c.handleOperator(ctx, msg)
	}
	if msg.IsCommand() {
		return c.handleSenderCommand(ctx, msg)
	}
	return c.relayInbound(ctx, msg)
}

func (c *Controller) handleOperator(ctx context.Context, msg relay.Message) error {
	if !msg.IsCommand() {
		c.logger.Debug("ignoring operator message without command")
		return nil
	}
	switch commandName(msg.Text) {
	case common.ReplyCommand:
		return c.handleReply(ctx, msg.Text)
	case common.StartCommand:
		return c.send(ctx, "welcome", func(ctx context.Context) error {
			return c.gateway.SendText(ctx, c.cfg.Operator, c.cfg.WelcomeMessage)
		})
	default:
		c.logger.Debug("ignoring unknown operator command")
		return nil
	}
}

func (c *Controller) handleSenderCommand(ctx context.Context, msg relay.Message) error {
	switch commandName(msg.Text) {
	case common.StartCommand:
		prometheus.InboundMessagesTotal.WithLabelValues("start").Inc()
		return c.notify(ctx, msg.Sender, "welcome", c.cfg.WelcomeMessage)
	case common.DeleteMeCommand:
		prometheus.InboundMessagesTotal.WithLabelValues("delete_me").Inc()
		notice := common.NotRegistered
		if c.registry.Forget(msg.Sender) {
			notice = common.Forgotten
			prometheus.LiveHandles.Set(float64(c.registry.Len()))
		}
		return c.notify(ctx, msg.Sender, "forget", notice)
	case common.ReplyCommand:
		c.logger.Warn("reply command from non-operator ignored")
		return nil
	default:
		prometheus.InboundMessagesTotal.WithLabelValues("unknown_command").Inc()
		return nil
	}
}

func (c *Controller) handleReply(ctx context.Context, text string) error {
	handle, message, err := parseReply(text)
	if err != nil {
		prometheus.OperatorCommandsTotal.WithLabelValues("malformed").Inc()
		notice := common.ReplyUsage
		if reason, _ := domain.MalformedReasonOf(err); reason == domain.NonNumericHandle {
			notice = common.ReplyHandleNotInt
		}
		if sendErr := c.notifyOperator(ctx, "reply_usage", notice); sendErr != nil {
			return sendErr
		}
		return err
	}

	sender, err := c.registry.LookupSender(handle)
	if err != nil {
		prometheus.OperatorCommandsTotal.WithLabelValues("not_found").Inc()
		if sendErr := c.notifyOperator(ctx, "reply_not_found", common.ReplyNotFound); sendErr != nil {
			return sendErr
		}
		return err
	}

	err = c.send(ctx, "reply", func(ctx context.Context) error {
		return c.gateway.SendText(ctx, sender, message)
	})
	if err != nil {
		prometheus.OperatorCommandsTotal.WithLabelValues("failed").Inc()
		c.reportFailure(ctx, fmt.Sprintf("reply to %s", handle), err)
		return err
	}
	prometheus.OperatorCommandsTotal.WithLabelValues("delivered").Inc()
	c.logger.WithField("handle", handle.String()).Debug("operator reply delivered")
	return nil
}

func (c *Controller) relayInbound(ctx context.Context, msg relay.Message) error {
	decision := c.limiter.Admit(msg.Sender)
	if !decision.Allowed {
		reason, notice := "suspended", common.StillSuspended
		if decision.Tripped {
			reason, notice = "tripped", common.SuspensionStarted
		}
		prometheus.RateLimitedTotal.WithLabelValues(reason).Inc()
		if err := c.notify(ctx, msg.Sender, "suspension_notice", notice); err != nil {
			return err
		}
		return decision.Err()
	}

	handle := c.registry.ResolveOrCreate(msg.Sender)
	prometheus.LiveHandles.Set(float64(c.registry.Len()))

	switch {
	case msg.IsGroupItem():
		prometheus.InboundMessagesTotal.WithLabelValues("album_item").Inc()
		c.albums.Add(msg.Sender, handle, *msg.Item, msg.Caption)
		return nil
	case msg.Item != nil:
		prometheus.InboundMessagesTotal.WithLabelValues(string(msg.Item.Type)).Inc()
		return c.forwardItem(ctx, msg, handle)
	case msg.Text != "":
		prometheus.InboundMessagesTotal.WithLabelValues("text").Inc()
		return c.forwardText(ctx, msg, handle)
	default:
		prometheus.InboundMessagesTotal.WithLabelValues("unsupported").Inc()
		c.logger.WithField("handle", handle.String()).Debug("ignoring unsupported message")
		return nil
	}
}

func (c *Controller) forwardText(ctx context.Context, msg relay.Message, handle relay.Handle) error {
	err := c.send(ctx, "forward_text", func(ctx context.Context) error {
		return c.gateway.SendText(ctx, c.cfg.Operator, label(handle, msg.Text))
	})
	if err != nil {
		c.reportFailure(ctx, fmt.Sprintf("message from %s", handle), err)
		return err
	}
	return c.acknowledge(ctx, msg.Sender, handle, "ack", common.SentAck)
}

func (c *Controller) forwardItem(ctx context.Context, msg relay.Message, handle relay.Handle) error {
	item := *msg.Item
	var notice string
	switch item.Type {
	case relay.MediaVoice:
		item.Caption = fmt.Sprintf(common.ForwardedVoice, handle)
	case relay.MediaVideoNote:
		item.Caption = ""
		notice = fmt.Sprintf(common.ForwardedCircle, handle)
	case relay.MediaSticker:
		item.Caption = ""
		notice = fmt.Sprintf(common.ForwardedSticker, handle)
	default:
		item.Caption = label(handle, msg.Caption)
	}

	err := c.send(ctx, "forward_"+string(item.Type), func(ctx context.Context) error {
		return c.gateway.SendItem(ctx, c.cfg.Operator, item)
	})
	if err == nil && notice != "" {
		err = c.send(ctx, "forward_notice", func(ctx context.Context) error {
			return c.gateway.SendText(ctx, c.cfg.Operator, notice)
		})
	}
	if err != nil {
		c.reportFailure(ctx, fmt.Sprintf("%s from %s", item.Type, handle), err)
		return err
	}
	return c.acknowledge(ctx, msg.Sender, handle, "ack", common.SentAck)
}

// deliverBatch runs on the album timer, outside of any inbound request.
func (c *Controller) deliverBatch(batch relay.Batch) {
	flushID := c.uuidProvider().String()
	ctx, cancel := context.WithTimeout(context.Background(), c.deliveryTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, common.TraceIdKey, flushID)

	log := c.logger.WithFields(logrus.Fields{
		"flush_id": flushID,
		"handle":   batch.Handle.String(),
		"items":    len(batch.Items),
	})

	for _, group := range album.Chunk(batch, album.GroupSize) {
		err := c.send(ctx, "send_group", func(ctx context.Context) error {
			return c.gateway.SendGroup(ctx, c.cfg.Operator, group)
		})
		if err != nil {
			c.reportFailure(ctx, fmt.Sprintf("album from %s", batch.Handle), err)
			return
		}
	}

	summary := fmt.Sprintf(common.AlbumSummary, batch.Handle)
	if err := c.notifyOperator(ctx, "album_summary", summary); err != nil {
		return
	}
	if err := c.acknowledge(ctx, batch.Sender, batch.Handle, "album_ack", common.AlbumSentAck); err != nil {
		return
	}
	log.Debug("album delivered")
}

func (c *Controller) notify(ctx context.Context, to relay.SenderKey, op, text string) error {
	return c.send(ctx, op, func(ctx context.Context) error {
		return c.gateway.SendText(ctx, to, text)
	})
}

// acknowledge confirms a delivery to the sender. The operator hears about a
// failed acknowledgement the same way as a failed forward.
func (c *Controller) acknowledge(ctx context.Context, to relay.SenderKey, handle relay.Handle, op, text string) error {
	err := c.notify(ctx, to, op, text)
	if err != nil {
		c.reportFailure(ctx, fmt.Sprintf("ack to %s", handle), err)
	}
	return err
}

func (c *Controller) notifyOperator(ctx context.Context, op, text string) error {
	return c.notify(ctx, c.cfg.Operator, op, text)
}

// send runs fn and turns its failure into a transport failure error.
func (c *Controller) send(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		prometheus.TransportFailuresTotal.WithLabelValues(op).Inc()
		failure := domain.NewTransportFailureError(op, err)
		fields := logrus.Fields{"op": op, "error": err.Error()}
		if traceID, ok := ctx.Value(common.TraceIdKey).(string); ok {
			fields["trace_id"] = traceID
		}
		c.logger.WithFields(fields).Error("delivery failed")
		return failure
	}
	return nil
}

// reportFailure tells the operator about a failed delivery. A failure to
// report is only logged.
func (c *Controller) reportFailure(ctx context.Context, what string, cause error) {
	text := fmt.Sprintf(common.DeliveryFailed, what)
	if err := c.gateway.SendText(ctx, c.cfg.Operator, text); err != nil {
		c.logger.WithFields(logrus.Fields{
			"error": err.Error(),
			"cause": cause.Error(),
		}).Error("failed to report delivery failure to operator")
	}
}

func (c *Controller) Stats() Stats {
	limits := c.limiter.Stats()
	return Stats{
		LiveHandles:      c.registry.Len(),
		LastHandle:       uint64(c.registry.LastIssued()),
		PendingAlbums:    c.albums.Pending(),
		TrackedSenders:   limits.Tracked,
		SuspendedSenders: limits.Suspended,
	}
}

func label(handle relay.Handle, text string) string {
	if text == "" {
		return handle.String()
	}
	return fmt.Sprintf(common.ForwardedText, handle, text)
}
