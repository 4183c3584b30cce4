package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/breaker"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/prometheus"
	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Sender is the part of the bot API the gateway uses. *telego.Bot implements it.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	SendVideo(ctx context.Context, params *telego.SendVideoParams) (*telego.Message, error)
	SendAnimation(ctx context.Context, params *telego.SendAnimationParams) (*telego.Message, error)
	SendVoice(ctx context.Context, params *telego.SendVoiceParams) (*telego.Message, error)
	SendVideoNote(ctx context.Context, params *telego.SendVideoNoteParams) (*telego.Message, error)
	SendSticker(ctx context.Context, params *telego.SendStickerParams) (*telego.Message, error)
	SendDocument(ctx context.Context, params *telego.SendDocumentParams) (*telego.Message, error)
	SendAudio(ctx context.Context, params *telego.SendAudioParams) (*telego.Message, error)
	SendMediaGroup(ctx context.Context, params *telego.SendMediaGroupParams) ([]telego.Message, error)
}

var _ relay.Gateway = (*Gateway)(nil)

// Gateway delivers relay payloads through the bot API behind a circuit breaker.
type Gateway struct {
	bot     Sender
	breaker breaker.CircuitBreaker
}

func NewGateway(bot Sender, cb breaker.CircuitBreaker) *Gateway {
	return &Gateway{bot: bot, breaker: cb}
}

func (g *Gateway) SendText(ctx context.Context, to relay.SenderKey, text string) error {
	return g.call("send_message", func() error {
		_, err := g.bot.SendMessage(ctx, &telego.SendMessageParams{
			ChatID: tu.ID(int64(to)),
			Text:   text,
		})
		return err
	})
}

func (g *Gateway) SendItem(ctx context.Context, to relay.SenderKey, item relay.PayloadItem) error {
	chatID := tu.ID(int64(to))
	file := tu.FileFromID(item.Ref)

	var send func() error
	switch item.Type {
	case relay.MediaPhoto:
		send = func() error {
			_, err := g.bot.SendPhoto(ctx, &telego.SendPhotoParams{ChatID: chatID, Photo: file, Caption: item.Caption})
			return err
		}
	case relay.MediaVideo:
		send = func() error {
			_, err := g.bot.SendVideo(ctx, &telego.SendVideoParams{ChatID: chatID, Video: file, Caption: item.Caption})
			return err
		}
	case relay.MediaAnimation:
		send = func() error {
			_, err := g.bot.SendAnimation(ctx, &telego.SendAnimationParams{ChatID: chatID, Animation: file, Caption: item.Caption})
			return err
		}
	case relay.MediaVoice:
		send = func() error {
			_, err := g.bot.SendVoice(ctx, &telego.SendVoiceParams{ChatID: chatID, Voice: file, Caption: item.Caption})
			return err
		}
	case relay.MediaVideoNote:
		send = func() error {
			_, err := g.bot.SendVideoNote(ctx, &telego.SendVideoNoteParams{ChatID: chatID, VideoNote: file})
			return err
		}
	case relay.MediaSticker:
		send = func() error {
			_, err := g.bot.SendSticker(ctx, &telego.SendStickerParams{ChatID: chatID, Sticker: file})
			return err
		}
	case relay.MediaDocument:
		send = func() error {
			_, err := g.bot.SendDocument(ctx, &telego.SendDocumentParams{ChatID: chatID, Document: file, Caption: item.Caption})
			return err
		}
	case relay.MediaAudio:
		send = func() error {
			_, err := g.bot.SendAudio(ctx, &telego.SendAudioParams{ChatID: chatID, Audio: file, Caption: item.Caption})
			return err
		}
	default:
		return fmt.Errorf("unsupported media type %q", item.Type)
	}
	return g.call("send_"+string(item.Type), send)
}

func (g *Gateway) SendGroup(ctx context.Context, to relay.SenderKey, items []relay.PayloadItem) error {
	media := make([]telego.InputMedia, 0, len(items))
	for _, item := range items {
		m, err := inputMedia(item)
		if err != nil {
			return err
		}
		media = append(media, m)
	}
	return g.call("send_media_group", func() error {
		_, err := g.bot.SendMediaGroup(ctx, &telego.SendMediaGroupParams{
			ChatID: tu.ID(int64(to)),
			Media:  media,
		})
		return err
	})
}

func inputMedia(item relay.PayloadItem) (telego.InputMedia, error) {
	file := tu.FileFromID(item.Ref)
	switch item.Type {
	case relay.MediaPhoto:
		m := tu.MediaPhoto(file)
		m.Caption = item.Caption
		return m, nil
	case relay.MediaVideo:
		m := tu.MediaVideo(file)
		m.Caption = item.Caption
		return m, nil
	case relay.MediaDocument:
		m := tu.MediaDocument(file)
		m.Caption = item.Caption
		return m, nil
	case relay.MediaAudio:
		m := tu.MediaAudio(file)
		m.Caption = item.Caption
		return m, nil
	default:
		return nil, fmt.Errorf("media type %q cannot be grouped", item.Type)
	}
}

// call runs fn through the breaker. Errors answered by the API itself, such
// as a recipient that blocked the bot, do not count as breaker failures.
func (g *Gateway) call(op string, fn func() error) error {
	var rejected error
	start := time.Now()
	err := g.breaker.Execute(func() error {
		err := fn()
		var apiErr *telegoapi.Error
		if errors.As(err, &apiErr) {
			rejected = err
			return nil
		}
		return err
	})
	prometheus.DeliveryLatency.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return err
	}
	return rejected
}
