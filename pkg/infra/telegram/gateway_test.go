package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/breaker"
	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	params any
}

type fakeBot struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeBot) record(method string, params any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, params: params})
	return f.err
}

func (f *fakeBot) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeBot) SendMessage(_ context.Context, p *telego.SendMessageParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendMessage", p)
}

func (f *fakeBot) SendPhoto(_ context.Context, p *telego.SendPhotoParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendPhoto", p)
}

func (f *fakeBot) SendVideo(_ context.Context, p *telego.SendVideoParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendVideo", p)
}

func (f *fakeBot) SendAnimation(_ context.Context, p *telego.SendAnimationParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendAnimation", p)
}

func (f *fakeBot) SendVoice(_ context.Context, p *telego.SendVoiceParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendVoice", p)
}

func (f *fakeBot) SendVideoNote(_ context.Context, p *telego.SendVideoNoteParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendVideoNote", p)
}

func (f *fakeBot) SendSticker(_ context.Context, p *telego.SendStickerParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendSticker", p)
}

func (f *fakeBot) SendDocument(_ context.Context, p *telego.SendDocumentParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendDocument", p)
}

func (f *fakeBot) SendAudio(_ context.Context, p *telego.SendAudioParams) (*telego.Message, error) {
	return &telego.Message{}, f.record("SendAudio", p)
}

func (f *fakeBot) SendMediaGroup(_ context.Context, p *telego.SendMediaGroupParams) ([]telego.Message, error) {
	return nil, f.record("SendMediaGroup", p)
}

func newTestGateway(maxFailures uint32) (*Gateway, *fakeBot, breaker.CircuitBreaker) {
	bot := &fakeBot{}
	cb := breaker.NewCircuitBreaker("telegram-test", time.Hour, maxFailures, nil)
	return NewGateway(bot, cb), bot, cb
}

func TestGateway_SendText(t *testing.T) {
	gateway, bot, _ := newTestGateway(3)

	require.NoError(t, gateway.SendText(context.Background(), 42, "#1: hi"))

	got := bot.last()
	assert.Equal(t, "SendMessage", got.method)
	params, ok := got.params.(*telego.SendMessageParams)
	require.True(t, ok)
	assert.Equal(t, int64(42), params.ChatID.ID)
	assert.Equal(t, "#1: hi", params.Text)
}

func TestGateway_SendItemPicksMethodByType(t *testing.T) {
	tests := []struct {
		typ    relay.MediaType
		method string
	}{
		{relay.MediaPhoto, "SendPhoto"},
		{relay.MediaVideo, "SendVideo"},
		{relay.MediaAnimation, "SendAnimation"},
		{relay.MediaVoice, "SendVoice"},
		{relay.MediaVideoNote, "SendVideoNote"},
		{relay.MediaSticker, "SendSticker"},
		{relay.MediaDocument, "SendDocument"},
		{relay.MediaAudio, "SendAudio"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			gateway, bot, _ := newTestGateway(3)

			err := gateway.SendItem(context.Background(), 42, relay.PayloadItem{Ref: "file", Type: tt.typ, Caption: "c"})

			require.NoError(t, err)
			assert.Equal(t, tt.method, bot.last().method)
		})
	}
}

func TestGateway_SendItemCarriesRefAndCaption(t *testing.T) {
	gateway, bot, _ := newTestGateway(3)

	err := gateway.SendItem(context.Background(), 42, relay.PayloadItem{Ref: "AgAD", Type: relay.MediaPhoto, Caption: "#3: look"})

	require.NoError(t, err)
	params, ok := bot.last().params.(*telego.SendPhotoParams)
	require.True(t, ok)
	assert.Equal(t, "AgAD", params.Photo.FileID)
	assert.Equal(t, "#3: look", params.Caption)
}

func TestGateway_SendItemRejectsUnknownType(t *testing.T) {
	gateway, bot, _ := newTestGateway(3)

	err := gateway.SendItem(context.Background(), 42, relay.PayloadItem{Ref: "x", Type: "location"})

	assert.Error(t, err)
	assert.Empty(t, bot.calls)
}

func TestGateway_SendGroup(t *testing.T) {
	gateway, bot, _ := newTestGateway(3)
	items := []relay.PayloadItem{
		{Ref: "p1", Type: relay.MediaPhoto, Caption: "album"},
		{Ref: "v1", Type: relay.MediaVideo},
	}

	require.NoError(t, gateway.SendGroup(context.Background(), 42, items))

	params, ok := bot.last().params.(*telego.SendMediaGroupParams)
	require.True(t, ok)
	require.Len(t, params.Media, 2)
	photo, ok := params.Media[0].(*telego.InputMediaPhoto)
	require.True(t, ok)
	assert.Equal(t, "p1", photo.Media.FileID)
	assert.Equal(t, "album", photo.Caption)
	video, ok := params.Media[1].(*telego.InputMediaVideo)
	require.True(t, ok)
	assert.Empty(t, video.Caption)
}

func TestGateway_SendGroupRejectsUngroupable(t *testing.T) {
	gateway, bot, _ := newTestGateway(3)

	err := gateway.SendGroup(context.Background(), 42, []relay.PayloadItem{{Ref: "s", Type: relay.MediaSticker}})

	assert.Error(t, err)
	assert.Empty(t, bot.calls)
}

func TestGateway_NetworkFailuresOpenBreaker(t *testing.T) {
	gateway, bot, cb := newTestGateway(2)
	bot.err = errors.New("dial tcp: connection refused")

	assert.Error(t, gateway.SendText(context.Background(), 42, "a"))
	assert.Error(t, gateway.SendText(context.Background(), 42, "b"))
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	err := gateway.SendText(context.Background(), 42, "c")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, bot.calls, 2)
}

func TestGateway_APIRejectionsKeepBreakerClosed(t *testing.T) {
	gateway, bot, cb := newTestGateway(1)
	bot.err = fmt.Errorf("telego: sendMessage: api: %w", &telegoapi.Error{
		ErrorCode:   403,
		Description: "Forbidden: bot was blocked by the user",
	})

	for i := 0; i < 3; i++ {
		err := gateway.SendText(context.Background(), 42, "hi")
		var apiErr *telegoapi.Error
		assert.ErrorAs(t, err, &apiErr)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Len(t, bot.calls, 3)
}
