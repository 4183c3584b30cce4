package telegram

import (
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/mymmrac/telego"
)

const chatTypePrivate = "private"

// ToMessage normalizes a transport message. Only private chats are relayed.
func ToMessage(m *telego.Message) (relay.Message, bool) {
	if m == nil || m.Chat.Type != chatTypePrivate {
		return relay.Message{}, false
	}
	return relay.Message{
		Sender:  relay.SenderKey(m.Chat.ID),
		Text:    m.Text,
		Caption: m.Caption,
		GroupID: m.MediaGroupID,
		Item:    toItem(m),
	}, true
}

func toItem(m *telego.Message) *relay.PayloadItem {
	item := func(ref string, typ relay.MediaType) *relay.PayloadItem {
		return &relay.PayloadItem{Ref: ref, Type: typ}
	}

	switch {
	case len(m.Photo) > 0:
		// sizes are ordered ascending
		return item(m.Photo[len(m.Photo)-1].FileID, relay.MediaPhoto)
	case m.Video != nil:
		return item(m.Video.FileID, relay.MediaVideo)
	// an animation is also reported as a document
	case m.Animation != nil:
		return item(m.Animation.FileID, relay.MediaAnimation)
	case m.Voice != nil:
		return item(m.Voice.FileID, relay.MediaVoice)
	case m.VideoNote != nil:
		return item(m.VideoNote.FileID, relay.MediaVideoNote)
	case m.Sticker != nil:
		return item(m.Sticker.FileID, relay.MediaSticker)
	case m.Document != nil:
		return item(m.Document.FileID, relay.MediaDocument)
	case m.Audio != nil:
		return item(m.Audio.FileID, relay.MediaAudio)
	default:
		return nil
	}
}
