package relay

import "fmt"

// SenderKey identifies a sender's conversation on the transport.
type SenderKey int64

// Handle is the anonymous identity shown to the operator.
type Handle uint64

func (h Handle) String() string {
	return fmt.Sprintf("#%d", uint64(h))
}

type MediaType string

const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaAnimation MediaType = "animation"
	MediaVoice     MediaType = "voice"
	MediaVideoNote MediaType = "video_note"
	MediaSticker   MediaType = "sticker"
	MediaDocument  MediaType = "document"
	MediaAudio     MediaType = "audio"
)

// SupportsCaption reports whether the transport can attach a caption to items of this type.
func (t MediaType) SupportsCaption() bool {
	switch t {
	case MediaVideoNote, MediaSticker:
		return false
	default:
		return true
	}
}

// Groupable reports whether items of this type may be sent as part of a media group.
func (t MediaType) Groupable() bool {
	switch t {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio:
		return true
	default:
		return false
	}
}

// PayloadItem is a reference to already uploaded content.
type PayloadItem struct {
	Ref     string
	Type    MediaType
	Caption string
}

// Message is an inbound event normalized by the transport.
type Message struct {
	Sender  SenderKey
	Text    string
	Caption string
	GroupID string
	Item    *PayloadItem
}

func (m Message) IsCommand() bool {
	return m.Item == nil && len(m.Text) > 0 && m.Text[0] == '/'
}

func (m Message) IsGroupItem() bool {
	return m.GroupID != "" && m.Item != nil && m.Item.Type.Groupable()
}

// Batch is a flushed album ready for delivery.
type Batch struct {
	Sender  SenderKey
	Handle  Handle
	Items   []PayloadItem
	Caption string
}
