package model

// MediaKind classifies inbound media messages for placeholder rendering. The
// bridge never downloads media; only the kind is relayed.
type MediaKind string

const (
	MediaImage     MediaKind = "image"
	MediaVideo     MediaKind = "video"
	MediaAudio     MediaKind = "audio"
	MediaVoiceNote MediaKind = "voice note"
	MediaDocument  MediaKind = "document"
	MediaSticker   MediaKind = "sticker"
)

// Label renders the bracketed placeholder forwarded in place of media bodies.
// Unknown kinds fall back to a generic placeholder.
func (k MediaKind) Label() string {
	switch k {
	case MediaImage, MediaVideo, MediaAudio, MediaVoiceNote, MediaDocument, MediaSticker:
		return "[" + string(k) + " message]"
	default:
		return "[media message]"
	}
}

// InboundMessage is one message observed on the session, already stripped of
// transport-specific detail.
type InboundMessage struct {
	SenderID         string
	ChatJID          string
	IsSelfOriginated bool
	HasMedia         bool
	MediaKind        MediaKind
	TextBody         string
}
