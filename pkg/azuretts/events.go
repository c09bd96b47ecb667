package azuretts

import "encoding/json"

// Boundary event types reported in audio.metadata messages.
const (
	eventViseme           = "Viseme"
	eventWordBoundary     = "WordBoundary"
	eventSentenceBoundary = "SentenceBoundary"
	eventSessionEnd       = "SessionEnd"
	eventBookmark         = "Bookmark"

	boundaryPunctuation = "PunctuationBoundary"
)

// Callbacks are the optional event handlers for a client. Each non-nil
// callback enables the matching metadata category in speech.config, so the
// service only sends events the caller can consume. Offsets are audio-time
// offsets in 100-nanosecond ticks; textPos is a byte offset into the input
// passed to SpeakAsync, or -1 when the reported word could not be re-anchored.
type Callbacks struct {
	// Viseme receives mouth-shape codes for lip sync.
	Viseme func(offset uint64, visemeID int)

	// WordBoundary receives word boundaries with their input position.
	WordBoundary func(offset uint64, textPos, length int)

	// PunctuationBoundary receives boundaries the service classifies as
	// punctuation rather than spoken words.
	PunctuationBoundary func(offset uint64, textPos, length int)

	// SentenceBoundary receives sentence boundaries.
	SentenceBoundary func(offset uint64, textPos, length int)

	// Bookmark receives <bookmark/> marks from the input markup.
	Bookmark func(offset uint64, name string)

	// SessionEnd receives the audio offset at which the session ends.
	SessionEnd func(offset uint64)
}

// metadataEvent is one entry of the Metadata array in an audio.metadata body.
type metadataEvent struct {
	Type string `json:"Type"`
	Data struct {
		Offset   uint64 `json:"Offset"`
		VisemeID int    `json:"VisemeId"`
		Bookmark string `json:"Bookmark"`
		Text     struct {
			Text         string `json:"Text"`
			Length       int    `json:"Length"`
			BoundaryType string `json:"BoundaryType"`
		} `json:"text"`
	} `json:"Data"`
}

type metadataBody struct {
	Metadata []metadataEvent `json:"Metadata"`
}

func parseMetadata(body []byte) ([]metadataEvent, bool) {
	var md metadataBody
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, false
	}
	return md.Metadata, true
}
