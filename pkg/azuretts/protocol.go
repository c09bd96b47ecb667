package azuretts

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message paths used by the synthesis websocket protocol. Outbound messages
// are text frames with \r\n-separated Key:Value headers, a blank line, then
// the body. Inbound messages are dispatched on their Path header.
const (
	pathSpeechConfig  = "speech.config"
	pathSSML          = "ssml"
	pathTurnEnd       = "turn.end"
	pathAudioMetadata = "audio.metadata"
)

// audioMarker separates the header block from the audio bytes inside a binary
// message. The two bytes before the header block are a header-length prefix
// that is not part of the header text.
var audioMarker = []byte("Path:audio\r\n")

// DefaultOutputFormat is the audio container requested from the service.
const DefaultOutputFormat = "audio-24khz-96kbitrate-mono-mp3"

type metadataOptions struct {
	BookmarkEnabled            bool `json:"bookmarkEnabled"`
	PunctuationBoundaryEnabled bool `json:"punctuationBoundaryEnabled"`
	SentenceBoundaryEnabled    bool `json:"sentenceBoundaryEnabled"`
	WordBoundaryEnabled        bool `json:"wordBoundaryEnabled"`
	VisemeEnabled              bool `json:"visemeEnabled"`
}

type speechConfig struct {
	Context struct {
		Synthesis struct {
			Audio struct {
				MetadataOptions metadataOptions `json:"metadataOptions"`
				OutputFormat    string          `json:"outputFormat"`
			} `json:"audio"`
			Language struct {
				AutoDetection bool `json:"autoDetection"`
			} `json:"language"`
		} `json:"synthesis"`
	} `json:"context"`
}

// timestamp returns the X-Timestamp header value: UTC with millisecond
// precision, e.g. 2026-08-23T10:41:02.123Z.
func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// requestID returns a 32-character lowercase hex request identifier.
func requestID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// buildSpeechConfig builds the speech.config message. The metadata option
// flags mirror exactly which callbacks are registered: the service only
// reports event categories the client can deliver.
func buildSpeechConfig(cb Callbacks, outputFormat string) ([]byte, error) {
	var cfg speechConfig
	audio := &cfg.Context.Synthesis.Audio
	audio.MetadataOptions = metadataOptions{
		BookmarkEnabled:            cb.Bookmark != nil,
		PunctuationBoundaryEnabled: cb.PunctuationBoundary != nil,
		SentenceBoundaryEnabled:    cb.SentenceBoundary != nil,
		WordBoundaryEnabled:        cb.WordBoundary != nil,
		VisemeEnabled:              cb.Viseme != nil,
	}
	audio.OutputFormat = outputFormat

	body, err := json.Marshal(&cfg)
	if err != nil {
		return nil, wrapError(err, "marshal speech.config")
	}

	var buf bytes.Buffer
	buf.WriteString("X-Timestamp:" + timestamp() + "\r\n")
	buf.WriteString("Content-Type:application/json; charset=utf-8\r\n")
	buf.WriteString("Path:" + pathSpeechConfig + "\r\n\r\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// buildSSMLMessage builds the ssml message carrying the input markup.
func buildSSMLMessage(reqID, ssml string) []byte {
	var buf bytes.Buffer
	buf.WriteString("X-Timestamp:" + timestamp() + "\r\n")
	buf.WriteString("X-RequestId:" + reqID + "\r\n")
	buf.WriteString("Content-Type:application/ssml+xml\r\n")
	buf.WriteString("Path:" + pathSSML + "\r\n\r\n")
	buf.WriteString(ssml)
	return buf.Bytes()
}

// extractAudio returns the audio bytes of a binary message: everything after
// the Path:audio\r\n marker, which itself follows a 2-byte header-length
// prefix and a header block. Messages without the marker carry no audio.
func extractAudio(payload []byte) ([]byte, bool) {
	if len(payload) <= 2 {
		return nil, false
	}
	rest := payload[2:]
	i := bytes.Index(rest, audioMarker)
	if i < 0 {
		return nil, false
	}
	return rest[i+len(audioMarker):], true
}

// parseTextMessage splits an inbound text message into its Path header value
// and body. Messages without a Path header or a blank-line terminator are
// malformed and reported as not ok.
func parseTextMessage(data []byte) (path string, body []byte, ok bool) {
	i := bytes.Index(data, []byte("Path:"))
	if i < 0 {
		return "", nil, false
	}
	i += len("Path:")
	j := bytes.Index(data[i:], []byte("\r\n\r\n"))
	if j < 0 {
		return "", nil, false
	}
	return string(data[i : i+j]), data[i+j+4:], true
}
