// Package wavfile writes raw PCM streams into WAV containers.
package wavfile

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voxely/naturalvoice/pkg/audio/pcm"
)

// Writer is an io.WriteCloser that accepts 16-bit little-endian interleaved
// PCM bytes and encodes them as WAV. Close finalizes the container header and
// must be called for the file to be playable.
type Writer struct {
	enc    *wav.Encoder
	format pcm.Format
	carry  []byte
	buf    audio.IntBuffer
}

// NewWriter returns a Writer encoding to ws in the given sample format. The
// destination must be seekable: the WAV header is patched on Close.
func NewWriter(ws io.WriteSeeker, format pcm.Format) *Writer {
	return &Writer{
		enc:    wav.NewEncoder(ws, format.SampleRate, 16, format.Channels, 1),
		format: format,
		buf: audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: 16,
		},
	}
}

// Write encodes one fragment of sample data. A trailing half sample is
// carried over to the next call.
func (w *Writer) Write(p []byte) (int, error) {
	data := p
	if len(w.carry) > 0 {
		data = append(w.carry, p...)
		w.carry = nil
	}
	if odd := len(data) % 2; odd != 0 {
		w.carry = append(w.carry, data[len(data)-odd:]...)
		data = data[:len(data)-odd]
	}
	if len(data) == 0 {
		return len(p), nil
	}

	samples := w.buf.Data[:0]
	for i := 0; i+1 < len(data); i += 2 {
		samples = append(samples, int(int16(uint16(data[i])|uint16(data[i+1])<<8)))
	}
	w.buf.Data = samples
	if err := w.enc.Write(&w.buf); err != nil {
		return 0, fmt.Errorf("wavfile: encode: %w", err)
	}
	return len(p), nil
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wavfile: finalize: %w", err)
	}
	return nil
}
