// Package mp3 provides a streaming MP3 to PCM decoder for synthesis audio.
//
// The decoder accepts MP3 container fragments as they arrive from the network
// and emits decoded samples to a sink as soon as whole frames are available.
// Decoding uses the pure-Go hajimehoshi/go-mp3 decoder; output is 16-bit
// little-endian stereo at the stream's sample rate.
package mp3

import (
	"io"
	"sync"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/voxely/naturalvoice/pkg/audio/pcm"
)

// Format is the sample format produced for the synthesis service's default
// 24 kHz output.
var Format = pcm.L16Stereo24K

// StreamDecoder decodes an MP3 stream fed incrementally through Write,
// pushing decoded PCM to the sink. Write applies the sink's backpressure: it
// blocks while the decode side is busy delivering samples downstream.
//
// The decoder is stateful across fragments of one stream and must not be
// reused for a second one; create a new StreamDecoder per session.
type StreamDecoder struct {
	pw   *io.PipeWriter
	done chan struct{}

	mu     sync.Mutex
	n      int64
	decErr error
}

// NewStreamDecoder creates a decoder delivering decoded samples to sink.
func NewStreamDecoder(sink io.Writer) *StreamDecoder {
	pr, pw := io.Pipe()
	d := &StreamDecoder{
		pw:   pw,
		done: make(chan struct{}),
	}
	go d.pump(pr, sink)
	return d
}

func (d *StreamDecoder) pump(pr *io.PipeReader, sink io.Writer) {
	defer close(d.done)

	dec, err := gomp3.NewDecoder(pr)
	if err != nil {
		d.setErr(err)
		pr.CloseWithError(err)
		return
	}
	if _, err := io.Copy(sink, dec); err != nil {
		d.setErr(err)
		pr.CloseWithError(err)
	}
}

func (d *StreamDecoder) setErr(err error) {
	d.mu.Lock()
	if d.decErr == nil {
		d.decErr = err
	}
	d.mu.Unlock()
}

// Err returns the first decode or sink error, if any.
func (d *StreamDecoder) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.decErr
}

// Write feeds one fragment of MP3 container data to the decoder.
func (d *StreamDecoder) Write(p []byte) (int, error) {
	if err := d.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	d.n += int64(len(p))
	d.mu.Unlock()
	n, err := d.pw.Write(p)
	if err != nil {
		// The pump already captured the underlying cause.
		if derr := d.Err(); derr != nil {
			return n, derr
		}
		return n, err
	}
	return n, nil
}

// Close signals end of stream, waits for the remaining samples to drain to
// the sink, and reports any decode error. A stream that never carried audio
// closes cleanly.
func (d *StreamDecoder) Close() error {
	d.pw.Close()
	<-d.done

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.n == 0 {
		// go-mp3 reports EOF-ish errors for an empty stream; a session
		// with no audio is not a decode failure.
		return nil
	}
	return d.decErr
}
