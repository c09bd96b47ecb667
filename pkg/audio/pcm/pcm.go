// Package pcm describes raw 16-bit little-endian interleaved sample streams.
package pcm

import "time"

// Format describes a PCM sample stream. Samples are signed 16-bit
// little-endian, channels interleaved.
type Format struct {
	SampleRate int
	Channels   int
}

// L16Stereo24K is the decoded shape of the default synthesis output format
// (24 kHz MP3 decoded to 16-bit stereo).
var L16Stereo24K = Format{SampleRate: 24000, Channels: 2}

// BytesPerFrame returns the byte size of one sample frame.
func (f Format) BytesPerFrame() int {
	return 2 * f.Channels
}

// Duration returns the play time of n bytes of audio in this format.
func (f Format) Duration(n int) time.Duration {
	bps := f.SampleRate * f.BytesPerFrame()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}
