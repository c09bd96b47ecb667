package azuretts

import (
	"io"
	"sync"
)

// DecoderFactory creates a decoder writing decoded samples to sink. The
// pipeline creates one decoder per session and replaces it at the session
// boundary, so a new session never sees leftover decoder state.
//
// The returned decoder receives raw audio-container fragments through Write,
// exactly as they arrived from the service, and is closed when the session's
// audio is fully drained.
type DecoderFactory func(sink io.Writer) io.WriteCloser

// pipeline is the bounded hand-off between the connection reader (producer)
// and the single decode worker (consumer). The queue, the per-session done
// flag, and the permanent stop flag are only touched under mu.
type pipeline struct {
	notify chan struct{}

	mu      sync.Mutex
	queue   [][]byte
	done    bool // no more audio for the current session
	stopped bool // worker must exit permanently

	newDecoder func() io.WriteCloser
	onComplete func()
	onError    func(error)

	exited chan struct{}
}

func newPipeline(newDecoder func() io.WriteCloser, onComplete func(), onError func(error)) *pipeline {
	return &pipeline{
		notify:     make(chan struct{}, 1),
		newDecoder: newDecoder,
		onComplete: onComplete,
		onError:    onError,
		exited:     make(chan struct{}),
	}
}

func (p *pipeline) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// push queues one raw binary message payload for decoding.
func (p *pipeline) push(payload []byte) {
	p.mu.Lock()
	if !p.stopped {
		p.queue = append(p.queue, payload)
	}
	p.mu.Unlock()
	p.signal()
}

// markDone marks the end of the current session's audio. Queued payloads are
// still decoded; once the queue empties the worker fires the completion
// notification and resets its decoder.
func (p *pipeline) markDone() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
	p.signal()
}

// stop discards all queued, not-yet-decoded audio and marks the session done.
// The in-flight decode call, if any, still runs to completion.
func (p *pipeline) stop() {
	p.mu.Lock()
	p.queue = nil
	p.done = true
	p.mu.Unlock()
	p.signal()
}

// shutdown makes the worker exit permanently and waits for it.
func (p *pipeline) shutdown() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.signal()
	<-p.exited
}

// run is the decode worker. It outlives sessions: decode errors are routed to
// the failure path and the loop keeps servicing later sessions until shutdown.
func (p *pipeline) run() {
	defer close(p.exited)

	dec := p.newDecoder()
	for {
		p.mu.Lock()
		for !p.stopped && len(p.queue) == 0 {
			if p.done {
				p.done = false
				p.mu.Unlock()
				if err := dec.Close(); err != nil {
					p.onError(err)
				}
				p.onComplete()
				dec = p.newDecoder()
				p.mu.Lock()
				continue
			}
			p.mu.Unlock()
			<-p.notify
			p.mu.Lock()
		}
		if p.stopped {
			p.mu.Unlock()
			dec.Close()
			return
		}
		msg := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		// Decode outside the lock: the sink may block on a downstream
		// audio device, and the producer must stay free to enqueue.
		audio, ok := extractAudio(msg)
		if !ok {
			continue
		}
		if _, err := dec.Write(audio); err != nil {
			p.onError(err)
		}
	}
}
