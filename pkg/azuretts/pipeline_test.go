package azuretts

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeDecoder records every fragment written to it.
type fakeDecoder struct {
	mu     sync.Mutex
	chunks []string
	closed bool
	err    error
}

func (d *fakeDecoder) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	d.chunks = append(d.chunks, string(p))
	return len(p), nil
}

func (d *fakeDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDecoder) setErr(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fakeDecoder) got() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.chunks...)
}

func (d *fakeDecoder) wasClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func binaryMsg(audio string) []byte {
	return append([]byte{0x00, 0x0c}, []byte("Path:audio\r\n"+audio)...)
}

type pipeFixture struct {
	pipe      *pipeline
	completes chan struct{}
	errs      chan error

	mu       sync.Mutex
	override func() io.WriteCloser
	decoders []*fakeDecoder
}

func newPipeFixture() *pipeFixture {
	f := &pipeFixture{
		completes: make(chan struct{}, 8),
		errs:      make(chan error, 8),
	}
	f.pipe = newPipeline(
		func() io.WriteCloser {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.override != nil {
				return f.override()
			}
			d := &fakeDecoder{}
			f.decoders = append(f.decoders, d)
			return d
		},
		func() { f.completes <- struct{}{} },
		func(err error) { f.errs <- err },
	)
	go f.pipe.run()
	return f
}

func (f *pipeFixture) setOverride(fn func() io.WriteCloser) {
	f.mu.Lock()
	f.override = fn
	f.mu.Unlock()
}

// decoder waits for the i-th session decoder to exist.
func (f *pipeFixture) decoder(t *testing.T, i int) *fakeDecoder {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		if len(f.decoders) > i {
			d := f.decoders[i]
			f.mu.Unlock()
			return d
		}
		f.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("decoder %d never created", i)
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *pipeFixture) decoderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.decoders)
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestPipelineDrainsInOrder(t *testing.T) {
	f := newPipeFixture()
	defer f.pipe.shutdown()

	f.pipe.push(binaryMsg("p1"))
	f.pipe.push(binaryMsg("p2"))
	f.pipe.push(binaryMsg("p3"))
	f.pipe.markDone()

	waitFor(t, f.completes, "completion")

	got := f.decoder(t, 0).got()
	want := []string{"p1", "p2", "p3"}
	if len(got) != len(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("decoded %v, want %v", got, want)
		}
	}
	if !f.decoder(t, 0).wasClosed() {
		t.Fatal("session decoder not closed at boundary")
	}
	// A fresh decoder replaces the session's one after the done transition.
	f.decoder(t, 1)
}

func TestPipelineStopDiscardsQueue(t *testing.T) {
	f := newPipeFixture()
	defer f.pipe.shutdown()

	// Block the worker on a slow payload so later ones stay queued.
	slow := &slowDecoder{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	f.setOverride(func() io.WriteCloser { return slow })

	// Recycle the initial decoder so the worker picks up slow.
	f.pipe.markDone()
	waitFor(t, f.completes, "initial decoder recycle")

	f.pipe.push(binaryMsg("blocking"))
	select {
	case <-slow.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up first payload")
	}

	f.pipe.push(binaryMsg("p1"))
	f.pipe.push(binaryMsg("p2"))
	f.pipe.stop()
	close(slow.release)

	waitFor(t, f.completes, "completion after stop")

	if n := slow.count(); n != 1 {
		t.Fatalf("decoded %d payloads after stop, want 1 (the in-flight one)", n)
	}
}

func TestPipelineDecodeErrorKeepsWorkerAlive(t *testing.T) {
	f := newPipeFixture()
	defer f.pipe.shutdown()

	f.decoder(t, 0).setErr(errors.New("bad frame"))
	f.pipe.push(binaryMsg("p1"))

	select {
	case err := <-f.errs:
		if err == nil {
			t.Fatal("expected decode error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode error")
	}

	// Worker must survive and service the next session.
	f.pipe.markDone()
	waitFor(t, f.completes, "completion of failed session")

	f.pipe.push(binaryMsg("p2"))
	f.pipe.markDone()
	waitFor(t, f.completes, "completion of next session")

	if got := f.decoder(t, 1).got(); len(got) != 1 || got[0] != "p2" {
		t.Fatalf("second session decoded %v, want [p2]", got)
	}
}

func TestPipelineSkipsPayloadWithoutMarker(t *testing.T) {
	f := newPipeFixture()
	defer f.pipe.shutdown()

	f.pipe.push([]byte{0x00, 0x02, 'x', 'x'})
	f.pipe.push(binaryMsg("real"))
	f.pipe.markDone()
	waitFor(t, f.completes, "completion")

	if got := f.decoder(t, 0).got(); len(got) != 1 || got[0] != "real" {
		t.Fatalf("decoded %v, want [real]", got)
	}
}

type slowDecoder struct {
	started   chan struct{}
	startOnce sync.Once
	release   chan struct{}

	mu sync.Mutex
	n  int
}

func (d *slowDecoder) Write(p []byte) (int, error) {
	d.startOnce.Do(func() { close(d.started) })
	<-d.release
	d.mu.Lock()
	d.n++
	d.mu.Unlock()
	return len(p), nil
}

func (d *slowDecoder) Close() error { return nil }

func (d *slowDecoder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}
