package azuretts

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// SpeakAsync starts synthesizing the given SSML input and returns a handle
// for its eventual completion. Session state (cursors, completion handle) is
// reset in place; an earlier unresolved handle is abandoned. One session at a
// time: callers must not overlap requests.
func (c *Client) SpeakAsync(ssml string) *Handle {
	h := newHandle()
	if c.closed.Load() {
		h.resolve(ErrClientClosed)
		return h
	}

	gen := c.gen.Add(1)
	c.mu.Lock()
	if c.conn != nil {
		// Superseding a live session: close its connection so the old
		// reader exits. Its handle stays unresolved.
		c.writeClose(c.conn)
		c.conn.Close()
	}
	c.locator = textLocator{text: ssml}
	c.wordPos, c.sentencePos = 0, 0
	c.handle = h
	c.conn = nil
	c.connGen = gen
	c.mu.Unlock()

	c.readers.Add(1)
	go func() {
		defer c.readers.Done()
		c.connect(gen, ssml, h)
	}()
	return h
}

// Stop cancels the current session: the connection is closed with a normal
// closure code and all queued, undecoded audio is discarded. The in-flight
// decode call still runs to completion. Stop is not an error; the session's
// handle resolves once the worker observes the drained queue.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.conn != nil {
		c.writeClose(c.conn)
		c.conn.Close()
		c.conn = nil
	}
	// Invalidate the generation: a dial still in flight must be dropped
	// when it completes, not stored and started.
	c.connGen = -1
	c.mu.Unlock()
	c.pipe.stop()
}

func (c *Client) writeClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}

func (c *Client) connect(gen int64, ssml string, h *Handle) {
	header := make(map[string][]string)
	if c.key != "" {
		header["Ocp-Apim-Subscription-Key"] = []string{c.key}
	}

	c.logger.Debug("dialing synthesis endpoint", "endpoint", c.endpoint)
	conn, _, err := c.dialer.DialContext(c.ctx, c.endpoint, header)
	if err != nil {
		if c.dropIfCurrent(gen) {
			// Resolve before waking the worker so the failure wins the
			// race against the drained-queue success path.
			h.resolve(wrapError(err, "azuretts: connect"))
			c.pipe.markDone()
		}
		return
	}

	c.mu.Lock()
	if c.connGen != gen || c.closed.Load() {
		// A newer session replaced this one while the dial was in flight.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	if err := c.sendStart(conn, ssml); err != nil {
		if c.dropIfCurrent(gen) {
			h.resolve(wrapError(err, "azuretts: send start"))
			c.pipe.markDone()
		}
		conn.Close()
		return
	}

	c.readLoop(conn, gen, h)
}

// dropIfCurrent clears the tracked connection if gen still identifies the
// live session. Events for superseded connections are ignored.
func (c *Client) dropIfCurrent(gen int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connGen != gen {
		return false
	}
	c.conn = nil
	return true
}

// sendStart sends the configuration message and the input markup. The
// configuration's metadata flags mirror the registered callbacks at the time
// of the call.
func (c *Client) sendStart(conn *websocket.Conn, ssml string) error {
	cfg, err := buildSpeechConfig(c.callbacks, c.outputFormat)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, cfg); err != nil {
		return wrapError(err, "write speech.config")
	}

	reqID := requestID()
	c.logger.Debug("session started", "request_id", reqID)
	msg := buildSSMLMessage(reqID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return wrapError(err, "write ssml")
	}
	return nil
}

// readLoop processes inbound messages until the connection goes away. An
// error thrown by a handler (including a panicking user callback) is routed
// to the failure path without ending the loop, so one bad message cannot
// strand the session.
func (c *Client) readLoop(conn *websocket.Conn, gen int64, h *Handle) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			c.onConnGone(gen, err, h)
			return
		}
		c.handleMessage(gen, mt, data, h)
	}
}

func (c *Client) handleMessage(gen int64, mt int, data []byte, h *Handle) {
	defer func() {
		if r := recover(); r != nil {
			h.resolve(fmt.Errorf("azuretts: event handler panic: %v", r))
		}
	}()

	c.mu.Lock()
	current := c.connGen == gen && c.conn != nil
	c.mu.Unlock()
	if !current {
		return
	}

	switch mt {
	case websocket.BinaryMessage:
		// Whole payload goes to the decode worker; it strips the header.
		c.pipe.push(data)

	case websocket.TextMessage:
		path, body, ok := parseTextMessage(data)
		if !ok {
			return
		}
		switch path {
		case pathAudioMetadata:
			events, ok := parseMetadata(body)
			if !ok {
				return
			}
			for _, ev := range events {
				c.dispatch(ev)
			}
		case pathTurnEnd:
			c.logger.Debug("turn.end received")
			c.mu.Lock()
			if c.connGen == gen && c.conn != nil {
				c.writeClose(c.conn)
				c.conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()
			c.pipe.markDone()
		}
	}
}

// onConnGone handles the read loop ending. For the live connection this
// marks the pipeline done; a failure that carries a genuine error (anything
// but a clean closure) also resolves the handle with it. A connection
// already released by Stop or turn.end is ignored: its session ended on
// purpose and the read error that follows the local close is expected.
func (c *Client) onConnGone(gen int64, err error, h *Handle) {
	c.mu.Lock()
	if c.connGen != gen || c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	if !isNormalClose(err) {
		c.logger.Debug("connection failed", "error", err)
		if ce, ok := err.(*websocket.CloseError); ok {
			h.resolve(&Error{Code: ce.Code, Message: ce.Text})
		} else {
			h.resolve(wrapError(err, "azuretts: connection"))
		}
	}
	c.pipe.markDone()
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
	)
}

// completeSession resolves the live session's handle with success once its
// audio has fully drained. Racing resolutions keep first-wins semantics.
func (c *Client) completeSession() {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h != nil {
		h.resolve(nil)
	}
}

// failSession resolves the live session's handle with a decode error.
func (c *Client) failSession(err error) {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h != nil {
		h.resolve(wrapError(err, "azuretts: decode"))
	}
}

// dispatch turns one parsed metadata event into a callback invocation,
// re-anchoring word and sentence text against the session input. Word and
// punctuation boundaries share the word cursor; sentences advance their own.
func (c *Client) dispatch(ev metadataEvent) {
	cb := c.callbacks
	offset := ev.Data.Offset

	switch ev.Type {
	case eventViseme:
		if cb.Viseme != nil {
			cb.Viseme(offset, ev.Data.VisemeID)
		}

	case eventWordBoundary:
		fn := cb.WordBoundary
		if ev.Data.Text.BoundaryType == boundaryPunctuation {
			fn = cb.PunctuationBoundary
		}
		if fn == nil {
			return
		}
		fn(offset, c.advance(ev.Data.Text.Text, &c.wordPos), ev.Data.Text.Length)

	case eventSentenceBoundary:
		if cb.SentenceBoundary == nil {
			return
		}
		cb.SentenceBoundary(offset, c.advance(ev.Data.Text.Text, &c.sentencePos), ev.Data.Text.Length)

	case eventSessionEnd:
		if cb.SessionEnd != nil {
			cb.SessionEnd(offset)
		}

	case eventBookmark:
		if cb.Bookmark != nil {
			cb.Bookmark(offset, ev.Data.Bookmark)
		}
	}
}

func (c *Client) advance(word string, cursor *int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.locator.locate(word, cursor)
	if !ok {
		return -1
	}
	return pos
}
