package azuretts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/http/httpproxy"

	"github.com/voxely/naturalvoice/pkg/audio/mp3"
)

const defaultHandshakeTimeout = 15 * time.Second

// azureWebsocketURL builds the synthesis endpoint for an Azure region.
func azureWebsocketURL(region string) string {
	return "wss://" + region + ".tts.speech.microsoft.com/cognitiveservices/websocket/v1"
}

// Client is a streaming text-to-speech client. It holds at most one live
// session at a time: a new SpeakAsync call supersedes the previous session's
// state, so callers must wait for (or stop) the current request before
// issuing the next one.
//
// Decoded audio is delivered to the configured sink from a dedicated decode
// worker that lives for the whole client lifetime; boundary events are
// delivered from the connection's reader goroutine.
type Client struct {
	endpoint     string
	key          string
	outputFormat string
	callbacks    Callbacks
	newDecoder   DecoderFactory
	sink         io.Writer
	dialer       *websocket.Dialer
	logger       *slog.Logger

	pipe    *pipeline
	closed  atomic.Bool
	gen     atomic.Int64
	ctx     context.Context
	cancel  context.CancelFunc
	readers sync.WaitGroup

	// Session state below, guarded by mu. Reset in place by SpeakAsync;
	// only one session is live at a time.
	mu          sync.Mutex
	conn        *websocket.Conn
	connGen     int64
	locator     textLocator
	wordPos     int
	sentencePos int
	handle      *Handle
}

// Option configures a Client.
type Option func(*Client)

// WithRegion points the client at the Azure regional synthesis endpoint.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.endpoint = azureWebsocketURL(region)
	}
}

// WithEndpoint sets a raw websocket endpoint URL, overriding WithRegion.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithSubscriptionKey sets the Ocp-Apim-Subscription-Key request header.
// Endpoints that embed their credential in the URL need no key.
func WithSubscriptionKey(key string) Option {
	return func(c *Client) {
		c.key = key
	}
}

// WithOutputFormat requests an audio container other than DefaultOutputFormat.
// The decoder factory must understand the chosen container.
func WithOutputFormat(format string) Option {
	return func(c *Client) {
		c.outputFormat = format
	}
}

// WithCallbacks registers the boundary-event callbacks. Only categories with
// a non-nil callback are requested from the service.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Client) {
		c.callbacks = cb
	}
}

// WithSink sets the writer receiving decoded samples. It may block; decode
// happens on the client's worker, never on the connection reader.
func WithSink(w io.Writer) Option {
	return func(c *Client) {
		c.sink = w
	}
}

// WithDecoderFactory replaces the default MP3 decoder factory.
func WithDecoderFactory(f DecoderFactory) Option {
	return func(c *Client) {
		c.newDecoder = f
	}
}

// WithDialer replaces the websocket dialer, e.g. for tests or custom TLS.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithLogger enables connection-lifecycle debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client and starts its decode worker. Close releases it.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		outputFormat: DefaultOutputFormat,
		sink:         io.Discard,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		return nil, errors.New("azuretts: endpoint or region required")
	}
	if _, err := url.Parse(c.endpoint); err != nil {
		return nil, wrapError(err, "azuretts: parse endpoint")
	}
	if c.newDecoder == nil {
		c.newDecoder = func(sink io.Writer) io.WriteCloser {
			return mp3.NewStreamDecoder(sink)
		}
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{
			Proxy:            proxyForRequest,
			HandshakeTimeout: defaultHandshakeTimeout,
		}
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.pipe = newPipeline(
		func() io.WriteCloser { return c.newDecoder(c.sink) },
		c.completeSession,
		c.failSession,
	)
	go c.pipe.run()

	return c, nil
}

// Close stops the current session, then joins the connection reader and the
// decode worker. No callbacks fire after Close returns.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	c.Stop()
	c.readers.Wait()
	c.pipe.shutdown()
	return nil
}

// proxyForRequest resolves a forward proxy from the process environment for
// the endpoint URL. Only plain http:// proxies are applied; the secure
// endpoint connection is tunneled through them.
func proxyForRequest(req *http.Request) (*url.URL, error) {
	u, err := httpproxy.FromEnvironment().ProxyFunc()(req.URL)
	if err != nil || u == nil {
		return nil, err
	}
	if u.Scheme != "http" {
		return nil, nil
	}
	return u, nil
}
