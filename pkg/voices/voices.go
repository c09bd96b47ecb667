// Package voices lists the voices offered by the speech synthesis service.
//
// Two catalogs exist: the Azure regional catalog, which needs a subscription
// key, and the free consumer catalog used by the Edge read-aloud feature.
// Both serve the same JSON shape; the consumer catalog exposes a smaller
// voice set and authenticates with a fixed client token instead of a key.
package voices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a fetched voice list stays cached.
	DefaultTTL = 10 * time.Second

	// trustedClientToken authenticates consumer-catalog requests. It is a
	// well-known constant baked into the Edge browser.
	trustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	edgeListURL = "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/voices/list?trustedclienttoken=" + trustedClientToken
	edgeWsURL   = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1?TrustedClientToken=" + trustedClientToken
)

// Voice describes one synthesis voice as reported by the catalog endpoints.
type Voice struct {
	Name           string   `json:"Name"`
	ShortName      string   `json:"ShortName"`
	DisplayName    string   `json:"DisplayName,omitempty"`
	LocalName      string   `json:"LocalName,omitempty"`
	FriendlyName   string   `json:"FriendlyName,omitempty"`
	Gender         string   `json:"Gender"`
	Locale         string   `json:"Locale"`
	LocaleName     string   `json:"LocaleName,omitempty"`
	SuggestedCodec string   `json:"SuggestedCodec,omitempty"`
	Status         string   `json:"Status,omitempty"`
	VoiceTag       VoiceTag `json:"VoiceTag,omitempty"`
}

// VoiceTag carries the catalog's descriptive labels for a voice.
type VoiceTag struct {
	ContentCategories  []string `json:"ContentCategories,omitempty"`
	VoicePersonalities []string `json:"VoicePersonalities,omitempty"`
}

// Catalog fetches and caches a voice list. Safe for concurrent use.
type Catalog struct {
	listURL string
	wsURL   string
	header  http.Header
	client  *http.Client
	ttl     time.Duration

	mu      sync.Mutex
	cached  []Voice
	fetched time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Catalog) {
		c.client = client
	}
}

// WithTTL sets how long a fetched list stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.ttl = ttl
	}
}

// WithListURL overrides the catalog list endpoint.
func WithListURL(url string) Option {
	return func(c *Catalog) {
		c.listURL = url
	}
}

// AzureCatalog returns the voice catalog of an Azure region. The region's
// subscription key is sent with every list request.
func AzureCatalog(region, key string, opts ...Option) *Catalog {
	c := &Catalog{
		listURL: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", region),
		wsURL:   fmt.Sprintf("wss://%s.tts.speech.microsoft.com/cognitiveservices/websocket/v1", region),
		header:  http.Header{"Ocp-Apim-Subscription-Key": {key}},
	}
	return c.apply(opts)
}

// EdgeCatalog returns the free consumer voice catalog.
func EdgeCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		listURL: edgeListURL,
		wsURL:   edgeWsURL,
	}
	return c.apply(opts)
}

func (c *Catalog) apply(opts []Option) *Catalog {
	c.ttl = DefaultTTL
	c.client = http.DefaultClient
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WebsocketURL returns the synthesis endpoint serving this catalog's voices.
func (c *Catalog) WebsocketURL() string {
	return c.wsURL
}

// List returns the catalog's voices, refetching when the cache is stale.
func (c *Catalog) List(ctx context.Context) ([]Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && time.Since(c.fetched) < c.ttl {
		return c.cached, nil
	}

	voices, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = voices
	c.fetched = time.Now()
	return voices, nil
}

// Find returns the voice whose ShortName or full Name matches name.
func (c *Catalog) Find(ctx context.Context, name string) (Voice, error) {
	voices, err := c.List(ctx)
	if err != nil {
		return Voice{}, err
	}
	for _, v := range voices {
		if v.ShortName == name || v.Name == name {
			return v, nil
		}
	}
	return Voice{}, fmt.Errorf("voices: %q not found in catalog", name)
}

func (c *Catalog) fetch(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("voices: build request: %w", err)
	}
	for k, vs := range c.header {
		req.Header[k] = vs
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voices: fetch list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("voices: list returned %s: %s", resp.Status, body)
	}

	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("voices: decode list: %w", err)
	}
	return voices, nil
}
