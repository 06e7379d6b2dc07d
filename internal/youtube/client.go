package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"streamvault/internal/live"
	"streamvault/internal/services"
)

const (
	component      = "youtube"
	defaultTimeout = 15 * time.Second
	liveContent    = "live"
	maxErrorBody   = 512
)

// Client provides access to the YouTube Data API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ live.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a YouTube client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "youtube api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "youtube base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Items *[]searchItem `json:"items"`
}

type searchItem struct {
	ID      itemID   `json:"id"`
	Snippet *snippet `json:"snippet"`
}

type itemID struct {
	Kind      string `json:"kind"`
	VideoID   string `json:"videoId"`
	ChannelID string `json:"channelId"`
}

type snippet struct {
	Title                string `json:"title"`
	ChannelTitle         string `json:"channelTitle"`
	LiveBroadcastContent string `json:"liveBroadcastContent"`
}

// CheckLive reports the channel's current live broadcast, or nil when the
// channel is not live.
func (c *Client) CheckLive(ctx context.Context, channelID string) (*live.Broadcast, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, services.Wrap(services.ErrValidation, component, "check live", "channel id must not be empty", nil)
	}
	params := url.Values{}
	params.Set("part", "id,snippet")
	params.Set("channelId", channelID)
	params.Set("eventType", "live")
	params.Set("type", "video")

	items, err := c.search(ctx, "check live", params)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Snippet == nil {
			return nil, services.Wrap(services.ErrProviderUnavailable, component, "check live", "search item missing snippet", nil)
		}
		if item.Snippet.LiveBroadcastContent != liveContent {
			continue
		}
		videoID := strings.TrimSpace(item.ID.VideoID)
		if videoID == "" {
			return nil, services.Wrap(services.ErrProviderUnavailable, component, "check live", "live item missing videoId", nil)
		}
		return &live.Broadcast{ID: videoID, Title: item.Snippet.Title}, nil
	}
	return nil, nil
}

// ResolveChannelID returns the id of the first channel matching name.
func (c *Client) ResolveChannelID(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, component, "resolve channel", "name must not be empty", nil)
	}
	params := url.Values{}
	params.Set("part", "id,snippet")
	params.Set("maxResults", "1")
	params.Set("q", name)
	params.Set("type", "channel")

	items, err := c.search(ctx, "resolve channel", params)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if id := strings.TrimSpace(item.ID.ChannelID); id != "" {
			return id, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, component, "resolve channel", fmt.Sprintf("no channel found with name %q", name), nil)
}

func (c *Client) search(ctx context.Context, operation string, params url.Values) ([]searchItem, error) {
	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, operation, "parse youtube url", err)
	}
	params.Set("key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, component, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, component, operation,
			fmt.Sprintf("execute request (latency=%v)", latency.Round(time.Millisecond)), redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, services.Wrap(services.ErrProviderUnavailable, component, operation,
			fmt.Sprintf("youtube search returned %d: %s", resp.StatusCode, apiErrorMessage(body)), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, component, operation, "decode youtube response", err)
	}
	if payload.Items == nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, component, operation, "youtube response missing items", nil)
	}
	return *payload.Items, nil
}

// apiErrorMessage extracts error.message from a Google API error body.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "empty body"
}

// redactKey strips the API key from url.Error messages so it never reaches logs.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
