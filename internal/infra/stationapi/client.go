// Package stationapi provides an HTTP client for the live radio station endpoints.
package stationapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent identifies the client to the station
	DefaultUserAgent = "LiveRadio-Client"

	// ClientIDHeader carries the client session id
	ClientIDHeader = "X-Client-ID"

	// maxBodySize bounds a song document (base64 audio + art)
	maxBodySize = 64 << 20
)

// Endpoint paths
const (
	PathSong     = "/get-song"
	PathPosition = "/get-song-position"
	PathStatus   = "/get-bisi"
)

// ErrPayload marks a response that carried the application-level error flag
// or lacked a required field.
var ErrPayload = errors.New("station reported an error")

// Status is the background/song selection published by the station.
type Status struct {
	BackgroundIndex int `json:"bi"`
	SongIndex       int `json:"si"`
}

// Position is the station clock reference for the current song.
type Position struct {
	Offset  float64 `json:"t"`
	Modulus float64 `json:"mod"`
}

// Song is a decoded song document.
type Song struct {
	Title       string
	Audio       []byte
	ImageBase64 string
	Duration    string
}

// Client talks to a station over HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	clientID   string
	httpClient *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithClientID sets the session id sent in ClientIDHeader.
func WithClientID(id string) Option {
	return func(c *Client) {
		c.clientID = id
	}
}

// NewClient creates a station client for baseURL (e.g. "http://localhost:5000").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchStatus retrieves the current background and song indexes.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	var raw struct {
		BI    *int `json:"bi"`
		SI    *int `json:"si"`
		Error any  `json:"error"`
	}
	if err := c.getJSON(ctx, PathStatus, &raw); err != nil {
		return Status{}, err
	}
	if errorFlag(raw.Error) {
		return Status{}, fmt.Errorf("%s: %w", PathStatus, ErrPayload)
	}
	if raw.BI == nil || raw.SI == nil {
		return Status{}, fmt.Errorf("%s: missing bi/si: %w", PathStatus, ErrPayload)
	}
	return Status{BackgroundIndex: *raw.BI, SongIndex: *raw.SI}, nil
}

// FetchPosition retrieves the clock reference used for position synchronization.
func (c *Client) FetchPosition(ctx context.Context) (Position, error) {
	var raw struct {
		T     *float64 `json:"t"`
		Mod   *float64 `json:"mod"`
		Error any      `json:"error"`
	}
	if err := c.getJSON(ctx, PathPosition, &raw); err != nil {
		return Position{}, err
	}
	if errorFlag(raw.Error) {
		return Position{}, fmt.Errorf("%s: %w", PathPosition, ErrPayload)
	}
	if raw.T == nil || raw.Mod == nil || *raw.Mod <= 0 {
		return Position{}, fmt.Errorf("%s: missing t/mod: %w", PathPosition, ErrPayload)
	}
	return Position{Offset: *raw.T, Modulus: *raw.Mod}, nil
}

// FetchSong retrieves and decodes the current song document.
func (c *Client) FetchSong(ctx context.Context) (Song, error) {
	var raw struct {
		Title    string `json:"title"`
		Audio    string `json:"audio"`
		Image    string `json:"image"`
		Duration string `json:"duration"`
		Error    any    `json:"error"`
	}
	if err := c.getJSON(ctx, PathSong, &raw); err != nil {
		return Song{}, err
	}
	if errorFlag(raw.Error) {
		return Song{}, fmt.Errorf("%s: %w", PathSong, ErrPayload)
	}

	audio, err := base64.StdEncoding.DecodeString(raw.Audio)
	if err != nil {
		return Song{}, fmt.Errorf("%s: decode audio: %w", PathSong, err)
	}

	return Song{
		Title:       raw.Title,
		Audio:       audio,
		ImageBase64: raw.Image,
		Duration:    raw.Duration,
	}, nil
}

// errorFlag reports whether a payload's error field is set to a truthy value.
// false, 0, "" and null all mean no error.
func errorFlag(v any) bool {
	switch e := v.(type) {
	case nil:
		return false
	case bool:
		return e
	case float64:
		return e != 0
	case string:
		return e != ""
	}
	return true
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.clientID != "" {
		req.Header.Set(ClientIDHeader, c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Station response received")
	return nil
}
