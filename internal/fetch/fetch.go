// Package fetch talks to the upstream music API: it resolves a track's
// playable audio descriptor and downloads opaque resources (album art,
// lyric files) by reference.
package fetch

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

	"github.com/mgpai22/lyricquiz/internal/lyrics"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 10_000_000
	DefaultUserAgent = "lyricquiz/1.0"
)

var (
	ErrStatus   = errors.New("unexpected HTTP status")
	ErrTooLarge = errors.New("response body too large")
	ErrUpstream = errors.New("upstream reported an error")
)

// playable audio and optional lyric reference for one track
type AudioDescriptor struct {
	ID        string `json:"cid"`
	Name      string `json:"name,omitempty"`
	AlbumID   string `json:"albumCid,omitempty"`
	SourceURL string `json:"sourceUrl"`
	LyricURL  string `json:"lyricUrl,omitempty"`
	MVURL     string `json:"mvUrl,omitempty"`
}

// upstream envelope around AudioDescriptor
type DescriptorResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data AudioDescriptor `json:"data"`
}

// downloaded resource body
type Resource struct {
	Data        []byte
	ContentType string
}

type Client struct {
	baseURL   string
	http      *http.Client
	maxBytes  int64
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMaxBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AudioDescriptor resolves the audio source and lyric reference of a track.
func (c *Client) AudioDescriptor(ctx context.Context, trackID string) (*DescriptorResponse, error) {
	if trackID == "" {
		return nil, errors.New("fetch: track id is required")
	}

	body, _, err := c.get(ctx, c.baseURL+"/song/"+url.PathEscape(trackID))
	if err != nil {
		return nil, err
	}

	var resp DescriptorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fetch: decode descriptor: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("fetch: %w: code %d: %s", ErrUpstream, resp.Code, resp.Msg)
	}
	if resp.Data.SourceURL == "" {
		return nil, fmt.Errorf("fetch: %w: descriptor for %s has no source", ErrUpstream, trackID)
	}

	return &resp, nil
}

// Resource downloads whatever ref points to; ref must be an absolute http(s) URL.
func (c *Client) Resource(ctx context.Context, ref string) (*Resource, error) {
	u, err := url.ParseRequestURI(ref)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid url %q: %w", ref, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("fetch: unsupported scheme %q", u.Scheme)
	}

	body, contentType, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	return &Resource{Data: body, ContentType: contentType}, nil
}

// Lyrics downloads and parses a lyric file.
func (c *Client) Lyrics(ctx context.Context, ref string) (lyrics.Track, error) {
	res, err := c.Resource(ctx, ref)
	if err != nil {
		return nil, err
	}
	return lyrics.Parse(string(res.Data)), nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch: %w %s", ErrStatus, resp.Status)
	}

	if resp.ContentLength > c.maxBytes {
		return nil, "", fmt.Errorf("fetch: %w: content-length %d exceeds %d", ErrTooLarge, resp.ContentLength, c.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, "", fmt.Errorf("fetch: %w (>%d bytes)", ErrTooLarge, c.maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
