// Package bluesky is a minimal AT Protocol client covering what the feed pipeline needs:
// session creation and author feed retrieval.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/skyfeed/pkg/domain"
)

// DefaultService is the public entryway PDS
const DefaultService = "https://bsky.social"

const maxErrBody = 512 // upstream error bodies are truncated to this size

// Client talks to the Bluesky XRPC API. It keeps no session state, sessions are
// passed explicitly so each pipeline run gets its own.
type Client struct {
	service    string
	httpClient *http.Client
	userAgent  string
}

// Config for the client
type Config struct {
	Service   string
	Timeout   time.Duration
	UserAgent string
}

// NewClient makes a client for the given service, DefaultService if empty
func NewClient(cfg Config) *Client {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "skyfeed/1.0"
	}
	return &Client{
		service:    strings.TrimRight(cfg.Service, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
	}
}

// CreateSession exchanges handle and app password for an access token and DID.
// Any failure is reported as *AuthError, there is no retry here.
func (c *Client) CreateSession(ctx context.Context, cred domain.Credential) (domain.Session, error) {
	payload, err := json.Marshal(createSessionRequest{Identifier: cred.Handle, Password: cred.AppPassword})
	if err != nil {
		return domain.Session{}, &AuthError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.service+"/xrpc/com.atproto.server.createSession", bytes.NewReader(payload))
	if err != nil {
		return domain.Session{}, &AuthError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return domain.Session{}, &AuthError{Err: err}
	}
	if status < 200 || status >= 300 {
		return domain.Session{}, &AuthError{Status: status, Body: truncate(body)}
	}

	var resp createSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Session{}, &AuthError{Status: status, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if resp.AccessJwt == "" || resp.DID == "" {
		return domain.Session{}, &AuthError{Status: status, Err: fmt.Errorf("session response without token or did")}
	}

	handle := resp.Handle
	if handle == "" {
		handle = cred.Handle
	}
	return domain.Session{AccessToken: resp.AccessJwt, DID: resp.DID, Handle: handle}, nil
}

// GetAuthorFeed retrieves up to limit recent feed entries of actor.
// Any failure is reported as *FetchError.
func (c *Client) GetAuthorFeed(ctx context.Context, sess domain.Session, actor string, limit int) ([]FeedItem, error) {
	q := url.Values{}
	q.Set("actor", actor)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.service+"/xrpc/app.bsky.feed.getAuthorFeed?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	status, body, err := c.do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &FetchError{Status: status, Body: truncate(body)}
	}

	var resp authorFeedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Status: status, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return resp.Feed, nil
}

// do sends the request and reads the whole response body
func (c *Client) do(req *http.Request) (status int, body []byte, err error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrBody {
		return string(body[:maxErrBody]) + "..."
	}
	return string(body)
}
