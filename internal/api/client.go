// Package api is the HTTP client for the parent messaging API.
package api

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

	"github.com/rs/zerolog"

	"github.com/tOgg1/thinkchat/internal/credentials"
	"github.com/tOgg1/thinkchat/internal/logging"
	"github.com/tOgg1/thinkchat/internal/models"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the messaging API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	creds      credentials.Provider
	logger     zerolog.Logger
}

// New builds a Client. creds may be nil when only Authenticate is used.
func New(cfg Config, creds credentials.Provider) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		creds:      creds,
		logger:     logging.Component("api"),
	}, nil
}

// Authenticate exchanges parent credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("email", strings.TrimSpace(email))
	form.Set("password", password)
	form.Set("type", "parent")

	var out WireAuthResponse
	err := c.do(ctx, "authenticate", http.MethodPost, "/api/authenticate", form, false, &out)
	if err != nil {
		if errors.Is(err, ErrTransport) {
			return "", &AuthError{Message: MsgNetworkError}
		}
		return "", err
	}
	if out.Error != "" {
		return "", &AuthError{Message: out.Error}
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", &AuthError{Message: MsgSomethingWrong}
	}
	return out.Token, nil
}

// ListChildren returns the conversations available to the parent.
func (c *Client) ListChildren(ctx context.Context) ([]models.Conversation, error) {
	var rows []WireChild
	if err := c.do(ctx, "list children", http.MethodGet, "/api/children", nil, true, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// ListMessages returns a conversation's messages in ascending created order.
func (c *Client) ListMessages(ctx context.Context, childID string) ([]models.Message, error) {
	var rows []WireMessage
	if err := c.do(ctx, "list messages", http.MethodGet, messagesPath(childID), nil, true, &rows); err != nil {
		return nil, err
	}
	msgs, err := decodeMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}

// PostMessage sends text to a conversation and returns the server id.
func (c *Client) PostMessage(ctx context.Context, childID, text string) (int64, error) {
	if err := models.ValidateMessageText(text); err != nil {
		return 0, err
	}
	form := url.Values{}
	form.Set("message", text)

	var out WirePostResponse
	if err := c.do(ctx, "post message", http.MethodPost, messagesPath(childID), form, true, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func formFields(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for key := range form {
		out[key] = form.Get(key)
	}
	return out
}

func messagesPath(childID string) string {
	return "/api/messages/" + url.PathEscape(childID)
}

func (c *Client) do(ctx context.Context, op, method, path string, form url.Values, authed bool, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var token string
	if authed {
		if c.creds == nil {
			return ErrMissingCredential
		}
		t, err := c.creds.Token(ctx)
		if errors.Is(err, credentials.ErrNoToken) {
			return ErrMissingCredential
		}
		if err != nil {
			return fmt.Errorf("%s: read credentials: %w", op, err)
		}
		token = t
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	event := c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("authorization", logging.RedactHeader("Authorization", req.Header.Get("Authorization")))
	if form != nil {
		event = event.Interface("form", logging.RedactMap(formFields(form)))
	}
	event.Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
