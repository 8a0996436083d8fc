// Package api is the client for the sync server's JSON/HTTP protocol.
//
// Every response is an envelope {code, message, data}; code 0 is success.
// Requests are never retried: a failed call is reported to the caller, who
// treats it as "try again later".
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/daybook/internal/codec"
	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/model"
)

// Envelope is the body of every server response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginData struct {
	Token string `json:"token"`
}

// ServerError is a response whose code is not 0.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error %d", e.Code)
	}
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// PushStatus reduces a push error to the (success, message) pair shown to
// the user. Only server errors carry a message.
func PushStatus(err error) (bool, string) {
	if err == nil {
		return true, ""
	}
	var se *ServerError
	if errors.As(err, &se) {
		return false, se.Message
	}
	return false, ""
}

// Client talks to one sync server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a client for conf.BaseURL with conf.Timeout per request.
func NewClient(conf config.ServerConfig, logger logging.Logger) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return NewClientWithHTTP(conf.BaseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP is NewClient with a caller-supplied http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		logger:     logger,
	}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	var data LoginData
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, LoginRequest{Username: username, Password: password}, &data); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if data.Token == "" {
		return nil, errors.New("login: server returned no token")
	}
	return &oauth2.Token{AccessToken: data.Token}, nil
}

// PushBody is the wire form of req: {"username": ..., "<field>": [...]}.
func PushBody(req *model.SyncRequest) map[string]any {
	return map[string]any{
		"username":        req.Username,
		req.Domain.Field(): req.Records,
	}
}

// ErrNoData is returned by Pull when a successful response carries no list
// for the domain. Only an explicit empty list means "nothing stored".
var ErrNoData = errors.New("response has no data")

// Push uploads the full record set of req.Domain. The token is taken from ts
// for this request.
func (c *Client) Push(ctx context.Context, ts oauth2.TokenSource, req *model.SyncRequest) error {
	path := "/api/" + req.Domain.Path() + "/sync"
	if err := c.do(ctx, http.MethodPost, path, ts, PushBody(req), nil); err != nil {
		return fmt.Errorf("push %s: %w", req.Domain, err)
	}
	return nil
}

// Pull downloads the full record set of domain for username. A failed call
// returns an error, never an empty list; so does a success whose data lacks
// the domain's field.
func Pull[T any](ctx context.Context, c *Client, domain model.Domain, ts oauth2.TokenSource, username string) ([]T, error) {
	path := "/api/" + domain.Path() + "/get?username=" + url.QueryEscape(username)
	var data json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, ts, nil, &data); err != nil {
		return nil, fmt.Errorf("pull %s: %w", domain, err)
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("pull %s: %w", domain, ErrNoData)
	}
	list, err := codec.DecodeField[T](string(data), domain.Field())
	if errors.Is(err, codec.ErrMissingField) {
		return nil, fmt.Errorf("pull %s: %w", domain, ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", domain, err)
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path string, ts oauth2.TokenSource, body, result any) error {
	var auth string
	if ts != nil {
		tok, err := ts.Token()
		if err != nil {
			return fmt.Errorf("obtaining token: %w", err)
		}
		auth = tok.AccessToken
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		// The server expects the raw token, not "Bearer <token>".
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnf(logging.TypeNet, "%s %s failed: %s", method, path, err)
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	c.logger.Debugf(logging.TypeNet, "%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected status %d on %s %s", resp.StatusCode, method, path)
		}
		return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}
	if env.Code != 0 {
		return &ServerError{Code: env.Code, Message: env.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d on %s %s", resp.StatusCode, method, path)
	}

	if result == nil {
		return nil
	}
	if raw, ok := result.(*json.RawMessage); ok {
		*raw = env.Data
		return nil
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("empty data in response from %s %s", method, path)
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("decoding data from %s %s: %w", method, path, err)
	}
	return nil
}
