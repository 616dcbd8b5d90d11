package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// maxResponseSize bounds what the client reads from the local server.
const maxResponseSize = 1 << 20

// Client talks to a running 'lpad serve' on this machine.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient returns a client for the server listening on addr.
func NewClient(addr string) *Client {
	level := slog.LevelWarn
	if isVerbose() {
		level = slog.LevelDebug
	}
	return &Client{
		baseURL:    "http://" + addr,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// envelope is the server's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *APIError       `json:"error,omitempty"`
}

// APIError is an error reported by the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// VaultStatus is the server's vault state.
type VaultStatus struct {
	State    string `json:"state"`
	Setup    bool   `json:"setup"`
	Unlocked bool   `json:"unlocked"`
}

// call sends body as JSON and decodes the data field into out, which may be
// nil. Request bodies are never logged; unlock carries the master password.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lpad-cli")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contact server: %w", err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", resp.Header.Get("X-Request-ID"), "duration", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Error != nil {
			env.Error.Status = resp.StatusCode
			return env.Error
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// VaultStatus returns the server's vault state.
func (c *Client) VaultStatus(ctx context.Context) (*VaultStatus, error) {
	var st VaultStatus
	if err := c.call(ctx, http.MethodGet, "/api/v1/vault/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Unlock unlocks the server's vault.
func (c *Client) Unlock(ctx context.Context, password string) error {
	return c.call(ctx, http.MethodPost, "/api/v1/vault/unlock", map[string]string{"password": password}, nil)
}

// Lock locks the server's vault.
func (c *Client) Lock(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/v1/vault/lock", struct{}{}, nil)
}

// isAPIError reports whether err came back from the server rather than from
// failing to reach it.
func isAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
