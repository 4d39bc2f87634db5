// Package client talks to a codeclip backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
)

// APIError is a failed backend call. Message is the backend's error text,
// or the HTTP status text when the body had none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// AsAPIError extracts an APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Client is an HTTP client for the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Timeout bounds each call, including process calls on large
	// selections.
	Timeout time.Duration
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]string
	return c.do(ctx, http.MethodGet, "/health", nil, &out)
}

func (c *Client) CurrentDirectory(ctx context.Context) (*protocol.CurrentDirectory, error) {
	var out protocol.CurrentDirectory
	if err := c.do(ctx, http.MethodGet, "/api/get-current-directory", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Browse(ctx context.Context, path string) (*protocol.BrowseResponse, error) {
	var out protocol.BrowseResponse
	if err := c.do(ctx, http.MethodPost, "/api/browse-directory", protocol.PathRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SelectDirectory scans path on the backend and returns the project.
func (c *Client) SelectDirectory(ctx context.Context, path string) (*protocol.Project, error) {
	var out protocol.Project
	if err := c.do(ctx, http.MethodPost, "/api/select-directory", protocol.PathRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BrowseNative(ctx context.Context) (*protocol.NativeBrowseResponse, error) {
	var out protocol.NativeBrowseResponse
	if err := c.do(ctx, http.MethodPost, "/api/browse-native", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindDirectory(ctx context.Context, name string) (*protocol.FindResponse, error) {
	var out protocol.FindResponse
	if err := c.do(ctx, http.MethodPost, "/api/find-directory", protocol.FindRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CommonDirectories(ctx context.Context) (*protocol.CommonDirectories, error) {
	var out protocol.CommonDirectories
	if err := c.do(ctx, http.MethodGet, "/api/get-common-directories", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HomeDirectories returns the quick-access folders, working directory first.
func (c *Client) HomeDirectories(ctx context.Context) ([]protocol.DirectoryShortcut, error) {
	var out []protocol.DirectoryShortcut
	if err := c.do(ctx, http.MethodGet, "/api/get-home-directories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Process asks the backend to combine the requested files. A response
// with success false is returned as an APIError.
func (c *Client) Process(ctx context.Context, req protocol.ProcessRequest) (*protocol.ProcessResponse, error) {
	var out protocol.ProcessResponse
	if err := c.do(ctx, http.MethodPost, "/api/process", req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Status: http.StatusOK, Message: fallback(out.Error, "processing failed")}
	}
	return &out, nil
}

// Progress returns the percentage done of the backend's running process
// call.
func (c *Client) Progress(ctx context.Context) (float64, error) {
	var out protocol.ProgressResponse
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &out); err != nil {
		return 0, err
	}
	return out.Progress, nil
}

func (c *Client) Config(ctx context.Context) (*scan.Config, error) {
	return c.config(ctx, http.MethodGet, "/api/get-config", nil)
}

func (c *Client) UpdateConfig(ctx context.Context, cfg scan.Config) (*scan.Config, error) {
	return c.config(ctx, http.MethodPost, "/api/update-config", protocol.ConfigRequest{Config: cfg})
}

func (c *Client) ResetConfig(ctx context.Context) (*scan.Config, error) {
	return c.config(ctx, http.MethodPost, "/api/reset-config", struct{}{})
}

func (c *Client) config(ctx context.Context, method, path string, body any) (*scan.Config, error) {
	var out protocol.ConfigResponse
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Config == nil {
		return nil, &APIError{Status: http.StatusOK, Message: fallback(out.Error, "config request failed")}
	}
	return out.Config, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e protocol.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: fallback(e.Error, "request failed")}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func fallback(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
