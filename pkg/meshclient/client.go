// Package meshclient talks to the remote meshing service: one POST per
// regeneration, JSON parameters in, Wavefront text out. It never retries.
package meshclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/wavefront"
)

// DefaultTimeout bounds one request including the response body.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is kept as message.
const maxErrorBody = 4 << 10

// Client is a meshing service client. It is safe for concurrent use.
type Client struct {
	endpoint  string
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the meshing endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "isoviz",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "meshclient"))
	return c
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string { return c.endpoint }

type meshResponse struct {
	Mesh *string `json:"mesh"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RequestMesh asks the service to mesh p. Failures are *Error values that
// match ErrUnprocessable or ErrTransport.
func (c *Client) RequestMesh(ctx context.Context, p params.Generation) (wavefront.Document, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return wavefront.Document{}, transport(0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return wavefront.Document{}, transport(0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return wavefront.Document{}, transport(0, "", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("mesh response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("algorithm", p.Algorithm.String()),
		zap.Int("limits", p.Limits),
	)

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return wavefront.Document{}, &Error{
			Kind:    KindUnprocessable,
			Status:  resp.StatusCode,
			Message: readErrMsg(resp.Body),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return wavefront.Document{}, transport(resp.StatusCode, readErrMsg(resp.Body), nil)
	}

	var body meshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return wavefront.Document{}, transport(resp.StatusCode, "decode response", err)
	}
	if body.Mesh == nil {
		return wavefront.Document{}, transport(resp.StatusCode, "response has no mesh field", nil)
	}
	return wavefront.NewDocument(*body.Mesh), nil
}

// readErrMsg extracts the error message of a JSON error body, falling back
// to the raw text.
func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return strings.TrimSpace(string(data))
}

// IsUnprocessable reports whether err is a rejection of the parameters.
func IsUnprocessable(err error) bool {
	return errors.Is(err, ErrUnprocessable)
}

// String implements fmt.Stringer for logging.
func (c *Client) String() string {
	return fmt.Sprintf("meshclient(%s)", c.endpoint)
}
