// Package httpclient provides the REST client used to talk to the ordering API.
// The client keeps a mutable set of default headers that is applied to every
// request; the session manager uses it to carry the bearer token. Non-2xx
// responses are returned as *HTTPError.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pizzeria-pos/waiter/internal/common/logtrace"
	"github.com/pizzeria-pos/waiter/internal/common/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

// BearerValue formats token for the Authorization header.
func BearerValue(token string) string {
	return "Bearer " + token
}

// Configurator provides the server location and request timeout.
type Configurator interface {
	GetServerURL() string
	GetRequestTimeout() time.Duration
}

// HTTPError represents an error response from the server with HTTP status code and message.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// HTTPClient is a client for the REST API. It is safe for concurrent use.
type HTTPClient struct {
	config     Configurator
	httpClient *http.Client

	mu      sync.RWMutex
	headers http.Header
}

// ClientOptions contains options for configuring the HTTP client.
type ClientOptions struct {
	DisableCertValidation bool // If true, skips SSL certificate validation
}

// NewClient creates a new HTTP client using the provided configuration.
func NewClient(config Configurator, opts ...ClientOptions) *HTTPClient {
	clientOpts := ClientOptions{}
	if len(opts) > 0 {
		clientOpts = opts[0]
	}

	httpClient := &http.Client{}
	if clientOpts.DisableCertValidation {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	return &HTTPClient{
		config:     config,
		httpClient: httpClient,
		headers:    http.Header{},
	}
}

// SetDefaultHeader sets a header sent with every subsequent request.
func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(key, value)
}

// DeleteDefaultHeader removes a default header.
func (c *HTTPClient) DeleteDefaultHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(key)
}

// DefaultHeader returns the current value of a default header, or "".
func (c *HTTPClient) DefaultHeader(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(key)
}

// RequestOptions contains options for making HTTP requests.
// QueryParams and Body are optional.
type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        []byte
}

// DoRequest makes an HTTP request with the given options and returns the response body.
// When ctx carries no deadline the configured request timeout applies.
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	u.Path = path.Join("/", u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	if _, ok := ctx.Deadline(); !ok {
		if timeout := c.config.GetRequestTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyReader = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	c.mu.RUnlock()

	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	requestID := logtrace.RequestIdFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewRequestID()
	}
	req.Header.Set(HeaderRequestID, requestID)

	logger := log.With().
		Str("request_id", requestID).
		Str("method", opts.Method).
		Str("path", u.Path).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode >= 400 {
		return nil, newHTTPError(resp.StatusCode, body)
	}

	return body, nil
}

func newHTTPError(code int, body []byte) *HTTPError {
	// The API answers errors as {"error": "..."} or {"message": "..."}.
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "message"} {
			if msg := gjson.GetBytes(body, field).String(); msg != "" {
				return &HTTPError{StatusCode: code, Message: msg}
			}
		}
	}
	if code == http.StatusNotFound {
		return &HTTPError{StatusCode: code, Message: "server doesn't implement this endpoint"}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &HTTPError{StatusCode: code, Message: msg}
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Get issues a GET request.
func (c *HTTPClient) Get(ctx context.Context, resourcePath string, queryParams map[string]string) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method:      http.MethodGet,
		Path:        resourcePath,
		QueryParams: queryParams,
	})
}

// Post issues a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, resourcePath string, data []byte) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method: http.MethodPost,
		Path:   resourcePath,
		Body:   data,
	})
}

// Patch issues a PATCH request with a JSON body.
func (c *HTTPClient) Patch(ctx context.Context, resourcePath string, data []byte) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method: http.MethodPatch,
		Path:   resourcePath,
		Body:   data,
	})
}

// Delete issues a DELETE request; the API addresses the target through query parameters.
func (c *HTTPClient) Delete(ctx context.Context, resourcePath string, queryParams map[string]string) error {
	_, err := c.DoRequest(ctx, RequestOptions{
		Method:      http.MethodDelete,
		Path:        resourcePath,
		QueryParams: queryParams,
	})
	return err
}
