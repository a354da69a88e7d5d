package apcloudy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Version of the client library, reported in the User-Agent header.
const Version = "0.1.0"

// Defaults applied when no explicit option is given.
const (
	DefaultBaseURL    = "https://api.apcloudy.com"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRateLimit  = 100 // requests per minute
)

// Client is the entry point for the APCloudy API. It owns the HTTP
// dispatcher (authentication, timeout, retry, rate limiting, error mapping)
// and exposes the resource services. A Client is safe for concurrent use.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  zerolog.Logger

	// Projects manages project resources.
	Projects *ProjectsService
	// Spiders manages spiders within projects.
	Spiders *SpidersService
	// Jobs manages spider runs, their logs and scraped items.
	Jobs *JobsService
}

// New creates a Client for the given API key. The key is mandatory;
// resolving it from the environment is the caller's concern, not the
// library's.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apcloudy: API key is required: %w", ErrAuthentication)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	httpc := resty.New().
		SetBaseURL(strings.TrimRight(o.baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", o.userAgent).
		SetTimeout(o.timeout).
		SetRetryCount(o.maxRetries).
		SetRetryWaitTime(o.retryWait).
		SetRetryMaxWaitTime(o.retryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only transport failures and server errors are transient.
			// Auth failures and 429 are terminal for the call.
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	c := &Client{
		http:   httpc,
		logger: o.logger,
	}

	if o.rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(o.rateLimit)/60.0), o.rateLimit)
		httpc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.limiter.Wait(r.Context())
		})
	}

	c.Projects = &ProjectsService{client: c}
	c.Spiders = &SpidersService{client: c}
	c.Jobs = &JobsService{client: c}

	return c, nil
}

// Verify tests connectivity and API key validity.
func (c *Client) Verify(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "verify", nil, nil, nil)
}

// do performs a single logical request: it dispatches with the configured
// retry policy, maps the response status onto the error taxonomy and
// decodes the JSON body into out when provided.
func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("APCloudy API request")

	resp, err := req.Execute(method, path)
	if err != nil {
		return &APIError{Message: err.Error(), err: err}
	}
	if err := mapStatus(resp); err != nil {
		return err
	}
	return decode(resp, out)
}

// upload performs a multipart file upload, used for spider deployment. The
// body is assembled into memory before dispatch so a retried attempt sends
// the same bytes; streaming the reader directly would leave it drained after
// the first attempt and silently upload an empty file on the second.
func (c *Client) upload(ctx context.Context, path, field, filename string, r io.Reader, form map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return &APIError{Message: err.Error(), err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return &APIError{Message: fmt.Sprintf("failed to read upload body: %v", err), err: err}
	}
	for k, v := range form {
		if err := mw.WriteField(k, v); err != nil {
			return &APIError{Message: err.Error(), err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return &APIError{Message: err.Error(), err: err}
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", mw.FormDataContentType()).
		SetBody(buf.Bytes())

	c.logger.Debug().Str("path", path).Str("file", filename).Msg("APCloudy API upload")

	resp, err := req.Execute(http.MethodPost, path)
	if err != nil {
		return &APIError{Message: err.Error(), err: err}
	}
	if err := mapStatus(resp); err != nil {
		return err
	}
	return decode(resp, out)
}

// mapStatus converts a non-2xx response into the corresponding typed error.
func mapStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}

	msg := errorMessage(resp.Body())
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", code)
	}

	apiErr := &APIError{StatusCode: code, Message: msg}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.err = ErrAuthentication
	case http.StatusNotFound:
		apiErr.err = ErrNotFound
	case http.StatusTooManyRequests:
		apiErr.err = ErrRateLimited
	}
	return apiErr
}

// errorMessage pulls a human-readable message out of an error body. The API
// uses both {"message": ...} and {"error": ...} envelopes.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

func decode(resp *resty.Response, out any) error {
	if out == nil || resp.StatusCode() == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("failed to decode response: %v", err),
			err:        err,
		}
	}
	return nil
}

// requireID fails fast on empty identifiers before any network round trip.
func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
