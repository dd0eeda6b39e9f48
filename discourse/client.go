package discourse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Settings configures a Client.
type Settings struct {
	// ServerURL is the base URL of the forum, e.g. https://forum.example.com.
	ServerURL string
	// ApplicationName is sent as the User-Agent.
	ApplicationName string
	APIKey          string
	APIUsername     string
	// LogRequest enables request logging: 1 logs method, URL and body, 2 adds headers.
	LogRequest int
	// LogResult enables response logging: 1 logs the decoded body, 2 adds status and headers.
	LogResult int
	// DelayBetweenCalls is the minimum time between two requests of the client.
	DelayBetweenCalls time.Duration
}

// Validate checks that the settings can be used to build a client.
func (s Settings) Validate() error {
	var problems []string
	if s.ServerURL == "" {
		problems = append(problems, "server URL is required")
	} else if u, err := url.Parse(s.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("server URL %q must be an absolute http(s) URL", s.ServerURL))
	}
	if s.ApplicationName == "" {
		problems = append(problems, "application name is required")
	}
	if s.DelayBetweenCalls < 0 {
		problems = append(problems, "delay between calls cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Client represents a Discourse API client
type Client struct {
	settings   Settings
	baseURL    string
	httpClient *http.Client
	throttle   *throttle
	sleep      func(ctx context.Context, d time.Duration) error
	logger     zerolog.Logger
}

// NewClient creates a new Discourse client
func NewClient(settings Settings, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	var httpClient http.Client
	if options.httpClient != nil {
		httpClient = *options.httpClient
	} else {
		httpClient.Timeout = options.timeout
	}
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		settings:   settings,
		baseURL:    strings.TrimRight(settings.ServerURL, "/") + "/",
		httpClient: &httpClient,
		throttle:   newThrottle(settings.DelayBetweenCalls, options.now, options.sleep),
		sleep:      options.sleep,
		logger:     logger.With().Str("component", "discourse").Logger(),
	}, nil
}

// Settings returns the settings the client was built with.
func (c *Client) Settings() Settings {
	return c.settings
}

// makeURI resolves a resource path against the server URL. Absolute http(s)
// URLs are returned unchanged.
func (c *Client) makeURI(path string) string {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}
	return c.baseURL + strings.TrimLeft(path, "/")
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, query any) (*Document, error) {
	return c.call(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, query, body any) (*Document, error) {
	return c.call(ctx, http.MethodPost, path, query, body)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, query, body any) (*Document, error) {
	return c.call(ctx, http.MethodPut, path, query, body)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, query any) (*Document, error) {
	return c.call(ctx, http.MethodDelete, path, query, nil)
}

// PostForm posts a multipart form
func (c *Client) PostForm(ctx context.Context, path string, query any, form *MultipartForm) (*Document, error) {
	return c.call(ctx, http.MethodPost, path, query, form)
}

func (c *Client) call(ctx context.Context, method, path string, query, body any) (*Document, error) {
	uri, err := AddQueryParams(c.makeURI(path), query)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, method, uri, body)
}

// Send performs a request against an already built URL, retrying according to
// the retry policy, and decodes the final response.
func (c *Client) Send(ctx context.Context, method, uri string, body any) (*Document, error) {
	p, err := newPayload(body)
	if err != nil {
		return nil, err
	}

	resp, final, err := c.do(ctx, method, uri, p)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.decodeResponse(final, resp)
}

// decodeResponse reads the final response into a Document.
func (c *Client) decodeResponse(uri string, resp *http.Response) (*Document, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("discourse: reading response of %s: %w", uri, err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	doc, err := parseDocument(data)
	if err != nil {
		if success {
			return nil, fmt.Errorf("discourse: decoding response of %s: %w", uri, err)
		}
		doc = &Document{Fields: map[string]any{ContentKey: string(data)}}
	}

	doc.MetaData.URI = uri
	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if modified, err := http.ParseTime(lastModified); err == nil {
			doc.MetaData.Modified = modified
		}
	}
	doc.MetaData.Error = embeddedError(doc.Fields)

	if !success {
		apiErr := newAPIError(resp, doc)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("url", uri).
			Interface("data", doc.Fields).
			Msg("Discourse request failed")
		return nil, apiErr
	}

	if c.settings.LogResult > 0 {
		c.logger.Info().
			Str("url", uri).
			Interface("data", doc.Fields).
			Msg("Received data")
	}
	return doc, nil
}

// GetAs performs a GET request and maps the response onto T
func GetAs[T any](ctx context.Context, c *Client, path string, query any) (*T, error) {
	doc, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return As[T](doc)
}

// PostAs performs a POST request and maps the response onto T
func PostAs[T any](ctx context.Context, c *Client, path string, query, body any) (*T, error) {
	doc, err := c.Post(ctx, path, query, body)
	if err != nil {
		return nil, err
	}
	return As[T](doc)
}

// PutAs performs a PUT request and maps the response onto T
func PutAs[T any](ctx context.Context, c *Client, path string, query, body any) (*T, error) {
	doc, err := c.Put(ctx, path, query, body)
	if err != nil {
		return nil, err
	}
	return As[T](doc)
}

// TestConnection checks that the server answers and the credentials are accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	path := "session/current"
	if c.settings.APIKey == "" {
		path = "site/basic-info"
	}
	if _, err := c.Get(ctx, path, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			return fmt.Errorf("discourse rejected the API credentials: %w", err)
		}
		return err
	}
	return nil
}
