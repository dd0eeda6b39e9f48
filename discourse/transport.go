package discourse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	acceptHeader = "application/json, text/html, */*"

	redirectDelay  = time.Millisecond
	rateLimitDelay = 5 * time.Second
	initialBackoff = time.Second
	// maxBackoff is the first delay that is no longer waited for.
	maxBackoff = 16 * time.Second

	// maxRetryAfter is the largest Retry-After, in seconds, that fits a Duration.
	maxRetryAfter = math.MaxInt64 / int64(time.Second)
)

// retryState is the backoff of one logical call. It lives for a single call
// to do and is never shared.
type retryState struct {
	backoff time.Duration
}

// next decides what to do with resp. When retry is true the caller sleeps for
// delay and sends the request again to target.
func (s *retryState) next(resp *http.Response, current string) (delay time.Duration, target string, retry bool) {
	switch resp.StatusCode {
	case http.StatusFound:
		location, err := resp.Location()
		if err != nil {
			return 0, "", false
		}
		return redirectDelay, location.String(), true

	case http.StatusTooManyRequests:
		return retryAfterDelay(resp.Header.Get("Retry-After"), rateLimitDelay), current, true

	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		if s.backoff == 0 {
			s.backoff = initialBackoff
		} else {
			s.backoff *= 2
		}
		if s.backoff >= maxBackoff {
			return 0, "", false
		}
		return s.backoff, current, true
	}
	return 0, "", false
}

// retryAfterDelay returns the Retry-After header in seconds as a duration,
// never less than floor.
func retryAfterDelay(header string, floor time.Duration) time.Duration {
	seconds, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return floor
	}
	if seconds > maxRetryAfter {
		seconds = maxRetryAfter
	}
	if delay := time.Duration(seconds) * time.Second; delay > floor {
		return delay
	}
	return floor
}

// do sends the request until the retry policy yields a final response. It
// returns the response with the URL it was answered from. The caller owns the
// returned body.
func (c *Client) do(ctx context.Context, method, uri string, body *payload) (*http.Response, string, error) {
	var state retryState
	for {
		if err := c.throttle.wait(ctx); err != nil {
			return nil, "", err
		}

		req, err := c.newRequest(ctx, method, uri, body)
		if err != nil {
			return nil, "", err
		}
		c.logRequest(req, body)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("discourse: %s %s: %w", method, uri, err)
		}
		c.logResponse(resp)

		delay, target, retry := state.next(resp, uri)
		if !retry {
			return resp, uri, nil
		}

		event := c.logger.Debug()
		if resp.StatusCode != http.StatusFound {
			event = c.logger.Warn()
		}
		event.
			Int("status", resp.StatusCode).
			Str("url", uri).
			Dur("delay", delay).
			Msg("Retrying Discourse request")

		drain(resp.Body)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, "", err
		}
		uri = target
	}
}

func (c *Client) newRequest(ctx context.Context, method, uri string, body *payload) (*http.Request, error) {
	var reader io.ReadCloser
	if body != nil {
		var err error
		if reader, err = body.open(); err != nil {
			return nil, err
		}
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, uri, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, uri, nil)
	}
	if err != nil {
		if reader != nil {
			reader.Close()
		}
		return nil, fmt.Errorf("discourse: creating request: %w", err)
	}

	if body != nil {
		req.ContentLength = body.length
		req.Header.Set("Content-Type", body.contentType)
		if body.disposition != "" {
			req.Header.Set("Content-Disposition", body.disposition)
		}
	}
	if c.settings.APIKey != "" {
		req.Header.Set("Api-Key", c.settings.APIKey)
	}
	if c.settings.APIUsername != "" {
		req.Header.Set("Api-Username", c.settings.APIUsername)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.settings.ApplicationName)
	return req, nil
}

func (c *Client) logRequest(req *http.Request, body *payload) {
	if c.settings.LogRequest <= 0 {
		return
	}
	event := c.logger.Info().
		Str("method", req.Method).
		Str("url", req.URL.String())
	if body != nil {
		event = event.Str("content", body.summary)
	}
	if c.settings.LogRequest > 1 {
		event = event.Interface("headers", redactHeaders(req.Header))
	}
	event.Msg("Sent request")
}

func (c *Client) logResponse(resp *http.Response) {
	if c.settings.LogResult <= 1 {
		return
	}
	c.logger.Info().
		Int("status", resp.StatusCode).
		Str("url", resp.Request.URL.String()).
		Interface("headers", resp.Header).
		Msg("Received response")
}

func redactHeaders(header http.Header) http.Header {
	redacted := header.Clone()
	if redacted.Get("Api-Key") != "" {
		redacted.Set("Api-Key", "***")
	}
	return redacted
}

// drain discards the rest of body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	body.Close()
}
