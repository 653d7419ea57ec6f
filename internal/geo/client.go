// Package geo fetches US state boundaries and turns per-state complaint counts
// into a choropleth-ready GeoJSON document.
package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

type Client struct {
	URL        string
	HTTP       *http.Client
	MaxElapsed time.Duration
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		URL:        url,
		HTTP:       &http.Client{Timeout: timeout},
		MaxElapsed: 2 * timeout,
	}
}

// Fetch downloads the boundary set, retrying transport errors and 5xx
// responses with exponential backoff. Any failure is an EXTERNAL_RESOURCE
// error so that only the map degrades.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	log := logger.New().Component("geo.client").WithField("url", c.URL)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.MaxElapsed
	var body []byte
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("boundary request failed")
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = err
			return err
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 300 {
			// client errors will not fix themselves
			lastErr = fmt.Errorf("unexpected status: %d", resp.StatusCode)
			return backoff.Permanent(lastErr)
		}
		if !gjson.ValidBytes(b) || !gjson.GetBytes(b, "features").IsArray() {
			lastErr = fmt.Errorf("response is not a GeoJSON feature collection")
			return backoff.Permanent(lastErr)
		}
		body = b
		lastErr = nil
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		log.WithError(lastErr).Warn("boundaries unavailable")
		return nil, apperrors.ExternalResource("state boundaries", lastErr)
	}
	log.WithField("bytes", len(body)).Debug("boundaries fetched")
	return body, nil
}
