package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/oetzilabs/wfa/engine/task/builtin"
	"github.com/oetzilabs/wfa/pkg/logger"
)

const minRetryDelay = time.Millisecond

// rateSource fetches rate tables, trying each endpoint in order.
type rateSource struct {
	client     *resty.Client
	endpoints  []string
	maxRetries uint64
	retryDelay time.Duration
}

func expandEndpoint(template, date, from string) string {
	return strings.NewReplacer("{date}", date, "{from}", from).Replace(template)
}

func (s *rateSource) fetch(ctx context.Context, date, from string) ([]byte, error) {
	log := logger.FromContext(ctx)
	var errs []error
	for i, template := range s.endpoints {
		url := expandEndpoint(template, date, from)
		body, err := s.get(ctx, url)
		if err == nil {
			log.Debug("Fetched exchange rates", "url", url, "endpoint", i, "bytes", len(body))
			return body, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", url, err))
		if ctx.Err() != nil {
			break
		}
		log.Warn("Exchange rate endpoint failed", "url", url, "endpoint", i, "error", err)
	}
	details := map[string]any{"from": from, "date": date, "endpoints": len(s.endpoints)}
	return nil, builtin.Unavailable(
		fmt.Errorf("exchange rates unavailable: %w", errors.Join(errs...)),
		details,
	)
}

func (s *rateSource) get(ctx context.Context, url string) ([]byte, error) {
	delay := s.retryDelay
	if delay < minRetryDelay {
		delay = minRetryDelay
	}
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(delay))
	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		code := resp.StatusCode()
		if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("unexpected status %d", code))
		}
		if resp.IsError() {
			return fmt.Errorf("unexpected status %d", code)
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
