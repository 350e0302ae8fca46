package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/fapool/config"
	"github.com/aluiziolira/fapool/models"
	"github.com/gocolly/colly/v2"
)

const (
	acceptJSON = "application/json,text/plain,*/*"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Fetcher issues provider requests through a colly collector and applies the
// per-mode retry policy around each one.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	sleep func(context.Context, time.Duration) error
}

// NewFetcher builds a fetcher configured from cfg. A nil metrics gets a
// fresh registry.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	hosts := make([]string, 0, 2)
	for _, raw := range []string{cfg.APIURL, cfg.PageURL} {
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse provider url: %w", err)
		}
		if parsed.Host == "" {
			return nil, fmt.Errorf("provider url %q must include a host", raw)
		}
		hosts = append(hosts, parsed.Hostname())
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(hosts...),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if metrics == nil {
		metrics = NewMetrics()
	}
	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		Metrics:   metrics,
		sleep:     sleepContext,
	}
	f.configureHandlers()
	return f, nil
}

// WithTransport swaps the collector's HTTP transport.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put("status", r.StatusCode)
		r.Ctx.Put("body", r.Body)
		if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
			f.Metrics.ObserveDuration(time.Since(start))
		}
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		r.Ctx.Put("status", r.StatusCode)
		r.Ctx.Put("error", err)
	})
}

// Fetch performs the request described by d, retrying per the mode's policy.
// It returns the raw response body of the first successful attempt.
func (f *Fetcher) Fetch(ctx context.Context, d models.Descriptor) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := f.requestURL(d)
	if err != nil {
		return nil, err
	}
	policy := f.cfg.Retry(d.Mode)
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, status, err := f.attempt(d, target)
		if err == nil {
			return body, nil
		}
		// colly v2.1.0 requests take no context, so a cancel that lands
		// mid-request is only seen once the attempt returns.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		category := errorTypeLabel(err)
		f.Metrics.IncError(category)
		slog.Warn("fetch attempt failed",
			slog.String("mode", string(d.Mode)),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Int("status", status),
			slog.Bool("transient", transientStatus(status)),
			slog.String("category", category),
			slog.Any("error", err),
		)

		if attempt == attempts {
			break
		}
		f.Metrics.IncRetries()
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay = nextDelay(delay, policy)
	}

	return nil, ErrExhausted{URL: target, Attempts: attempts, Err: lastErr}
}

// attempt issues exactly one request. Any non-2xx status, transport error or,
// in JSON mode, undecodable body fails the attempt.
func (f *Fetcher) attempt(d models.Descriptor, target string) ([]byte, int, error) {
	f.Metrics.IncRequest(string(d.Mode))

	cctx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, target, nil, cctx, f.headers(d.Mode))
	status, _ := cctx.GetAny("status").(int)
	if err == nil {
		if cbErr, ok := cctx.GetAny("error").(error); ok {
			err = cbErr
		}
	}
	if err != nil {
		return nil, status, classifyError(err, status)
	}

	body, _ := cctx.GetAny("body").([]byte)
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, status, classifyError(ErrStatus{Code: status, Body: truncate(body, 200)}, status)
	}

	if d.Mode == models.ModeJSON && !json.Valid(body) {
		return nil, status, ErrDecode{Err: fmt.Errorf("response from %s is not valid JSON (%d bytes)", target, len(body))}
	}
	return body, status, nil
}

func (f *Fetcher) requestURL(d models.Descriptor) (string, error) {
	switch d.Mode {
	case models.ModeHTML:
		if d.URL == "" {
			return "", errors.New("html descriptor has no URL")
		}
		return d.URL, nil
	case models.ModeJSON:
		if len(d.Params) == 0 {
			return f.cfg.APIURL, nil
		}
		return f.cfg.APIURL + "?" + d.Params.Encode(), nil
	default:
		return "", fmt.Errorf("unknown descriptor mode %q", d.Mode)
	}
}

func (f *Fetcher) headers(mode models.Mode) http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.cfg.UserAgent)
	if mode == models.ModeHTML {
		h.Set("Accept", acceptHTML)
		return h
	}
	h.Set("Accept", acceptJSON)
	if f.cfg.Referer != "" {
		h.Set("Referer", f.cfg.Referer)
	}
	return h
}

// nextDelay grows d by the policy factor, capped at MaxDelay.
func nextDelay(d time.Duration, p config.RetryPolicy) time.Duration {
	next := time.Duration(float64(d) * p.Factor)
	if p.MaxDelay > 0 && next > p.MaxDelay {
		next = p.MaxDelay
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
