package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-shop/config"
)

// Fetcher downloads catalog pages. Every attempt runs on a fresh collector and
// transport, so no connection is reused between calls.
type Fetcher struct {
	cfg     *config.Config
	retry   retryPolicy
	metrics *Metrics
	logger  *zap.Logger

	// roundTripper replaces the network transport when set.
	roundTripper http.RoundTripper
}

// NewFetcher builds a Fetcher with the configured retry policy.
func NewFetcher(cfg *config.Config, metrics *Metrics, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
	f.retry = retryPolicy{
		attempts:  cfg.FetchAttempts,
		delay:     cfg.RetryDelay,
		retryable: isTransient,
		onRetry: func(attempt int, err error) {
			metrics.IncRetries()
			logger.Warn("page fetch failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", cfg.RetryDelay),
				zap.Error(err),
			)
		},
	}
	return f
}

// Fetch returns the body of pageURL. HTTP status codes are not treated as errors.
// Transient network failures are retried; anything else is returned at once.
func (f *Fetcher) Fetch(ctx context.Context, pageURL, proxy string) (string, error) {
	proxyURL, err := parseProxy(proxy)
	if err != nil {
		return "", err
	}

	var body string
	err = f.retry.do(ctx, func() error {
		b, err := f.fetchOnce(pageURL, proxyURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(pageURL string, proxyURL *url.URL) (string, error) {
	collector := newCollector(f.cfg)
	collector.WithTransport(f.transport(proxyURL))

	var (
		body   []byte
		status int
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})

	f.metrics.IncRequest("page")
	start := time.Now()
	err := collector.Visit(pageURL)
	f.metrics.ObserveDuration("page", time.Since(start))
	if err != nil {
		return "", classifyError(err)
	}

	if status >= http.StatusBadRequest {
		f.logger.Warn("non-success page response",
			zap.Int("status", status),
			zap.String("url", pageURL),
		)
	}
	return string(body), nil
}

func (f *Fetcher) transport(proxyURL *url.URL) http.RoundTripper {
	if f.roundTripper != nil {
		return f.roundTripper
	}
	t := newTransport(f.cfg, proxyURL)
	t.DisableKeepAlives = true
	return t
}

func parseProxy(proxy string) (*url.URL, error) {
	if proxy == "" {
		return nil, nil
	}
	parsed, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: scheme and host are required", proxy)
	}
	return parsed, nil
}

// newCollector returns a synchronous collector that hands back every response,
// whatever its status.
func newCollector(cfg *config.Config, options ...colly.CollectorOption) *colly.Collector {
	base := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	collector := colly.NewCollector(append(base, options...)...)
	collector.SetRequestTimeout(cfg.Timeout)
	return collector
}

func newTransport(cfg *config.Config, proxyURL *url.URL) *http.Transport {
	proxy := http.ProxyFromEnvironment
	if proxyURL != nil {
		proxy = http.ProxyURL(proxyURL)
	}
	return &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}
}
