package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/metrics"
	"careercraft/jobsearch-service/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	httpTimeout      = 15 * time.Second
	maxBodyBytes     = 10 << 20
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// FetcherConfig tunes the Fetcher. Zero values pick the defaults above.
type FetcherConfig struct {
	Timeout          time.Duration
	MaxRetries       uint64 // extra attempts on transport errors and 5xx
	BreakerThreshold uint32 // consecutive failures before a source is short-circuited
	BreakerCooldown  time.Duration
	RetryInterval    time.Duration // first backoff interval
}

// Fetcher is the single chokepoint every adapter issues its network call
// through. It never returns an error: any failure is logged, counted and
// reported as "absent".
type Fetcher struct {
	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	cfg     FetcherConfig

	mu       sync.Mutex
	breakers map[model.Source]*gobreaker.CircuitBreaker
}

// NewFetcher constructs a Fetcher with a shared HTTP client.
func NewFetcher(log *zap.Logger, m *metrics.Metrics, cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = httpTimeout
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = breakerThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = breakerCooldown
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log.Named("fetcher"),
		metrics:  m,
		cfg:      cfg,
		breakers: make(map[model.Source]*gobreaker.CircuitBreaker),
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d: %s", e.code, e.body) }

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// Fetch executes req for source and decodes a 2xx JSON body into out.
// It returns false on network error, non-2xx status, unreadable body,
// malformed JSON, or when the source's circuit breaker is open. The request's
// context bounds the call; its cancellation is not held against the source.
func (f *Fetcher) Fetch(source model.Source, req *http.Request, out any) bool {
	start := time.Now()
	_, err := f.breaker(source).Execute(func() (interface{}, error) {
		body, err := f.doWithRetry(req)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &decodeError{err: err}
		}
		return nil, nil
	})

	outcome := classify(err)
	f.metrics.ObserveFetch(string(source), outcome, time.Since(start))
	if err != nil {
		f.log.Warn("source unavailable",
			zap.String("source", string(source)),
			zap.String("outcome", outcome),
			zap.String("url", req.URL.Redacted()),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (f *Fetcher) doWithRetry(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = f.cfg.RetryInterval
	expBackoff.MaxInterval = 2 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, f.cfg.MaxRetries), ctx)

	return backoff.RetryWithData(func() ([]byte, error) {
		body, err := f.do(ctx, req)
		var se *statusError
		if errors.As(err, &se) && se.code < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}, policy)
}

func (f *Fetcher) do(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("http %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &statusError{code: resp.StatusCode, body: string(snippet)}
	}
	return body, nil
}

func (f *Fetcher) breaker(source model.Source) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[source]; ok {
		return cb
	}
	threshold := f.cfg.BreakerThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(source),
		MaxRequests: 1,
		Timeout:     f.cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up says nothing about the source.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn("circuit breaker state change",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	f.breakers[source] = cb
	return cb
}

func classify(err error) string {
	var se *statusError
	var de *decodeError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return metrics.OutcomeCircuitOpen
	case errors.As(err, &se):
		return metrics.OutcomeStatus
	case errors.As(err, &de):
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeNetwork
	}
}
