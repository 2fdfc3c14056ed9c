// Package upstream is the HTTP client for PokeAPI. Calls go through a
// circuit breaker and are traced and counted; there are no retries.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pokevault/internal/platform/config"
	"pokevault/internal/pokeapi/metrics"
)

const (
	tracerName   = "pokevault/internal/pokeapi/upstream"
	maxBodyBytes = 8 << 20
)

// Client fetches raw JSON documents from PokeAPI.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to point tests at httptest.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(cfg config.PokeAPI, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	minRequests := cfg.BreakerMinRequests
	failureRatio := cfg.BreakerFailureRatio
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "pokeapi",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ue *UpstreamError
			return errors.As(err, &ue) && ue.clientError()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.BreakerState.Set(stateToFloat(to))
			}
		},
	})
	return c
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// State exposes the breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Get fetches path (relative to the base URL) and returns the body once it is
// known to be JSON. kind labels metrics and spans.
func (c *Client) Get(ctx context.Context, kind, path string, params url.Values) ([]byte, error) {
	endpoint := "/" + strings.TrimLeft(path, "/")
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "pokeapi.GET "+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pokeapi.kind", kind),
			attribute.String("pokeapi.endpoint", endpoint),
		),
	)
	defer span.End()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &UpstreamError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "PokeAPI is temporarily unavailable",
			Endpoint:   endpoint,
			Params:     flatten(params),
			Err:        err,
		}
	}

	status := "ok"
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			status = strconv.Itoa(ue.HTTPStatus())
			span.SetAttributes(attribute.Int("http.status_code", ue.StatusCode))
		} else {
			status = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "PokeAPI request failed",
			"endpoint", endpoint,
			"params", params.Encode(),
			"error", err,
		)
	}
	if c.metrics != nil {
		c.metrics.ObserveUpstream(kind, status, start)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	fail := func(status int, msg string, err error) error {
		return &UpstreamError{StatusCode: status, Message: msg, Endpoint: endpoint, Params: flatten(params), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fail(0, "invalid request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fail(resp.StatusCode, "failed to read response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" || len(msg) > 200 {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fail(resp.StatusCode, msg, nil)
	}
	if !json.Valid(body) {
		return nil, fail(0, "response is not valid JSON", fmt.Errorf("decode %s", endpoint))
	}
	return body, nil
}

func flatten(params url.Values) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k := range params {
		out[k] = params.Get(k)
	}
	return out
}
