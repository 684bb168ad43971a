// Package expo sends push notifications through the Expo push service.
package expo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const DefaultURL = "https://exp.host/--/api/v2/push/send"

var (
	// ErrTicket is returned when Expo accepted the request but refused the message,
	// e.g. DeviceNotRegistered. It does not count against the circuit breaker.
	ErrTicket = errors.New("expo rejected push message")
	// ErrUnavailable is returned for transport failures and 5xx/429 responses.
	ErrUnavailable = fmt.Errorf("%w: expo push service", types.ErrUnavailable)
)

type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type response struct {
	Data   Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

type Config struct {
	URL           string
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
}

// Client is an Expo push client guarded by a circuit breaker and a rate limiter.
type Client struct {
	url     string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[Ticket]
	limiter *rate.Limiter
	l       logger.Logger
}

func New(cfg Config, l logger.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	const cbName = "expo-push"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[Ticket](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrTicket) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			l.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		url:     cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		l:       l,
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Send delivers one push message and returns Expo's ticket.
func (c *Client) Send(ctx context.Context, msg Message) (Ticket, error) {
	ctx = wrap.WithAction(ctx, "expo_push_send")

	if err := c.limiter.Wait(ctx); err != nil {
		return Ticket{}, err
	}

	ticket, err := c.cb.Execute(func() (Ticket, error) {
		return c.do(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if errors.Is(err, ErrUnavailable) {
			c.l.Warn(wrap.WithAction(ctx, types.ActionExternalServiceFailed), "expo push service unavailable", "error", err.Error())
			return Ticket{}, err
		}
		return ticket, err
	}

	return ticket, nil
}

func (c *Client) do(ctx context.Context, msg Message) (Ticket, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return Ticket{}, fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Ticket{}, err
	}
	// The transport negotiates gzip itself and decompresses transparently.
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Ticket{}, ctx.Err()
		}
		return Ticket{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Ticket{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Ticket{}, fmt.Errorf("decode push response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		reason := http.StatusText(resp.StatusCode)
		if len(out.Errors) > 0 {
			reason = out.Errors[0].Message
		}
		return Ticket{}, fmt.Errorf("%w: %s", ErrTicket, reason)
	}

	if out.Data.Status != "ok" {
		return out.Data, fmt.Errorf("%w: %s", ErrTicket, out.Data.Message)
	}

	return out.Data, nil
}
