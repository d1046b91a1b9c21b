// Package review hands a bounded change document to an external
// text-generation service and returns its answer verbatim.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"git.home.luguber.info/inful/normalize/internal/config"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/metrics"
	"git.home.luguber.info/inful/normalize/internal/retry"
)

// ErrEmptyResponse is returned when the service answers without text.
var ErrEmptyResponse = errors.New("review service returned no text")

// Request is one review call.
type Request struct {
	Payload     string
	Model       string
	Temperature float32
}

// Reviewer sends a payload and returns the response text.
type Reviewer interface {
	Review(ctx context.Context, req Request) (string, error)
}

// New builds the reviewer configured in cfg, with per-call timeout and
// rate-limit retries applied.
func New(ctx context.Context, cfg config.ReviewConfig, rec metrics.Recorder) (Reviewer, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, ferrors.ConfigError(fmt.Sprintf("review API key not set in $%s", cfg.APIKeyEnv)).
			WithContext("field", "review.api_key_env").
			Build()
	}

	var (
		base Reviewer
		err  error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		base, err = NewGemini(ctx, key, cfg.BaseURL)
	case config.ProviderOpenAI, "":
		base = NewOpenAI(key, cfg.BaseURL)
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unknown review provider %q", cfg.Provider)).
			WithContext("field", "review.provider").
			Build()
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(base, retry.FromReview(cfg), cfg.Timeout, string(cfg.Provider), rec), nil
}

// Retrying applies a timeout to every attempt and retries rate-limited calls.
type Retrying struct {
	next     Reviewer
	policy   retry.Policy
	timeout  time.Duration
	provider string
	recorder metrics.Recorder
}

// WithRetry wraps next. A zero timeout means no per-attempt timeout.
func WithRetry(next Reviewer, p retry.Policy, timeout time.Duration, provider string, rec metrics.Recorder) *Retrying {
	return &Retrying{next: next, policy: p, timeout: timeout, provider: provider, recorder: metrics.OrNoop(rec)}
}

// Review implements Reviewer.
func (r *Retrying) Review(ctx context.Context, req Request) (string, error) {
	var out string
	onRetry := func(attempt int, wait time.Duration, err error) {
		r.recorder.IncReviewRetry(r.provider)
		slog.Warn("Review rate limited; retrying",
			logfields.Provider(r.provider),
			logfields.Attempt(attempt),
			slog.Duration("wait", wait),
			logfields.Error(err))
	}
	err := r.policy.Do(ctx, IsRateLimited, onRetry, func(ctx context.Context) error {
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		text, err := r.next.Review(ctx, req)
		out = text
		return err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// RateLimitError marks a rate-limited call. Wait is the delay the service
// suggested, or zero.
type RateLimitError struct {
	Err  error
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RetryAfter implements retry.Hinted.
func (e *RateLimitError) RetryAfter() time.Duration { return e.Wait }

// IsRateLimited reports whether err is a rate-limit response.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

var (
	trySeconds      = regexp.MustCompile(`Please try again in ([0-9]+(?:\.[0-9]+)?)s`)
	tryMilliseconds = regexp.MustCompile(`Please try again in ([0-9]+)ms`)
)

// suggestedWait extracts the wait a service message asks for.
func suggestedWait(msg string) time.Duration {
	if m := tryMilliseconds.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Duration(n) * time.Millisecond
	}
	if m := trySeconds.FindStringSubmatch(msg); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		return time.Duration(f * float64(time.Second))
	}
	return 0
}

func collaboratorError(provider string, err error) error {
	return ferrors.CollaboratorError(provider+" review call failed").
		WithCause(err).
		WithContext("provider", provider).
		Build()
}
