package interview

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Prompt is one outbound request to the generation service.
type Prompt struct {
	System string
	User   string
}

// Response is the raw service output plus usage accounting for debug logs.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Generator proposes question text and candidate field values each round. It
// is never authoritative for status or score; the scorer decides completion.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (Response, error)
}

type failureClass int

const (
	failureTimeout failureClass = iota
	failureRateLimit
	failureServer
	failureClient
)

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	messages AnthropicMessager
	model    anthropic.Model
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicGeneratorFromEnv() (*AnthropicGenerator, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return &AnthropicGenerator{
		messages: newAnthropicClient(apiKey),
		model:    anthropic.ModelClaudeSonnet4_20250514,
	}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt Prompt) (Response, error) {
	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       g.model,
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return Response{}, err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return Response{
		Text:         sb.String(),
		Model:        string(resp.Model),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// RetryConfig bounds the retry policy around transient provider failures.
type RetryConfig struct {
	Attempts int
	MinDelay time.Duration
	MaxDelay time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, MinDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
}

// RetryingGenerator retries timeouts, rate limits, and server errors with
// exponential backoff between MinDelay and MaxDelay. Parse-level problems are
// not its concern; it only sees transport failures.
type RetryingGenerator struct {
	inner Generator
	cfg   RetryConfig
	sleep func(time.Duration)
}

func NewRetryingGenerator(inner Generator, cfg RetryConfig) *RetryingGenerator {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &RetryingGenerator{inner: inner, cfg: cfg, sleep: time.Sleep}
}

func (r *RetryingGenerator) Generate(ctx context.Context, prompt Prompt) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		resp, err := r.inner.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		class := classifyTransportError(err)
		if class == failureClient || attempt == r.cfg.Attempts {
			break
		}
		r.sleep(r.backoffDelay(attempt))
	}
	return Response{}, lastErr
}

func (r *RetryingGenerator) backoffDelay(attempt int) time.Duration {
	d := r.cfg.MinDelay << (attempt - 1)
	if d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	if d < r.cfg.MinDelay {
		d = r.cfg.MinDelay
	}
	return d
}

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

// ScriptedGenerator replays canned responses in order. Used by tests and the
// offline simulator.
type ScriptedGenerator struct {
	Responses []string
	Errs      []error
	i         int
}

func (s *ScriptedGenerator) Generate(context.Context, Prompt) (Response, error) {
	idx := s.i
	s.i++
	if idx < len(s.Errs) && s.Errs[idx] != nil {
		return Response{}, s.Errs[idx]
	}
	if idx < len(s.Responses) {
		return Response{Text: s.Responses[idx], Model: "scripted"}, nil
	}
	return Response{Model: "scripted"}, nil
}

// Rewind makes the generator replay its script from the start.
func (s *ScriptedGenerator) Rewind() { s.i = 0 }
