// Package rewrite wraps the language-model text transform used to turn the
// provider's English facts into the published Spanish copy. Two mutually
// exclusive contracts are supported: strict fidelity translation and free
// editorial rewriting. The model is consumed as an opaque best-effort
// transform; callers decide whether a failure propagates or falls back to
// the source text.
package rewrite

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/coachastral/astro-daily/pkg/upstream"
)

const (
	providerName = "openai"

	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 45 * time.Second

	// fidelityTemperature keeps translation output close to deterministic;
	// editorialTemperature leaves room for restructuring.
	fidelityTemperature  = 0.2
	editorialTemperature = 0.7
)

// Mode selects the rewrite contract. The two modes are never mixed within
// one call.
type Mode int

const (
	// ModeFidelity requires the output to preserve every source
	// proposition, add none, omit none, and not present itself as a
	// translation.
	ModeFidelity Mode = iota
	// ModeEditorial allows restructuring and length changes but must not
	// introduce facts absent from the source.
	ModeEditorial
)

func (m Mode) temperature() float32 {
	if m == ModeEditorial {
		return editorialTemperature
	}
	return fidelityTemperature
}

// Config holds the model credentials and settings.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Request is one rewrite invocation.
type Request struct {
	Mode Mode
	// System is the role instruction (the mode descriptor).
	System string
	// Prompt is the user content: rules plus the source text.
	Prompt string
}

// Rewriter transforms text via a chat-completion call.
type Rewriter struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRewriter validates the credential and builds the client.
func NewRewriter(cfg *Config, logger zerolog.Logger) (*Rewriter, error) {
	if cfg.APIKey == "" {
		return nil, upstream.NewError(upstream.KindConfiguration, providerName, "init",
			errors.New("openai api key is required"))
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Rewriter{
		client:  openai.NewClient(cfg.APIKey),
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "Rewriter").Logger(),
	}, nil
}

// Rewrite performs one text transform and returns the model output.
func (r *Rewriter) Rewrite(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: req.Mode.temperature(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		classified := classify(err)
		r.logger.Warn().Err(err).Str("kind", upstream.KindOf(classified).String()).Msg("Rewrite call failed.")
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", upstream.NewError(upstream.KindMalformedResponse, providerName, "chat_completion",
			errors.New("response contained no choices"))
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", upstream.NewError(upstream.KindMalformedResponse, providerName, "chat_completion",
			errors.New("response contained no text"))
	}
	return content, nil
}

// classify maps go-openai errors onto the shared taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return upstream.NewError(upstream.KindAuth, providerName, "chat_completion", err)
		case http.StatusTooManyRequests:
			return upstream.NewError(upstream.KindQuotaExceeded, providerName, "chat_completion", err)
		default:
			return upstream.NewError(upstream.KindUnknown, providerName, "chat_completion", err)
		}
	}
	// Transport-level faults: timeouts, refused connections, cancelled
	// contexts. All retry-safe on a subsequent request.
	return upstream.NewError(upstream.KindConnectivity, providerName, "chat_completion", err)
}
