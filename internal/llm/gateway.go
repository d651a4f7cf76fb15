package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/wellness-chat-backend/internal/config"
	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/observability"
	"github.com/tbourn/wellness-chat-backend/internal/safety"
)

// FallbackModel is the model id reported on degraded replies.
const FallbackModel = "fallback"

var (
	errNoModel    = errors.New("no language model configured")
	errEmptyReply = errors.New("model returned no content")
)

// Gateway calls a Generator with a bounded history window and a hard deadline.
type Gateway struct {
	model       Generator
	modelName   string
	temperature float64
	maxTokens   int
	retries     int
	window      int
	deadline    time.Duration

	// retry pacing; tests shrink it
	backoffInitial time.Duration
}

// NewGateway wraps model with the settings in cfg. A nil model is allowed:
// every call then returns the degraded reply.
func NewGateway(model Generator, cfg config.LLMConfig) *Gateway {
	return &Gateway{
		model:          model,
		modelName:      cfg.Model,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		retries:        cfg.Retries,
		window:         cfg.HistoryWindow,
		deadline:       cfg.Deadline,
		backoffInitial: 250 * time.Millisecond,
	}
}

// Deadline returns the default per-call deadline.
func (g *Gateway) Deadline() time.Duration { return g.deadline }

// Window returns the history window size.
func (g *Gateway) Window() int { return g.window }

type outcome struct {
	res domain.ProviderResult
	err error
}

// Generate asks the model for the next assistant turn. It always returns a
// result: on error, empty output, or when deadline elapses it returns the
// degraded reply with model "fallback" and zero tokens. A non-positive
// deadline uses the configured default.
func (g *Gateway) Generate(ctx context.Context, history []domain.Message, systemPrompt string, deadline time.Duration) domain.ProviderResult {
	ctx, span := observability.StartSpan(ctx, "llm/gateway", "Gateway.Generate")
	defer span.End()

	if deadline <= 0 {
		deadline = g.deadline
	}
	start := time.Now()
	if g.model == nil {
		return g.fallback(ctx, start, observability.FallbackError, errNoModel)
	}

	msgs := buildMessages(capWindow(history, g.window), systemPrompt)
	span.SetAttributes(
		attribute.Int("llm.messages", len(msgs)),
		attribute.String("llm.model", g.modelName),
	)

	cctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := g.call(cctx, msgs)
		done <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case o := <-done:
		if o.err != nil {
			reason := observability.FallbackError
			switch {
			case errors.Is(o.err, context.DeadlineExceeded):
				reason = observability.FallbackTimeout
			case errors.Is(o.err, errEmptyReply):
				reason = observability.FallbackEmpty
			}
			span.RecordError(o.err)
			span.SetStatus(codes.Error, reason)
			return g.fallback(ctx, start, reason, o.err)
		}
		o.res.LatencyMs = time.Since(start).Milliseconds()
		observability.ObserveProviderLatency(o.res.Model, time.Since(start))
		span.SetAttributes(attribute.Int("llm.tokens", o.res.TokenCount))
		return o.res
	case <-timer.C:
		span.SetStatus(codes.Error, observability.FallbackTimeout)
		return g.fallback(ctx, start, observability.FallbackTimeout, context.DeadlineExceeded)
	}
}

func (g *Gateway) call(ctx context.Context, msgs []llms.MessageContent) (domain.ProviderResult, error) {
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	var resp *llms.ContentResponse
	op := func() error {
		r, err := g.model.GenerateContent(ctx, msgs, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		resp = r
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.backoffInitial
	exp.MaxInterval = 2 * time.Second
	exp.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(g.retries, 0))), ctx)

	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		observability.Logger(ctx).Debug().Err(err).Dur("wait", wait).Msg("retrying model call")
	})
	if err != nil {
		return domain.ProviderResult{}, err
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return domain.ProviderResult{}, errEmptyReply
	}
	choice := resp.Choices[0]
	return domain.ProviderResult{
		Content:    strings.TrimSpace(choice.Content),
		Model:      g.modelName,
		TokenCount: tokenCount(choice.GenerationInfo),
	}, nil
}

func (g *Gateway) fallback(ctx context.Context, start time.Time, reason string, cause error) domain.ProviderResult {
	observability.RecordProviderFallback(reason)
	observability.Logger(ctx).Warn().
		Err(cause).
		Str("reason", reason).
		Str("model", g.modelName).
		Msg("provider unavailable; serving degraded reply")
	return domain.ProviderResult{
		Content:    safety.FallbackReply(),
		Model:      FallbackModel,
		TokenCount: 0,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
}

func capWindow(history []domain.Message, n int) []domain.Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func buildMessages(history []domain.Message, systemPrompt string) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(history)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == domain.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

// tokenCount reads usage from provider-specific generation info keys.
func tokenCount(info map[string]any) int {
	if info == nil {
		return 0
	}
	for _, k := range []string{"TotalTokens", "total_tokens"} {
		if n, ok := asInt(info[k]); ok && n > 0 {
			return n
		}
	}
	for _, pair := range [][2]string{
		{"PromptTokens", "CompletionTokens"},
		{"InputTokens", "OutputTokens"},
		{"input_tokens", "output_tokens"},
	} {
		in, ok1 := asInt(info[pair[0]])
		out, ok2 := asInt(info[pair[1]])
		if ok1 || ok2 {
			return in + out
		}
	}
	return 0
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
