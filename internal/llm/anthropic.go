package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ptcoach/pt-server/internal/metrics"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	log "github.com/sirupsen/logrus"
)

const DefaultMaxTokens = 4096

type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type anthropicGenerator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int
	timeout   time.Duration
	metrics   *metrics.Manager
}

// NewAnthropicGenerator returns a Generator backed by the Anthropic Messages API.
func NewAnthropicGenerator(cfg AnthropicConfig, metricsManager *metrics.Manager) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is not configured")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
		metrics:   metricsManager,
	}, nil
}

func (g *anthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: int64(maxTokens),
		Messages:  toMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	resp, err := g.client.Messages.New(ctx, params)
	g.observe(req.Operation, start, err)
	if err != nil {
		log.Errorf("llm [%s]: request failed after %s: %v", req.Operation, time.Since(start), err)
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			log.Debugf("llm [%s]: %d output tokens in %s", req.Operation, resp.Usage.OutputTokens, time.Since(start))
			return block.Text, nil
		}
	}
	return "", ErrEmptyResponse
}

func (g *anthropicGenerator) observe(operation string, start time.Time, err error) {
	if g.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	g.metrics.CounterLLMCalls.WithLabelValues(operation, outcome).Inc()
	g.metrics.HistogramLLMCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func toMessageParams(messages []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if strings.EqualFold(string(m.Role), string(RoleAssistant)) {
			params = append(params, anthropic.NewAssistantMessage(block))
			continue
		}
		params = append(params, anthropic.NewUserMessage(block))
	}
	return params
}
