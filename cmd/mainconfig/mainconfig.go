package mainconfig

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/lead-extractor/internal/cache"
	appconfig "github.com/wolfman30/lead-extractor/internal/config"
	"github.com/wolfman30/lead-extractor/internal/leads"
	"github.com/wolfman30/lead-extractor/internal/llm"
	"github.com/wolfman30/lead-extractor/internal/observability/metrics"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

// Extraction is the provider/cache wiring shared by the API server and the CLI.
type Extraction struct {
	Extractor *leads.Extractor
	redis     *redis.Client
}

// Close releases the cache connection, if any.
func (e *Extraction) Close() error {
	if e == nil || e.redis == nil {
		return nil
	}
	return e.redis.Close()
}

// BuildExtraction validates cfg and wires the OpenAI client, prompt and optional
// Redis cache into an extractor. m may be nil.
func BuildExtraction(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.ExtractionMetrics) (*Extraction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	prompt, err := leads.LoadPrompt(cfg.PromptFile, cfg.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("mainconfig: %w", err)
	}

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: llm.NewHTTPClient(cfg.LLMTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("mainconfig: %w", err)
	}

	opts := leads.Options{
		Model:           cfg.LLMModel,
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		MaxContentChars: cfg.MaxContentChars,
		Timeout:         cfg.LLMTimeout,
	}

	out := &Extraction{}
	var options []leads.Option
	if m != nil {
		options = append(options, leads.WithMetrics(m))
	}
	if cfg.CacheEnabled() {
		out.redis = cache.BuildRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TLS:      cfg.RedisTLS,
		}, logger, true)
		if out.redis != nil {
			options = append(options, leads.WithCache(cache.NewRedisCompletions(out.redis, cfg.CacheTTL)))
			logger.Info("completion cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.String())
		}
	}

	out.Extractor = leads.NewExtractor(client, prompt, opts, logger, options...)
	return out, nil
}
