package leads

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/lead-extractor/internal/cache"
	"github.com/wolfman30/lead-extractor/internal/llm"
	"github.com/wolfman30/lead-extractor/internal/observability/metrics"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

// Options tunes the provider request.
type Options struct {
	Model           string
	Temperature     float32
	MaxTokens       int
	MaxContentChars int
	// Timeout bounds a single provider call; zero leaves it to the HTTP client.
	Timeout time.Duration
}

// DefaultOptions mirrors the production defaults.
func DefaultOptions() Options {
	return Options{
		Model:           "gpt-4o-mini",
		Temperature:     0.3,
		MaxTokens:       500,
		MaxContentChars: DefaultMaxContentChars,
		Timeout:         30 * time.Second,
	}
}

// Option configures optional Extractor collaborators.
type Option func(*Extractor)

// WithCache enables the completion cache.
func WithCache(c cache.Completions) Option {
	return func(e *Extractor) { e.cache = c }
}

// WithMetrics records extraction metrics.
func WithMetrics(m *metrics.ExtractionMetrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// Extractor turns raw email text into a Record via the provider.
type Extractor struct {
	client  llm.Client
	prompt  Prompt
	opts    Options
	cache   cache.Completions
	metrics *metrics.ExtractionMetrics
	logger  *logging.Logger
}

// NewExtractor wires an extractor; client is required.
func NewExtractor(client llm.Client, prompt Prompt, opts Options, logger *logging.Logger, options ...Option) *Extractor {
	if client == nil {
		panic("leads: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if prompt.Template == "" {
		prompt.Template = defaultTemplate
	}
	if prompt.System == "" {
		prompt.System = DefaultSystemPrompt
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = DefaultMaxContentChars
	}
	e := &Extractor{
		client: client,
		prompt: prompt,
		opts:   opts,
		logger: logger,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Extract validates content, calls the provider once and returns a schema-checked
// Record. Validation failures return *ValidationError before any provider call;
// every other failure is an *UpstreamError. No retries.
func (e *Extractor) Extract(ctx context.Context, content string) (Record, error) {
	text, err := ExtractionRequest{Content: content}.Normalize(e.opts.MaxContentChars)
	if err != nil {
		e.metrics.ObserveRequest(metrics.OutcomeValidationError)
		return Record{}, err
	}

	req := llm.Request{
		Model:       e.opts.Model,
		System:      []string{e.prompt.System},
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: e.prompt.Build(text)}},
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
		JSONMode:    true,
	}

	var cacheKey string
	if e.cache != nil {
		cacheKey = cache.Key(req.Model, req.Temperature, req.MaxTokens, req.System, req.Messages[0].Content)
		if rec, ok := e.fromCache(ctx, cacheKey); ok {
			e.observeRecord(rec)
			return rec, nil
		}
	}

	// The provider call runs to completion even if the caller goes away.
	callCtx := context.WithoutCancel(ctx)
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.client.Complete(callCtx, req)
	e.metrics.ObserveUpstream(req.Model, err == nil, time.Since(start).Seconds())
	if err != nil {
		e.logger.Error("lead extraction provider call failed",
			"error", err,
			"model", req.Model,
			"content_chars", len([]rune(text)),
		)
		e.metrics.ObserveRequest(metrics.OutcomeUpstreamError)
		return Record{}, &UpstreamError{Op: OpComplete, Err: err}
	}
	e.metrics.ObserveTokens(req.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	rec, err := ParseRecord(resp.Text)
	if err != nil {
		op := OpSchema
		if errors.Is(err, ErrMalformedOutput) {
			op = OpParse
		}
		e.logger.Error("lead extraction output rejected",
			"error", err,
			"op", op,
			"model", req.Model,
			"finish_reason", resp.FinishReason,
			"output_bytes", len(resp.Text),
		)
		e.metrics.ObserveRequest(metrics.OutcomeUpstreamError)
		return Record{}, &UpstreamError{Op: op, Err: err}
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, resp.Text); err != nil {
			e.logger.Warn("completion cache write failed", "error", err)
		}
	}

	e.observeRecord(rec)
	e.logger.Debug("lead extracted",
		"verdict", string(rec.Verdict),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return rec, nil
}

func (e *Extractor) fromCache(ctx context.Context, key string) (Record, bool) {
	val, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("completion cache read failed", "error", err)
		e.metrics.ObserveCache(metrics.CacheError)
		return Record{}, false
	}
	if !ok {
		e.metrics.ObserveCache(metrics.CacheMiss)
		return Record{}, false
	}
	rec, err := ParseRecord(val)
	if err != nil {
		e.logger.Warn("discarding unusable cached completion", "error", err)
		e.metrics.ObserveCache(metrics.CacheMiss)
		return Record{}, false
	}
	e.metrics.ObserveCache(metrics.CacheHit)
	return rec, true
}

func (e *Extractor) observeRecord(rec Record) {
	if rec.IsLead() {
		e.metrics.ObserveRequest(metrics.OutcomeAccepted)
		return
	}
	e.metrics.ObserveRequest(metrics.OutcomeRejected)
}
