package leads

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/lead-extractor/internal/cache"
	"github.com/wolfman30/lead-extractor/internal/llm"
	"github.com/wolfman30/lead-extractor/internal/observability/metrics"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

// fakeLLM records requests and returns a canned response.
type fakeLLM struct {
	mu       sync.Mutex
	text     string
	err      error
	calls    int
	requests []llm.Request
	ctxErr   error
	deadline bool
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	f.ctxErr = ctx.Err()
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text, Usage: llm.TokenUsage{InputTokens: 100, OutputTokens: 30, TotalTokens: 130}}, nil
}

const (
	personalEmail = "Hi mom, see you Sunday!"
	businessEmail = "We need a vendor for 500 units/month, budget approved, please call me at 555-1234, John Doe, Acme Corp"

	rejectedOutput = `{"is_valid_lead":"no","reason":"Personal family message with no business context."}`
	acceptedOutput = `{"is_valid_lead":"yes","contact_name":"John Doe","email":"","phone":"555-1234","company":"Acme Corp",` +
		`"website":"","linkedin":"","intent":"Looking for a vendor supplying 500 units per month; budget approved.",` +
		`"urgency_level":"High","lead_score":9,"confidence":"High"}`
)

func newTestExtractor(client llm.Client, options ...Option) *Extractor {
	return NewExtractor(client, DefaultPrompt(), DefaultOptions(), logging.Discard(), options...)
}

func TestExtractRejectsPersonalEmail(t *testing.T) {
	fake := &fakeLLM{text: rejectedOutput}
	e := newTestExtractor(fake)

	rec, err := e.Extract(context.Background(), personalEmail)
	require.NoError(t, err)
	assert.Equal(t, VerdictNo, rec.Verdict)
	assert.Contains(t, strings.ToLower(rec.Reason), "personal")
	assert.Equal(t, 1, fake.calls)
}

func TestExtractAcceptsBusinessInquiry(t *testing.T) {
	fake := &fakeLLM{text: acceptedOutput}
	e := newTestExtractor(fake)

	rec, err := e.Extract(context.Background(), businessEmail)
	require.NoError(t, err)
	require.True(t, rec.IsLead())
	assert.Equal(t, "John Doe", rec.Lead.ContactName)
	assert.Equal(t, "Acme Corp", rec.Lead.Company)
	assert.Equal(t, "555-1234", rec.Lead.Phone)
	assert.Equal(t, LevelHigh, rec.Lead.UrgencyLevel)
	assert.GreaterOrEqual(t, rec.Lead.LeadScore, 1)
	assert.LessOrEqual(t, rec.Lead.LeadScore, 10)
}

func TestExtractBuildsProviderRequest(t *testing.T) {
	fake := &fakeLLM{text: rejectedOutput}
	e := newTestExtractor(fake)

	_, err := e.Extract(context.Background(), "   "+personalEmail+"\n\n")
	require.NoError(t, err)
	require.Len(t, fake.requests, 1)

	req := fake.requests[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, []string{DefaultSystemPrompt}, req.System)
	assert.InDelta(t, 0.3, req.Temperature, 0.0001)
	assert.Equal(t, 500, req.MaxTokens)
	assert.True(t, req.JSONMode)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, llm.RoleUser, req.Messages[0].Role)
	assert.Equal(t, DefaultPrompt().Build(personalEmail), req.Messages[0].Content)
	assert.True(t, fake.deadline, "provider call should carry the configured timeout")
}

func TestExtractValidationMakesNoProviderCall(t *testing.T) {
	for _, content := range []string{"", "   \n\t", strings.Repeat("x", 2001)} {
		fake := &fakeLLM{text: rejectedOutput}
		e := newTestExtractor(fake)

		_, err := e.Extract(context.Background(), content)
		require.Error(t, err)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
		assert.Zero(t, fake.calls, "no outbound call for invalid content")
	}
}

func TestExtractProviderError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection reset")}
	e := newTestExtractor(fake)

	_, err := e.Extract(context.Background(), businessEmail)
	require.Error(t, err)

	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, OpComplete, uerr.Op)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestExtractUnparseableOutput(t *testing.T) {
	fake := &fakeLLM{text: "Sorry, I cannot help with that."}
	e := newTestExtractor(fake)

	_, err := e.Extract(context.Background(), businessEmail)
	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, OpParse, uerr.Op)
	assert.True(t, errors.Is(err, ErrMalformedOutput))
}

func TestExtractSchemaMismatch(t *testing.T) {
	fake := &fakeLLM{text: `{"is_valid_lead":"yes","lead_score":42,"urgency_level":"High","confidence":"High"}`}
	e := newTestExtractor(fake)

	_, err := e.Extract(context.Background(), businessEmail)
	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, OpSchema, uerr.Op)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestExtractIgnoresCallerCancellation(t *testing.T) {
	fake := &fakeLLM{text: rejectedOutput}
	e := newTestExtractor(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, personalEmail)
	require.NoError(t, err)
	assert.NoError(t, fake.ctxErr, "provider call must not inherit caller cancellation")
}

func TestExtractUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	completions := cache.NewRedisCompletions(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	reg := prometheus.NewRegistry()
	m := metrics.NewExtractionMetrics(reg)

	fake := &fakeLLM{text: acceptedOutput}
	e := newTestExtractor(fake, WithCache(completions), WithMetrics(m))

	first, err := e.Extract(context.Background(), businessEmail)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), "  "+businessEmail+"  ")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls, "second identical extraction should be served from cache")
	assert.Equal(t, first, second)
}

func TestExtractDoesNotCacheFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	completions := cache.NewRedisCompletions(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	fake := &fakeLLM{text: "not json"}
	e := newTestExtractor(fake, WithCache(completions))

	_, err := e.Extract(context.Background(), businessEmail)
	require.Error(t, err)
	assert.Empty(t, mr.Keys())

	fake.text = acceptedOutput
	_, err = e.Extract(context.Background(), businessEmail)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
	assert.Len(t, mr.Keys(), 1)
}

func TestExtractSurvivesCacheOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	completions := cache.NewRedisCompletions(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	mr.Close()
	reg := prometheus.NewRegistry()

	fake := &fakeLLM{text: rejectedOutput}
	e := newTestExtractor(fake, WithCache(completions), WithMetrics(metrics.NewExtractionMetrics(reg)))

	rec, err := e.Extract(context.Background(), personalEmail)
	require.NoError(t, err)
	assert.Equal(t, VerdictNo, rec.Verdict)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 1.0, cacheLookups(t, reg, metrics.CacheError), "failed lookups are counted")
	assert.Zero(t, cacheLookups(t, reg, metrics.CacheMiss))
}

func TestExtractCacheKeyedOnSamplingSettings(t *testing.T) {
	mr := miniredis.RunT(t)
	completions := cache.NewRedisCompletions(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	fake := &fakeLLM{text: acceptedOutput}

	opts := DefaultOptions()
	first := NewExtractor(fake, DefaultPrompt(), opts, logging.Discard(), WithCache(completions))
	_, err := first.Extract(context.Background(), businessEmail)
	require.NoError(t, err)

	opts.MaxTokens = 800
	second := NewExtractor(fake, DefaultPrompt(), opts, logging.Discard(), WithCache(completions))
	_, err = second.Extract(context.Background(), businessEmail)
	require.NoError(t, err)

	opts.Temperature = 0.9
	third := NewExtractor(fake, DefaultPrompt(), opts, logging.Discard(), WithCache(completions))
	_, err = third.Extract(context.Background(), businessEmail)
	require.NoError(t, err)

	assert.Equal(t, 3, fake.calls, "changed sampling settings must not reuse cached output")
	assert.Len(t, mr.Keys(), 3)
}

func cacheLookups(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "leadextract_extraction_cache_lookups_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestExtractConcurrentCallsAreIndependent(t *testing.T) {
	fake := &fakeLLM{text: acceptedOutput}
	e := newTestExtractor(fake)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := e.Extract(context.Background(), businessEmail)
			if err == nil && !rec.IsLead() {
				err = errors.New("expected accepted record")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 16, fake.calls)
}

func TestNewExtractorDefaults(t *testing.T) {
	fake := &fakeLLM{text: rejectedOutput}
	e := NewExtractor(fake, Prompt{}, Options{Model: "m"}, nil)
	assert.Equal(t, DefaultMaxContentChars, e.opts.MaxContentChars)
	assert.Equal(t, DefaultSystemPrompt, e.prompt.System)
	assert.NotEmpty(t, e.prompt.Template)

	assert.Panics(t, func() { NewExtractor(nil, Prompt{}, Options{}, nil) })
}
