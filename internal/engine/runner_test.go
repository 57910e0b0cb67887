package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/llm-bench/internal/cost"
	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
)

type countingProgress struct {
	mu       sync.Mutex
	added    int
	finished bool
}

func (p *countingProgress) Add(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added += n
	return nil
}

func (p *countingProgress) Finish() error {
	p.finished = true
	return nil
}

var (
	testModels = []model.ModelSpec{
		{Name: "nova", Provider: provider.Bedrock, ModelID: "amazon.nova", MaxTokens: 100, Temperature: 0.7, InputCostPer1kTokens: 1, OutputCostPer1kTokens: 2},
		{Name: "gpt", Provider: provider.OpenAI, ModelID: "gpt-4o-mini", MaxTokens: 50, Temperature: 0.2},
	}
	testPrompts = []model.PromptSpec{
		{Name: "short", Description: "short one", Prompt: "hi"},
		{Name: "long", Description: "long one", Prompt: "hello there"},
	}
)

func echoInvoker() provider.Invoker {
	return provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		return model.CallOutcome{
			Success:      true,
			ResponseTime: 0.01,
			InputTokens:  len(req.Prompt),
			OutputTokens: req.MaxTokens,
			Response:     req.ModelID + ":" + req.Prompt,
		}, nil
	})
}

func newTestRunner(reg *provider.Registry) *Runner {
	r := NewRunner(reg, cost.TableFromModels(testModels), 0)
	var ids int
	r.newID = func() string {
		ids++
		return fmt.Sprintf("run-%d", ids)
	}
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRunMultiPromptOrder(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(provider.Bedrock, echoInvoker())
	reg.Register(provider.OpenAI, echoInvoker())

	r := newTestRunner(reg)
	var streamed []string
	r.OnRun = func(run model.BenchmarkRun) {
		streamed = append(streamed, run.ModelName+"/"+run.PromptInfo.Name)
	}

	report, err := r.RunMultiPrompt(context.Background(), testModels, testPrompts, "", "", 3)
	require.NoError(t, err)

	var got []string
	for _, run := range report.All {
		got = append(got, run.ModelName+"/"+run.PromptInfo.Name)
	}
	want := []string{"nova/short", "gpt/short", "nova/long", "gpt/long"}
	assert.Equal(t, want, got)
	assert.Equal(t, want, streamed)

	require.Len(t, report.ByPrompt, 2)
	assert.Equal(t, "short", report.ByPrompt[0].Prompt.Name)
	assert.Len(t, report.ByPrompt[0].Runs, 2)

	first := report.All[0]
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, 2024, first.Timestamp.Year())
	assert.Equal(t, 3, first.Metrics.TotalCalls)
	assert.Equal(t, "amazon.nova:hi", first.Responses[0].Response)
	// 3 calls * 2 input tokens at $1/1k plus 3 * 100 output tokens at $2/1k.
	assert.InDelta(t, 0.006+0.6, first.Metrics.TotalCost, 1e-12)
}

func TestRunFiltersNotFound(t *testing.T) {
	r := newTestRunner(provider.NewRegistry())

	_, err := r.RunMultiPrompt(context.Background(), testModels, testPrompts, "missing", "", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Model", nf.Kind)
	assert.Equal(t, "missing", nf.Name)
	assert.Equal(t, "Model 'missing' not found in configuration", err.Error())

	_, err = r.RunMultiPrompt(context.Background(), testModels, testPrompts, "", "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "Prompt 'nope'")

	_, err = r.RunSinglePrompt(context.Background(), testModels, testPrompts[0], "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunFilterSelectsOnePair(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(provider.OpenAI, echoInvoker())

	report, err := newTestRunner(reg).RunMultiPrompt(context.Background(), testModels, testPrompts, "gpt", "long", 2)
	require.NoError(t, err)
	require.Len(t, report.All, 1)
	assert.Equal(t, "gpt", report.All[0].ModelName)
	assert.Equal(t, "long", report.All[0].PromptInfo.Name)
}

func TestRunContinuesAfterPairFailure(t *testing.T) {
	// No bedrock invoker: every "nova" pair fails and is skipped.
	reg := provider.NewRegistry()
	reg.Register(provider.OpenAI, echoInvoker())

	report, err := newTestRunner(reg).RunMultiPrompt(context.Background(), testModels, testPrompts, "", "", 2)
	require.NoError(t, err)
	require.Len(t, report.All, 2)
	for _, run := range report.All {
		assert.Equal(t, "gpt", run.ModelName)
	}
	require.Len(t, report.ByPrompt, 2)
	assert.Len(t, report.ByPrompt[1].Runs, 1)
}

func TestRunSinglePrompt(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(provider.Bedrock, echoInvoker())
	reg.Register(provider.OpenAI, echoInvoker())

	custom := model.PromptSpec{Name: "custom", Description: "Custom prompt provided via CLI", Prompt: "why?"}
	runs, err := newTestRunner(reg).RunSinglePrompt(context.Background(), testModels, custom, "", 1)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "custom", runs[1].PromptInfo.Name)
}

func TestRunReportsProgress(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(provider.Bedrock, echoInvoker())

	var bars []*countingProgress
	r := newTestRunner(reg)
	r.Progress = func(m model.ModelSpec, p model.PromptSpec, calls int) Progress {
		bar := &countingProgress{}
		bars = append(bars, bar)
		return bar
	}

	_, err := r.RunSinglePrompt(context.Background(), testModels, testPrompts[0], "nova", 7)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 7, bars[0].added)
	assert.True(t, bars[0].finished)
}

func TestRunStopsOnCancel(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(provider.Bedrock, echoInvoker())
	reg.Register(provider.OpenAI, echoInvoker())

	ctx, cancel := context.WithCancel(context.Background())
	r := newTestRunner(reg)
	r.OnRun = func(model.BenchmarkRun) { cancel() }

	report, err := r.RunMultiPrompt(ctx, testModels, testPrompts, "", "", 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.All, 1)
}

func TestRunDiscardsBatchInterruptedMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls sync.WaitGroup
	calls.Add(5)
	reg := provider.NewRegistry()
	reg.Register(provider.Bedrock, echoInvoker())
	reg.Register(provider.OpenAI, provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		calls.Done()
		calls.Wait()
		cancel()
		<-ctx.Done()
		return provider.VendorFailure("UnknownError", ctx.Err().Error(), 0.5), nil
	}))

	r := newTestRunner(reg)
	var recorded []model.BenchmarkRun
	r.OnRun = func(run model.BenchmarkRun) { recorded = append(recorded, run) }

	report, err := r.RunMultiPrompt(ctx, testModels, testPrompts, "", "", 5)
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "benchmark interrupted")

	require.Len(t, report.All, 1)
	assert.Equal(t, "nova", report.All[0].ModelName)
	assert.Equal(t, report.All, recorded)
	assert.Zero(t, report.All[0].Metrics.Get(model.ErrorService))
	require.Len(t, report.ByPrompt, 1)
	assert.Len(t, report.ByPrompt[0].Runs, 1)
}
