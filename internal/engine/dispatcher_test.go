package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
)

func TestDispatchOrdersByCallID(t *testing.T) {
	var seq atomic.Int64
	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		time.Sleep(time.Duration(rand.Intn(15)) * time.Millisecond)
		n := int(seq.Add(1))
		return model.CallOutcome{Success: true, ResponseTime: 0.01, InputTokens: n, Response: req.Prompt}, nil
	})

	var done atomic.Int64
	d := &Dispatcher{}
	batch, err := d.Dispatch(context.Background(), inv, provider.Request{Prompt: "hi"}, 25, func(model.CallOutcome) {
		done.Add(1)
	})
	require.NoError(t, err)

	require.Len(t, batch.Outcomes, 25)
	for i, out := range batch.Outcomes {
		assert.Equal(t, i+1, out.CallID)
		assert.True(t, out.Success)
		assert.Nil(t, out.Error)
		assert.Equal(t, "hi", out.Response)
	}
	assert.EqualValues(t, 25, done.Load())
	assert.Greater(t, batch.Elapsed, time.Duration(0))
}

func TestDispatchKeepsSlotsWhenCallsFinishInReverse(t *testing.T) {
	const n = 8
	gates := make([]chan struct{}, n)
	for i := range gates {
		gates[i] = make(chan struct{})
	}
	var arrived sync.WaitGroup
	arrived.Add(n)
	var tickets atomic.Int64
	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		ticket := int(tickets.Add(1)) - 1
		arrived.Done()
		<-gates[ticket]
		return model.CallOutcome{Success: true, ResponseTime: 0.01, Response: fmt.Sprintf("ticket-%d", ticket)}, nil
	})

	var mu sync.Mutex
	var finished []model.CallOutcome
	completed := make(chan struct{}, n)
	onDone := func(out model.CallOutcome) {
		mu.Lock()
		finished = append(finished, out)
		mu.Unlock()
		completed <- struct{}{}
	}

	type result struct {
		batch Batch
		err   error
	}
	done := make(chan result, 1)
	go func() {
		b, err := (&Dispatcher{}).Dispatch(context.Background(), inv, provider.Request{Prompt: "hi"}, n, onDone)
		done <- result{b, err}
	}()

	arrived.Wait()
	for k := n - 1; k >= 0; k-- {
		close(gates[k])
		<-completed
	}
	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.batch.Outcomes, n)

	// Completion order is reverse arrival; slot i still holds call i+1's own outcome.
	require.Len(t, finished, n)
	byCallID := make(map[int]string, n)
	for k, out := range finished {
		assert.Equal(t, fmt.Sprintf("ticket-%d", n-1-k), out.Response)
		byCallID[out.CallID] = out.Response
	}
	require.Len(t, byCallID, n)
	for i, out := range res.batch.Outcomes {
		assert.Equal(t, i+1, out.CallID)
		assert.Equal(t, byCallID[i+1], out.Response)
	}
}

func TestDispatchRunsCallsConcurrently(t *testing.T) {
	const n = 10
	var inFlight, peak atomic.Int64
	release := make(chan struct{})

	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		if cur == n {
			close(release)
		}
		<-release
		inFlight.Add(-1)
		return model.CallOutcome{Success: true}, nil
	})

	_, err := (&Dispatcher{}).Dispatch(context.Background(), inv, provider.Request{}, n, nil)
	require.NoError(t, err)
	assert.EqualValues(t, n, peak.Load())
}

func TestDispatchConvertsFaultsToTaskException(t *testing.T) {
	var calls atomic.Int64
	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		switch calls.Add(1) % 3 {
		case 0:
			panic("invoker blew up")
		case 1:
			return model.CallOutcome{}, errors.New("no record returned")
		default:
			return model.CallOutcome{Success: true, Response: "ok"}, nil
		}
	})

	batch, err := (&Dispatcher{}).Dispatch(context.Background(), inv, provider.Request{}, 9, nil)
	require.NoError(t, err)

	var failed, succeeded int
	for _, out := range batch.Outcomes {
		if out.Success {
			succeeded++
			continue
		}
		failed++
		require.NotNil(t, out.Error)
		assert.Equal(t, model.ErrorException, out.Error.Kind)
		assert.Equal(t, model.TaskExceptionCode, out.Error.Code)
		assert.Empty(t, out.Response)
		assert.Zero(t, out.ResponseTime)
	}
	assert.Equal(t, 6, failed)
	assert.Equal(t, 3, succeeded)
}

func TestDispatchNormalizesOutcomes(t *testing.T) {
	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		return model.CallOutcome{Success: false, Response: "partial"}, nil
	})

	batch, err := (&Dispatcher{}).Dispatch(context.Background(), inv, provider.Request{}, 1, nil)
	require.NoError(t, err)

	out := batch.Outcomes[0]
	assert.False(t, out.Success)
	assert.Empty(t, out.Response)
	require.NotNil(t, out.Error)
	assert.Equal(t, model.ErrorService, out.Error.Kind)
}

func TestDispatchRejectsNonPositiveCount(t *testing.T) {
	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		assert.Fail(t, "invoker must not be called")
		return model.CallOutcome{}, nil
	})
	for _, n := range []int{0, -3} {
		_, err := (&Dispatcher{}).Dispatch(context.Background(), inv, provider.Request{}, n, nil)
		assert.Error(t, err)
	}
}

func TestDispatchAppliesCallTimeout(t *testing.T) {
	inv := provider.InvokerFunc(func(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return model.Failure(model.ErrorTimeout, "RequestTimeout", ctx.Err().Error(), 0.02), nil
	})

	d := &Dispatcher{CallTimeout: 20 * time.Millisecond}
	batch, err := d.Dispatch(context.Background(), inv, provider.Request{}, 3, nil)
	require.NoError(t, err)
	for _, out := range batch.Outcomes {
		require.NotNil(t, out.Error)
		assert.Equal(t, model.ErrorTimeout, out.Error.Kind)
	}
}
