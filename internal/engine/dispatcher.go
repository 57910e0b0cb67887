/*
PURPOSE:
  Fans out N concurrent calls for one (model, prompt) pair and joins them.

REQUIREMENTS:
  User-specified:
  - N independent calls, no concurrency cap.
  - Outcomes ordered by call_id regardless of completion order.
  - Wall-clock batch duration for throughput.

  Implementation-discovered:
  - A panicking or erroring invoker must not take siblings down.
  - Optional per-call timeout; invokers report it as a timeout failure.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: internal/provider (Invoker)

ERROR HANDLING:
  - Invoker error or panic: outcome with kind exception, code TaskException.
  - Only an invalid call count is returned as an error.

IMPLEMENTATION RULES:
  - Each goroutine writes only its own slot; no locks on the outcome slice.
  - Nothing is read from the slice before the join.

USAGE:
  batch, err := d.Dispatch(ctx, inv, req, 100, nil)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/metrics.go

MAINTENANCE:
  - Keep retries out of here.
*/

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
)

// Batch is the joined result of one dispatch.
type Batch struct {
	Outcomes []model.CallOutcome
	Elapsed  time.Duration
}

// Dispatcher issues concurrent invocations.
type Dispatcher struct {
	// CallTimeout bounds every call when positive.
	CallTimeout time.Duration
}

// Dispatch runs n concurrent invocations of req and waits for all of them.
// onDone, when set, is called from the calling goroutines as each call finishes.
func (d *Dispatcher) Dispatch(ctx context.Context, inv provider.Invoker, req provider.Request, n int, onDone func(model.CallOutcome)) (Batch, error) {
	if n < 1 {
		return Batch{}, fmt.Errorf("number of calls must be greater than 0, got %d", n)
	}

	outcomes := make([]model.CallOutcome, n)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			out := d.call(ctx, inv, req)
			out.CallID = index + 1
			outcomes[index] = out

			if onDone != nil {
				onDone(out)
			}
		}(i)
	}
	wg.Wait()

	return Batch{Outcomes: outcomes, Elapsed: time.Since(start)}, nil
}

func (d *Dispatcher) call(ctx context.Context, inv provider.Invoker, req provider.Request) (out model.CallOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = taskException(fmt.Sprintf("panic: %v", r))
		}
	}()

	if d.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.CallTimeout)
		defer cancel()
	}

	res, err := inv.Invoke(ctx, req)
	if err != nil {
		return taskException(err.Error())
	}
	return normalize(res)
}

func taskException(message string) model.CallOutcome {
	return model.Failure(model.ErrorException, model.TaskExceptionCode, message, 0)
}

// normalize enforces that Error is set exactly when the call failed.
func normalize(out model.CallOutcome) model.CallOutcome {
	if out.Success {
		out.Error = nil
		return out
	}
	out.Response = ""
	if out.Error == nil {
		out.Error = &model.CallError{
			Kind:    model.ErrorService,
			Code:    "UnknownError",
			Message: "call failed without error detail",
		}
	}
	return out
}
