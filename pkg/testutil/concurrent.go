// Package testutil holds helpers shared by package tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes       int32
	LimitExceeded   int32
	Unauthenticated int32
	Conflicts       int32
	Errors          int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.LimitExceeded + r.Unauthenticated + r.Conflicts + r.Errors
}

// RunConcurrent executes fn in parallel goroutines released together by a
// start barrier, and buckets the outcomes.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})

		successes, limits, unauth, conflicts, errs atomic.Int32
	)

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrLimitReached), dErrors.HasCode(err, dErrors.CodePlanLimitExceeded):
				limits.Add(1)
			case dErrors.HasCode(err, dErrors.CodeUnauthenticated):
				unauth.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:       successes.Load(),
		LimitExceeded:   limits.Load(),
		Unauthenticated: unauth.Load(),
		Conflicts:       conflicts.Load(),
		Errors:          errs.Load(),
	}
}
