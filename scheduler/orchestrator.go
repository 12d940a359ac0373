package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// CycleReport is the aggregate outcome of one orchestrator cycle.
type CycleReport struct {
	StartedAt time.Time `json:"started_at"`
	Elapsed   string    `json:"elapsed"`

	Promote PassResult `json:"promote"`
	Send    PassResult `json:"send"`
	Sweep   PassResult `json:"sweep"`
}

// RunCycle executes the three passes concurrently and never returns an
// error: each pass reports its own problems in the result, and a panicking
// pass is contained so the other two still finish. The claim protocol makes
// the passes safe to overlap; they never fight over a row.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{StartedAt: s.now()}
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(3)
	go s.runPass(&wg, "sweep", &report.Sweep, func() PassResult { return s.ReleaseStale(ctx) })
	go s.runPass(&wg, "promote", &report.Promote, func() PassResult { return s.PromotePending(ctx) })
	go s.runPass(&wg, "send", &report.Send, func() PassResult { return s.SendScheduled(ctx, 0) })
	wg.Wait()

	report.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return report
}

func (s *Scheduler) runPass(wg *sync.WaitGroup, name string, out *PassResult, fn func() PassResult) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s pass panicked: %v", name, r)
			sentry.CaptureException(err)
			s.log().WithField("pass", name).Error(err)
			out.Pass = name
			out.Errors = append(out.Errors, err.Error())
		}
	}()
	*out = fn()
}
