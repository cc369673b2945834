package collect

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/groupguard/modbot/internal/model"
)

// Runner fans collectors out concurrently and joins their results. The
// signal set is a registry, not a fixed list, so deployments can add or
// drop collectors without touching the pipeline.
type Runner struct {
	collectors []Collector
	timeout    time.Duration
}

// NewRunner creates a runner with a per-collector timeout.
func NewRunner(timeout time.Duration, collectors ...Collector) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Runner{collectors: collectors, timeout: timeout}
}

// Run executes every collector concurrently and returns a result per
// signal name. A collector that exceeds its timeout yields FAILED for its
// own signal only; total added latency is bounded by the slowest single
// collector, not their sum.
func (r *Runner) Run(ctx context.Context, target Target) map[string]model.ContextResult {
	results := make([]model.ContextResult, len(r.collectors))

	var g errgroup.Group
	for i, c := range r.collectors {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			done := make(chan model.ContextResult, 1)
			go func() {
				done <- c.Collect(cctx, target)
			}()

			select {
			case res := <-done:
				results[i] = res
			case <-cctx.Done():
				results[i] = model.Failed("collector timed out")
			}

			zap.L().Debug("context signal collected",
				zap.String("signal", c.Name()),
				zap.String("status", string(results[i].Status)),
				zap.Int64("user_id", target.Sender.UserID),
			)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]model.ContextResult, len(r.collectors))
	for i, c := range r.collectors {
		out[c.Name()] = results[i]
	}
	return out
}
