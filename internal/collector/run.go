package collector

import (
	"context"
	"fmt"
	"log"
)

// StepResult holds the result of a single collection step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// RunResult holds the results of a full collection run.
type RunResult struct {
	Steps []StepResult
}

// RunAll executes news, paper, and economy collection in sequence.
// A failing step is recorded and the run continues; only context
// cancellation stops it early.
func (c *Collector) RunAll(ctx context.Context) *RunResult {
	r := &RunResult{}

	steps := []struct {
		name string
		run  func(context.Context) (*Result, error)
	}{
		{"News", c.CollectNews},
		{"Papers", c.CollectPapers},
		{"Economy", c.CollectEconomy},
	}

	for i, s := range steps {
		log.Printf("Step %d/%d: Collecting %s...", i+1, len(steps), s.name)
		result, err := s.run(ctx)
		step := StepResult{Name: s.name, Err: err}
		if result != nil {
			step.Summary = fmt.Sprintf("Saved %d of %d collected", result.Saved, result.Collected)
		}
		r.Steps = append(r.Steps, step)
		if ctx.Err() != nil {
			return r
		}
	}
	return r
}
