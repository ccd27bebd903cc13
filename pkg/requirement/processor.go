package requirement

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/device-doctor/pkg/logger"
)

// Reporter receives progress notifications after each requirement
// completes. It is fire-and-forget: the pipeline never waits on it and
// ignores whatever it does.
type Reporter func(title string, outcome Outcome)

// Options control a processor run.
type Options struct {
	// FailFast stops the pipeline immediately after the first unfulfilled
	// requirement is recorded.
	FailFast bool
	Reporter Reporter
}

// Processor runs requirement groups strictly sequentially, in declaration
// order. Checks may have ordering dependencies (SDK root before tool
// versions), so the pipeline deliberately does not parallelize.
type Processor struct{}

// NewProcessor returns a Processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Execute evaluates every group in order and returns the aggregate
// result. Under fail-fast it stops after recording the first failing
// requirement and returns an *AggregateError carrying the partial ledger.
func (p *Processor) Execute(ctx context.Context, groups []Group, opts Options) (*Result, error) {
	result := &Result{}

	for _, group := range groups {
		logger.Info("checking requirement group: %s", group.Title)
		for _, req := range group.Requirements {
			stopped := p.evaluate(ctx, req, result, opts)
			if stopped {
				return nil, &AggregateError{Records: result.Records}
			}
		}
	}

	return result, nil
}

// evaluate runs one requirement and its children, appending ledger
// records in declaration order. It returns true when fail-fast demands
// the pipeline stop.
func (p *Processor) evaluate(ctx context.Context, req Requirement, result *Result, opts Options) bool {
	outcome := p.runCheck(ctx, req)
	result.Records = append(result.Records, Record{Requirement: req, Outcome: outcome})
	p.report(opts.Reporter, req.Title, outcome)

	if outcome.Failed() && opts.FailFast {
		// Children are never evaluated once the parent has failed
		// terminally under fail-fast.
		return true
	}

	for _, child := range req.Children {
		if p.evaluate(ctx, child, result, opts) {
			return true
		}
	}
	return false
}

// runCheck invokes the check, converting a panic into an unfulfilled
// outcome: a broken check must not abort the pipeline.
func (p *Processor) runCheck(ctx context.Context, req Requirement) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("requirement %q check panicked: %v", req.Title, r)
			outcome = Unfulfilled("%v", r)
		}
	}()

	if req.Check == nil {
		// Grouping-only parent.
		return Fulfilled("")
	}

	outcome = req.Check(ctx)
	if outcome.Failed() && outcome.Detail == "" && req.UnfulfilledMessage != "" {
		outcome.Detail = req.UnfulfilledMessage
	}
	return outcome
}

func (p *Processor) report(reporter Reporter, title string, outcome Outcome) {
	if reporter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("progress reporter panicked: %v", r)
		}
	}()
	reporter(title, outcome)
}

// CheckError converts an error-returning probe into a CheckFunc: a nil
// error is fulfilled with the detail, an error is unfulfilled with the
// error text.
func CheckError(probe func(ctx context.Context) (string, error)) CheckFunc {
	return func(ctx context.Context) Outcome {
		detail, err := probe(ctx)
		if err != nil {
			return Unfulfilled("%v", err)
		}
		return Fulfilled("%s", detail)
	}
}

// Describe renders one ledger record for logs and plain output.
func Describe(rec Record) string {
	line := fmt.Sprintf("[%s] %s", rec.Outcome.Status, rec.Requirement.Title)
	if rec.Outcome.Detail != "" {
		line += ": " + rec.Outcome.Detail
	}
	if rec.Outcome.Failed() && rec.Requirement.SupplementalMessage != "" {
		line += " (" + rec.Requirement.SupplementalMessage + ")"
	}
	return line
}
