// Package requirement implements the environment check pipeline: named
// prerequisite checks, optionally decomposed into sub-checks, evaluated
// in declaration order with an aggregated per-requirement ledger.
package requirement

import (
	"context"
	"fmt"
)

// Status tags a check outcome.
type Status int

const (
	// StatusFulfilled means the prerequisite is satisfied.
	StatusFulfilled Status = iota
	// StatusUnfulfilled means the prerequisite is not satisfied; the user
	// can usually fix this.
	StatusUnfulfilled
	// StatusSkipped means the check did not run (e.g. not applicable on
	// this host).
	StatusSkipped
)

// String returns the display name of the status.
func (s Status) String() string {
	switch s {
	case StatusFulfilled:
		return "fulfilled"
	case StatusUnfulfilled:
		return "unfulfilled"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the tagged result of one check.
type Outcome struct {
	Status Status
	Detail string
}

// Fulfilled builds a fulfilled outcome with a positional-formatted detail.
func Fulfilled(format string, args ...interface{}) Outcome {
	return Outcome{Status: StatusFulfilled, Detail: fmt.Sprintf(format, args...)}
}

// Unfulfilled builds an unfulfilled outcome with a positional-formatted
// detail.
func Unfulfilled(format string, args ...interface{}) Outcome {
	return Outcome{Status: StatusUnfulfilled, Detail: fmt.Sprintf(format, args...)}
}

// Skipped builds a skipped outcome carrying the reason.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Detail: reason}
}

// Failed reports whether the outcome counts as a failure. Skipped checks
// do not fail the pipeline.
func (o Outcome) Failed() bool {
	return o.Status == StatusUnfulfilled
}

// CheckFunc performs one check. Checks shell out to slow external tools,
// so they take a context for caller-driven timeouts.
type CheckFunc func(ctx context.Context) Outcome

// Requirement is a single named prerequisite check. A requirement with
// children is fulfilled only when its own check and every child are
// fulfilled. A nil Check is a grouping-only parent and always passes.
type Requirement struct {
	Title string
	Check CheckFunc

	// UnfulfilledMessage replaces an empty unfulfilled detail; it supports
	// positional parameters already resolved by the group builder.
	UnfulfilledMessage string

	// SupplementalMessage is an optional remediation hint shown alongside
	// an unfulfilled outcome.
	SupplementalMessage string

	Children []Requirement
}

// Group is an ordered, immutable set of requirements for one platform.
type Group struct {
	Title        string
	Requirements []Requirement
}

// Record is one ledger entry: the requirement and its outcome, in
// evaluation order.
type Record struct {
	Requirement Requirement
	Outcome     Outcome
}

// Result is the aggregate outcome of a processor run.
type Result struct {
	Records []Record
}

// AllFulfilled reports whether no recorded requirement failed.
func (r *Result) AllFulfilled() bool {
	for _, rec := range r.Records {
		if rec.Outcome.Failed() {
			return false
		}
	}
	return true
}

// Failing returns the failing records in evaluation order.
func (r *Result) Failing() []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Outcome.Failed() {
			out = append(out, rec)
		}
	}
	return out
}

// AggregateError is raised under fail-fast: it carries the full ledger
// recorded up to and including the failing requirement.
type AggregateError struct {
	Records []Record
}

func (e *AggregateError) Error() string {
	failing := 0
	var first string
	for _, rec := range e.Records {
		if rec.Outcome.Failed() {
			if failing == 0 {
				first = rec.Requirement.Title
			}
			failing++
		}
	}
	if failing == 1 {
		return fmt.Sprintf("requirement %q unfulfilled", first)
	}
	return fmt.Sprintf("%d requirements unfulfilled (first: %q)", failing, first)
}
