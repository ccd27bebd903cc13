package requirement

import (
	"context"
	"errors"
	"testing"
)

func pass(title string) Requirement {
	return Requirement{
		Title: title,
		Check: func(context.Context) Outcome { return Fulfilled("ok") },
	}
}

func fail(title string) Requirement {
	return Requirement{
		Title: title,
		Check: func(context.Context) Outcome { return Unfulfilled("broken") },
	}
}

func titles(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Requirement.Title)
	}
	return out
}

func sameTitles(got []Record, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, r := range got {
		if r.Requirement.Title != want[i] {
			return false
		}
	}
	return true
}

func TestExecute_AllPass(t *testing.T) {
	groups := []Group{{
		Title:        "android",
		Requirements: []Requirement{pass("A"), pass("B")},
	}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !result.AllFulfilled() {
		t.Error("AllFulfilled() should be true")
	}
	if !sameTitles(result.Records, []string{"A", "B"}) {
		t.Errorf("ledger = %v, want [A B]", titles(result.Records))
	}
}

func TestExecute_FailureWithoutFailFast(t *testing.T) {
	groups := []Group{{
		Title:        "android",
		Requirements: []Requirement{pass("A"), fail("B"), pass("C")},
	}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("Execute() without fail-fast must not error: %v", err)
	}
	if result.AllFulfilled() {
		t.Error("AllFulfilled() should be false")
	}
	if !sameTitles(result.Records, []string{"A", "B", "C"}) {
		t.Errorf("ledger = %v, want [A B C]", titles(result.Records))
	}

	failing := result.Failing()
	if len(failing) != 1 || failing[0].Requirement.Title != "B" {
		t.Errorf("Failing() = %v, want [B]", titles(failing))
	}
}

func TestExecute_FailFastStopsAfterFailure(t *testing.T) {
	groups := []Group{{
		Title:        "android",
		Requirements: []Requirement{pass("A"), fail("B"), pass("C")},
	}}

	_, err := NewProcessor().Execute(context.Background(), groups, Options{FailFast: true})
	if err == nil {
		t.Fatal("Execute() with fail-fast should raise an aggregate error")
	}

	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected *AggregateError, got %T: %v", err, err)
	}
	if !sameTitles(agg.Records, []string{"A", "B"}) {
		t.Errorf("aggregate ledger = %v, want exactly [A B]", titles(agg.Records))
	}
}

func TestExecute_ParentFailureChildren(t *testing.T) {
	childRan := 0
	child := Requirement{
		Title: "child",
		Check: func(context.Context) Outcome {
			childRan++
			return Fulfilled("ok")
		},
	}
	parent := Requirement{
		Title:    "parent",
		Check:    func(context.Context) Outcome { return Unfulfilled("parent broken") },
		Children: []Requirement{child, child},
	}
	groups := []Group{{Title: "g", Requirements: []Requirement{parent}}}

	// Non-fail-fast: children are evaluated and reported.
	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if childRan != 2 {
		t.Errorf("children ran %d times, want 2", childRan)
	}
	if len(result.Records) != 3 {
		t.Errorf("ledger has %d records, want 3 (parent + 2 children)", len(result.Records))
	}

	// Fail-fast: children are never evaluated after the parent fails.
	childRan = 0
	_, err = NewProcessor().Execute(context.Background(), groups, Options{FailFast: true})
	if err == nil {
		t.Fatal("fail-fast run should error")
	}
	if childRan != 0 {
		t.Errorf("children ran %d times under fail-fast, want 0", childRan)
	}
}

func TestExecute_ParentPassChildFail(t *testing.T) {
	parent := Requirement{
		Title:    "parent",
		Check:    func(context.Context) Outcome { return Fulfilled("ok") },
		Children: []Requirement{fail("child-1"), pass("child-2")},
	}
	groups := []Group{{Title: "g", Requirements: []Requirement{parent}}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.AllFulfilled() {
		t.Error("a failing child must fail the aggregate")
	}
}

func TestExecute_GroupingParentWithNilCheck(t *testing.T) {
	parent := Requirement{
		Title:    "toolchain",
		Children: []Requirement{pass("child")},
	}
	groups := []Group{{Title: "g", Requirements: []Requirement{parent}}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !result.AllFulfilled() {
		t.Error("nil-check parent should pass when children pass")
	}
}

func TestExecute_PanickingCheckIsUnfulfilled(t *testing.T) {
	boom := Requirement{
		Title: "boom",
		Check: func(context.Context) Outcome { panic("tool exploded") },
	}
	groups := []Group{{Title: "g", Requirements: []Requirement{boom, pass("after")}}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("a panicking check must not abort the pipeline: %v", err)
	}
	if !sameTitles(result.Records, []string{"boom", "after"}) {
		t.Errorf("ledger = %v, want [boom after]", titles(result.Records))
	}
	if result.Records[0].Outcome.Status != StatusUnfulfilled {
		t.Errorf("panicking check status = %v, want unfulfilled", result.Records[0].Outcome.Status)
	}
	if result.Records[0].Outcome.Detail != "tool exploded" {
		t.Errorf("detail = %q, want panic message", result.Records[0].Outcome.Detail)
	}
}

func TestExecute_ReporterReceivesEveryOutcome(t *testing.T) {
	var reported []string
	reporter := func(title string, outcome Outcome) {
		reported = append(reported, title+"/"+outcome.Status.String())
	}

	groups := []Group{{Title: "g", Requirements: []Requirement{pass("A"), fail("B")}}}
	_, err := NewProcessor().Execute(context.Background(), groups, Options{Reporter: reporter})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{"A/fulfilled", "B/unfulfilled"}
	if len(reported) != len(want) {
		t.Fatalf("reporter called %d times, want %d", len(reported), len(want))
	}
	for i := range want {
		if reported[i] != want[i] {
			t.Errorf("reported[%d] = %q, want %q", i, reported[i], want[i])
		}
	}
}

func TestExecute_PanickingReporterIsIgnored(t *testing.T) {
	reporter := func(string, Outcome) { panic("presentation bug") }
	groups := []Group{{Title: "g", Requirements: []Requirement{pass("A")}}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{Reporter: reporter})
	if err != nil {
		t.Fatalf("reporter failures must not affect the pipeline: %v", err)
	}
	if !result.AllFulfilled() {
		t.Error("run should succeed despite reporter panic")
	}
}

func TestExecute_SkippedDoesNotFail(t *testing.T) {
	skip := Requirement{
		Title: "not applicable",
		Check: func(context.Context) Outcome { return Skipped("iOS checks need macOS") },
	}
	groups := []Group{{Title: "g", Requirements: []Requirement{skip}}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{FailFast: true})
	if err != nil {
		t.Fatalf("skipped checks must not trigger fail-fast: %v", err)
	}
	if !result.AllFulfilled() {
		t.Error("skipped checks must not fail the aggregate")
	}
}

func TestExecute_UnfulfilledMessageFallback(t *testing.T) {
	req := Requirement{
		Title:              "sdk root",
		Check:              func(context.Context) Outcome { return Outcome{Status: StatusUnfulfilled} },
		UnfulfilledMessage: "ANDROID_HOME is not set",
	}
	groups := []Group{{Title: "g", Requirements: []Requirement{req}}}

	result, err := NewProcessor().Execute(context.Background(), groups, Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.Records[0].Outcome.Detail != "ANDROID_HOME is not set" {
		t.Errorf("detail = %q, want fallback message", result.Records[0].Outcome.Detail)
	}
}

func TestCheckError(t *testing.T) {
	ok := CheckError(func(context.Context) (string, error) { return "version 1.2", nil })
	outcome := ok(context.Background())
	if outcome.Status != StatusFulfilled || outcome.Detail != "version 1.2" {
		t.Errorf("outcome = %+v, want fulfilled with detail", outcome)
	}

	bad := CheckError(func(context.Context) (string, error) { return "", errors.New("adb not found") })
	outcome = bad(context.Background())
	if outcome.Status != StatusUnfulfilled || outcome.Detail != "adb not found" {
		t.Errorf("outcome = %+v, want unfulfilled with error text", outcome)
	}
}

func TestAggregateError_Message(t *testing.T) {
	agg := &AggregateError{Records: []Record{
		{Requirement: Requirement{Title: "A"}, Outcome: Fulfilled("ok")},
		{Requirement: Requirement{Title: "B"}, Outcome: Unfulfilled("broken")},
	}}
	if agg.Error() != `requirement "B" unfulfilled` {
		t.Errorf("Error() = %q", agg.Error())
	}

	agg.Records = append(agg.Records, Record{Requirement: Requirement{Title: "C"}, Outcome: Unfulfilled("also broken")})
	if agg.Error() != `2 requirements unfulfilled (first: "B")` {
		t.Errorf("Error() = %q", agg.Error())
	}
}

func TestDescribe(t *testing.T) {
	rec := Record{
		Requirement: Requirement{Title: "adb", SupplementalMessage: "install platform-tools"},
		Outcome:     Unfulfilled("not found in PATH"),
	}
	got := Describe(rec)
	want := "[unfulfilled] adb: not found in PATH (install platform-tools)"
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}
