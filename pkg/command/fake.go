package command

import (
	"context"
	"strings"
	"sync"
)

// FakeResult is one scripted response for a Fake executor.
type FakeResult struct {
	Stdout string
	Err    error
}

// Fake is a scripted Executor for tests. Responses are matched by command
// line prefix; unmatched invocations return empty stdout. All invocations
// are recorded in order.
type Fake struct {
	mu      sync.Mutex
	scripts map[string]FakeResult
	Calls   []string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{scripts: make(map[string]FakeResult)}
}

// Script registers a response for any command line starting with prefix.
func (f *Fake) Script(prefix string, res FakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[prefix] = res
}

// Run records the invocation and replays the longest matching script.
func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	cmdline := name
	if len(args) > 0 {
		cmdline += " " + strings.Join(args, " ")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, cmdline)

	var best string
	found := false
	for prefix := range f.scripts {
		if strings.HasPrefix(cmdline, prefix) && len(prefix) >= len(best) {
			best = prefix
			found = true
		}
	}
	if !found {
		return "", nil
	}
	res := f.scripts[best]
	return res.Stdout, res.Err
}

// Called reports whether any recorded invocation starts with prefix.
func (f *Fake) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
