package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Failure is one per-file error recorded during a build.
type Failure struct {
	File      string
	Kind      Kind
	Err       error
	Timestamp time.Time
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.File, f.Err)
}

// Unwrap returns the recorded error.
func (f Failure) Unwrap() error {
	return f.Err
}

// Collector gathers per-file failures so a walk can carry on past them and
// report them at the end.
type Collector struct {
	failures []Failure
	mutex    sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{failures: make([]Failure, 0)}
}

// Add records err against file. Nil errors are ignored.
func (c *Collector) Add(file string, err error) {
	if err == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.failures = append(c.failures, Failure{
		File:      file,
		Kind:      KindOf(err),
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Failures returns a copy of the recorded failures in the order they were
// added.
func (c *Collector) Failures() []Failure {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]Failure, len(c.failures))
	copy(result, c.failures)
	return result
}

// HasErrors reports whether anything was recorded.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.failures) > 0
}

// Len returns the number of recorded failures.
func (c *Collector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.failures)
}

// ByKind returns the failures of kind k.
func (c *Collector) ByKind(k Kind) []Failure {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var out []Failure
	for _, f := range c.failures {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// Err joins every failure into one error, or returns nil when there are none.
func (c *Collector) Err() error {
	failures := c.Failures()
	if len(failures) == 0 {
		return nil
	}

	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Kinds returns the distinct kinds recorded, sorted by name. Errors with no
// kind are reported as "".
func (c *Collector) Kinds() []Kind {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	seen := make(map[Kind]bool)
	kinds := make([]Kind, 0)
	for _, f := range c.failures {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, f.Kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// KindName is the label used for k in reports.
func KindName(k Kind) string {
	if k == "" {
		return "other"
	}
	return string(k)
}

// Summary describes the failures grouped by kind, e.g.
// "2 failures (compile_failure: 1, write_failure: 1)".
func (c *Collector) Summary() string {
	n := c.Len()
	if n == 0 {
		return "no failures"
	}

	kinds := c.Kinds()
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s: %d", KindName(k), len(c.ByKind(k)))
	}

	noun := "failures"
	if n == 1 {
		noun = "failure"
	}
	return fmt.Sprintf("%d %s (%s)", n, noun, strings.Join(parts, ", "))
}
