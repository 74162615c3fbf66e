//go:build property

package watcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates batching invariants of the debouncer.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: a flushed batch holds each path once, in first-seen order,
	// carrying the last event recorded for that path.
	properties.Property("flush deduplicates by path", prop.ForAll(
		func(pathIDs []int, types []int) bool {
			d := newDebouncer(time.Hour)

			last := make(map[string]EventType)
			var order []string
			for i, id := range pathIDs {
				path := fmt.Sprintf("file%d.tmpl", id)
				typ := EventType(types[i%len(types)])
				if _, seen := last[path]; !seen {
					order = append(order, path)
				}
				last[path] = typ
				d.pending = append(d.pending, ChangeEvent{Type: typ, Path: path})
			}

			d.flush()

			if len(pathIDs) == 0 {
				return len(d.output) == 0
			}

			batch := <-d.output
			if len(batch) != len(order) {
				return false
			}
			for i, e := range batch {
				if e.Path != order[i] || e.Type != last[e.Path] {
					return false
				}
			}
			return len(d.pending) == 0
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.SliceOfN(4, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
