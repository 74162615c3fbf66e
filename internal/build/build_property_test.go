//go:build property

package build

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/logging"
)

func genSegments() gopter.Gen {
	return gen.IntRange(1, 4).FlatMap(func(n interface{}) gopter.Gen {
		return gen.SliceOfN(n.(int), gen.Identifier())
	}, reflect.TypeOf([]string{}))
}

// TestDestinationProperties checks that views/a/b.ext always maps onto
// dist/a/b.html.
func TestDestinationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	w := NewWriter(testConfig(), afero.NewMemMapFs(), nil, logging.NewNopLogger())

	properties.Property("views prefix and extension are swapped", prop.ForAll(
		func(segments []string) bool {
			rel := filepath.Join(segments...)
			dest, err := w.Destination(srcPath("views/" + filepath.ToSlash(rel) + ".tmpl"))
			if err != nil {
				return false
			}
			return dest == distPath(filepath.ToSlash(rel)+".html")
		},
		genSegments(),
	))

	properties.Property("destinations stay inside dist", prop.ForAll(
		func(segments []string) bool {
			dest, err := w.Destination(srcPath("views/" + strings.Join(segments, "/") + ".md"))
			if err != nil {
				return false
			}
			return within(distPath(""), dest) && filepath.Ext(dest) == OutputExt
		},
		genSegments(),
	))

	properties.TestingRun(t)
}

// TestBuildIdempotenceProperties checks that building unchanged sources twice
// writes identical pages.
func TestBuildIdempotenceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("second build matches the first", prop.ForAll(
		func(body string) bool {
			fsys := newSite(t, map[string]string{"views/page.tmpl": body})
			b := NewBuilder(testConfig(), fsys, logging.NewNopLogger())

			if err := b.Build(context.Background()); err != nil {
				return false
			}
			first, firstErr := afero.ReadFile(fsys, distPath("page.html"))

			if err := b.Build(context.Background()); err != nil {
				return false
			}
			second, secondErr := afero.ReadFile(fsys, distPath("page.html"))

			if firstErr != nil || secondErr != nil {
				return firstErr != nil && secondErr != nil
			}
			return string(first) == string(second)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
