package build

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
)

func TestDestination(t *testing.T) {
	w := NewWriter(testConfig(), afero.NewMemMapFs(), nil, logging.NewNopLogger())

	tests := []struct {
		name     string
		source   string
		expected string
		wantErr  bool
	}{
		{"top-level view", srcPath("views/home.tmpl"), distPath("home.html"), false},
		{"nested view", srcPath("views/a/b.tmpl"), distPath("a/b.html"), false},
		{"other extension", srcPath("views/page.md"), distPath("page.html"), false},
		{"unclean path", srcPath("views/a/../c.tmpl"), distPath("c.html"), false},
		{"outside views", srcPath("partials/nav.tmpl"), "", true},
		{"views root", srcPath("views"), "", true},
		{"sibling prefix", srcPath("viewsx/a.tmpl"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest, err := w.Destination(tt.source)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, &stitcherrors.StitchError{
					Kind: stitcherrors.KindWriteFailure,
					Code: stitcherrors.ErrCodeOutsideViews,
				}))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dest)
		})
	}
}

func TestWriteCreatesDirectoriesAndOverwrites(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w := NewWriter(testConfig(), fsys, nil, logging.NewNopLogger())

	dest, err := w.Write(context.Background(), srcPath("views/deep/er/page.tmpl"), "<p>one</p>")
	require.NoError(t, err)
	assert.Equal(t, distPath("deep/er/page.html"), dest)

	_, err = w.Write(context.Background(), srcPath("views/deep/er/page.tmpl"), "<p>two</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>two</p>", readDist(t, fsys, "deep/er/page.html"))
}

func TestWriteBeautifies(t *testing.T) {
	fsys := afero.NewMemMapFs()
	cfg := testConfig()
	cfg.Beautify.Enabled = true

	w := NewWriter(cfg, fsys, nil, logging.NewNopLogger())
	_, err := w.Write(context.Background(), srcPath("views/a.tmpl"), "<div><p>Hello <b>world</b></p></div>")
	require.NoError(t, err)

	assert.Equal(t, "<div>\n  <p>\n    Hello <b>world</b>\n  </p>\n</div>\n", readDist(t, fsys, "a.html"))
}

func TestWriteFailure(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	w := NewWriter(testConfig(), fsys, nil, logging.NewNopLogger())

	dest, err := w.Write(context.Background(), srcPath("views/a.tmpl"), "x")
	require.Error(t, err)
	assert.Empty(t, dest)
	assert.True(t, stitcherrors.IsKind(err, stitcherrors.KindWriteFailure))
}

func TestWriteRunsAuditorAfterWrite(t *testing.T) {
	fsys := afero.NewMemMapFs()
	rec := &recordingAuditor{err: errors.New("cannot parse")}
	w := NewWriter(testConfig(), fsys, rec, logging.NewNopLogger())

	dest, err := w.Write(context.Background(), srcPath("views/a.tmpl"), "<p>x</p>")
	require.NoError(t, err, "audit errors never fail the write")
	assert.Equal(t, []string{dest}, rec.paths)
	assert.Equal(t, "<p>x</p>", readDist(t, fsys, "a.html"))
}

func TestWriteSkipsAuditorOnFailure(t *testing.T) {
	rec := &recordingAuditor{}
	w := NewWriter(testConfig(), afero.NewReadOnlyFs(afero.NewMemMapFs()), rec, logging.NewNopLogger())

	_, err := w.Write(context.Background(), srcPath("views/a.tmpl"), "x")
	require.Error(t, err)
	assert.Empty(t, rec.paths)
}
