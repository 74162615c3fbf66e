package build

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/config"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
)

// View is a top-level file in the views directory.
type View struct {
	// Name is the file name without its extension.
	Name string `json:"name" yaml:"name"`
	// File is the file name as listed, extension included.
	File   string `json:"file" yaml:"file"`
	Path   string `json:"path" yaml:"path"`
	Output string `json:"output" yaml:"output"`
}

// ListViews returns the top-level views in listing order. Nested views are
// reached by walking, not listed here.
func ListViews(fsys afero.Fs, paths config.Paths) ([]View, error) {
	entries, err := afero.ReadDir(fsys, paths.ViewsRoot)
	if err != nil {
		return nil, stitcherrors.NewConfigurationMissingError(paths.ViewsRoot)
	}

	views := make([]View, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != paths.Extension {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), paths.Extension)
		views = append(views, View{
			Name:   name,
			File:   entry.Name(),
			Path:   filepath.Join(paths.ViewsRoot, entry.Name()),
			Output: filepath.Join(paths.DistRoot, name+OutputExt),
		})
	}

	return views, nil
}

// ViewFiles returns the file names of views, in order.
func ViewFiles(views []View) []string {
	files := make([]string, len(views))
	for i, v := range views {
		files[i] = v.File
	}
	return files
}
