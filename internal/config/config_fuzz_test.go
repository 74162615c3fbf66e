package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// FuzzLoadConfig feeds arbitrary documents through the viper source. Loading
// may fail, but a configuration it accepts must be valid and resolve to
// paths under the base directory.
func FuzzLoadConfig(f *testing.F) {
	f.Add("source: src\nviews: views\ndist: dist\nextension: .tmpl\n")
	f.Add("source: ../escape\n")
	f.Add("dist: /etc\n")
	f.Add("extension: html\n")
	f.Add("beautify:\n  indent_size: -1\n")
	f.Add("audit:\n  level: AAAA\n")
	f.Add("malformed: yaml: content")
	f.Add("")
	f.Add("site:\n  name: Example\n  tags: [a, b]\n")

	f.Fuzz(func(t *testing.T, content string) {
		path := filepath.Join(t.TempDir(), ".stitch.yml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Skip()
		}

		v := viper.New()
		v.SetConfigFile(path)

		cfg, err := NewViperSource(v).Load()
		if err != nil {
			return
		}

		if err := Validate(cfg); err != nil {
			t.Fatalf("loaded configuration fails validation: %v", err)
		}

		p := cfg.Paths()
		if !strings.HasPrefix(p.SourceRoot, p.BaseDir) {
			t.Fatalf("source root %s escapes base %s", p.SourceRoot, p.BaseDir)
		}
		if !strings.HasPrefix(p.DistRoot, p.BaseDir) {
			t.Fatalf("dist root %s escapes base %s", p.DistRoot, p.BaseDir)
		}
		if p.Extension == "" || p.Extension == ".html" {
			t.Fatalf("unexpected extension %q", p.Extension)
		}
	})
}

// FuzzValidateSubPath checks that accepted sub-paths never leave the base.
func FuzzValidateSubPath(f *testing.F) {
	for _, seed := range []string{"src", "a/b", "../x", "/abs", "a/../../b", ".", "", "a/./b"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, sub string) {
		if validateSubPath(sub) != nil {
			return
		}

		base := filepath.FromSlash("/base")
		joined := filepath.Join(base, sub)
		rel, err := filepath.Rel(base, joined)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			t.Fatalf("accepted %q resolves outside the base: %s", sub, joined)
		}
	})
}
