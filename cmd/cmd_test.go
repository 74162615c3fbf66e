package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stitch/internal/build"
	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/logging"
)

// setupProject writes files into a temporary directory, makes it the working
// directory and points a fresh viper at it.
func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	t.Chdir(dir)
	t.Setenv("STITCH_CONFIG_FILE", "")

	viper.Reset()
	t.Cleanup(viper.Reset)
	cfgFile = ""
	initConfig()

	return dir
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd, out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.FromSlash(path))
	require.NoError(t, err)
	return string(data)
}

func TestBuildCommand(t *testing.T) {
	setupProject(t, map[string]string{
		ConfigFileName:              "title: Home\n",
		"src/views/index.tmpl":      `<h1>{{ .title }}</h1>{{ include "partials/nav" }}`,
		"src/views/docs/guide.tmpl": `{{ include "content/guide.md" }}`,
		"src/partials/nav.tmpl":     `<nav></nav>`,
		"src/content/guide.md":      "Welcome to {{ this.title }}\n",
	})

	cmd, out := newTestCommand()
	require.NoError(t, runBuild(cmd, nil))

	assert.Equal(t, "<h1>Home</h1><nav></nav>", readFile(t, "dist/index.html"))
	assert.Equal(t, "<p>Welcome to Home</p>\n", readFile(t, "dist/docs/guide.html"))
	assert.Contains(t, out.String(), "Built 2 of 2 views")
}

func TestBuildCommandReportsFailures(t *testing.T) {
	setupProject(t, map[string]string{
		"src/views/good.tmpl": `ok`,
		"src/views/bad.tmpl":  `{{ if }}`,
	})

	cmd, out := newTestCommand()
	require.NoError(t, runBuild(cmd, nil), "a failing view does not fail the build")

	assert.Equal(t, "ok", readFile(t, "dist/good.html"))
	assert.NoFileExists(t, "dist/bad.html")
	assert.Contains(t, out.String(), "Built 1 of 2 views")
	assert.Contains(t, out.String(), "(50.0%")
	assert.Contains(t, out.String(), "1 failure (compile_failure: 1)")
	assert.Contains(t, out.String(), "  compile_failure:\n    ")
	assert.Contains(t, out.String(), "bad.tmpl")
}

func TestBuildCommandClean(t *testing.T) {
	setupProject(t, map[string]string{
		"src/views/index.tmpl": `index`,
		"dist/stale.html":      `old`,
	})

	buildClean = true
	t.Cleanup(func() { buildClean = false })

	cmd, _ := newTestCommand()
	require.NoError(t, runBuild(cmd, nil))

	assert.NoFileExists(t, "dist/stale.html")
	assert.FileExists(t, "dist/index.html")
}

func TestBuildCommandWithoutViews(t *testing.T) {
	setupProject(t, map[string]string{"src/partials/nav.tmpl": `nav`})

	cmd, out := newTestCommand()
	require.NoError(t, runBuild(cmd, nil))
	assert.Contains(t, out.String(), "nothing to build")
	assert.NoDirExists(t, "dist")
}

func TestBuildCommandInvalidConfig(t *testing.T) {
	setupProject(t, map[string]string{
		ConfigFileName:         "extension: html\n",
		"src/views/index.tmpl": `index`,
	})

	cmd, _ := newTestCommand()
	assert.Error(t, runBuild(cmd, nil))
}

func TestBuildCommandStylesheet(t *testing.T) {
	setupProject(t, map[string]string{
		ConfigFileName:         "css:\n  enabled: true\n  entry: styles/site.css\n  output: site.css\n",
		"src/views/index.tmpl": `index`,
		"src/styles/site.css":  "p {\n  margin: 0px;\n}\n",
	})

	cmd, out := newTestCommand()
	require.NoError(t, runBuild(cmd, nil))

	assert.Equal(t, "p{margin:0}", readFile(t, "dist/site.css"))
	assert.Contains(t, out.String(), "Wrote stylesheet")
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	setupProject(t, map[string]string{
		ConfigFileName:         "dist: public\n",
		"src/views/index.tmpl": `index`,
	})
	t.Setenv("STITCH_DIST", "out")

	cmd, _ := newTestCommand()
	require.NoError(t, runBuild(cmd, nil))
	assert.FileExists(t, "out/index.html")
}

func TestCSSCommand(t *testing.T) {
	setupProject(t, map[string]string{
		ConfigFileName:        "css:\n  enabled: true\n  entry: main.css\n",
		"src/main.css":        "a { color: blue; }",
		"src/views/None.tmpl": ``,
	})

	cmd, out := newTestCommand()
	require.NoError(t, runCSS(cmd, nil))
	assert.Equal(t, "a{color:blue}", readFile(t, "dist/css/main.css"))
	assert.NoFileExists(t, "dist/None.html", "the css command does not build views")
	assert.Contains(t, out.String(), "Wrote stylesheet")
}

func TestCSSCommandDisabled(t *testing.T) {
	setupProject(t, nil)

	cmd, out := newTestCommand()
	require.NoError(t, runCSS(cmd, nil))
	assert.Contains(t, out.String(), "disabled")
}

func TestViewsCommand(t *testing.T) {
	setupProject(t, map[string]string{
		"src/views/index.tmpl":     `index`,
		"src/views/blog-post.tmpl": `post`,
		"src/views/nested/x.tmpl":  `x`,
	})

	cmd, out := newTestCommand()
	require.NoError(t, runViews(cmd, nil))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "TITLE")
	assert.Contains(t, string(lines[1]), "Blog Post")
	assert.Contains(t, string(lines[2]), "Index")
}

func TestViewsCommandWithoutViews(t *testing.T) {
	setupProject(t, nil)

	cmd, out := newTestCommand()
	require.NoError(t, runViews(cmd, nil))
	assert.Contains(t, out.String(), "No views directory")
}

func TestPrintViews(t *testing.T) {
	views := []build.View{
		{Name: "about_us", File: "about_us.tmpl", Path: "/s/views/about_us.tmpl", Output: "/d/about_us.html"},
	}

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printViews(&out, "json", views))

		var decoded []map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "About Us", decoded[0]["title"])
		assert.Equal(t, "about_us", decoded[0]["name"])
		assert.Equal(t, "/d/about_us.html", decoded[0]["output"])
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printViews(&out, "yaml", views))

		var decoded []map[string]string
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "About Us", decoded[0]["title"])
		assert.Equal(t, "about_us.tmpl", decoded[0]["file"])
	})

	t.Run("empty table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printViews(&out, "table", nil))
		assert.Equal(t, "No views found.\n", out.String())
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, printViews(io.Discard, "csv", views))
	})
}

func TestViewTitle(t *testing.T) {
	assert.Equal(t, "Index", viewTitle("index"))
	assert.Equal(t, "Blog Post", viewTitle("blog-post"))
	assert.Equal(t, "About Us Page", viewTitle("about_us.page"))
}

func TestConfigInit(t *testing.T) {
	setupProject(t, nil)

	initOutput, initForce, initDev, initCSS = ConfigFileName, false, true, true
	t.Cleanup(func() {
		initOutput, initForce, initDev, initCSS = ConfigFileName, false, false, false
	})

	cmd, out := newTestCommand()
	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, out.String(), "Wrote "+ConfigFileName)

	cfg, err := configSource().Load()
	require.NoError(t, err)
	assert.True(t, cfg.Development)
	assert.True(t, cfg.CSS.Enabled)
	assert.Equal(t, config.DefaultExtension, cfg.Extension)

	info, err := os.Stat(ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	assert.Error(t, runConfigInit(cmd, nil), "an existing file is not overwritten")

	initForce = true
	assert.NoError(t, runConfigInit(cmd, nil))
}

func TestConfigValidateAndShow(t *testing.T) {
	setupProject(t, map[string]string{ConfigFileName: "dist: public\nsite:\n  name: Example\n"})

	cmd, out := newTestCommand()
	require.NoError(t, runConfigValidate(cmd, nil))
	assert.Contains(t, out.String(), "Configuration is valid")
	assert.Contains(t, out.String(), "views directory")

	cmd, out = newTestCommand()
	require.NoError(t, runConfigShow(cmd, nil))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "public", doc["dist"])
	assert.Equal(t, map[string]interface{}{"name": "Example"}, doc["site"])
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	setupProject(t, map[string]string{ConfigFileName: "source: ../outside\n"})

	cmd, _ := newTestCommand()
	assert.Error(t, runConfigValidate(cmd, nil))
}

func TestVersionCommand(t *testing.T) {
	t.Cleanup(func() { versionFormat, versionDetailed = "text", false })

	cmd, out := newTestCommand()
	require.NoError(t, runVersion(cmd, nil))
	assert.Contains(t, out.String(), "stitch ")

	versionDetailed = true
	cmd, out = newTestCommand()
	require.NoError(t, runVersion(cmd, nil))
	assert.Contains(t, out.String(), "Version: ")

	versionFormat = "json"
	cmd, out = newTestCommand()
	require.NoError(t, runVersion(cmd, nil))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "release")

	versionFormat = "xml"
	assert.Error(t, runVersion(cmd, nil))
}

func TestNewSiteWatcherSkipsIgnoredDirectories(t *testing.T) {
	setupProject(t, map[string]string{
		"src/views/index.tmpl":  `index`,
		"dist/index.html":       `index`,
		".git/HEAD":             `ref`,
		"node_modules/x/a.js":   `a`,
		"src/partials/nav.tmpl": `nav`,
	})

	cfg, err := loadConfig()
	require.NoError(t, err)
	paths := cfg.Paths()

	watchDebounce = 10 * time.Millisecond
	t.Cleanup(func() { watchDebounce = 100 * time.Millisecond })

	fw, err := newSiteWatcher(cfg, "", logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Stop() })

	watched := fw.WatchList()
	assert.True(t, slices.Contains(watched, paths.BaseDir))
	assert.True(t, slices.Contains(watched, paths.ViewsRoot))
	assert.True(t, slices.Contains(watched, filepath.Join(paths.SourceRoot, "partials")))
	assert.False(t, slices.Contains(watched, paths.DistRoot))
	assert.False(t, slices.Contains(watched, filepath.Join(paths.BaseDir, ".git")))
	assert.False(t, slices.Contains(watched, filepath.Join(paths.BaseDir, "node_modules")))
}

func TestChoiceFlag(t *testing.T) {
	f := newChoiceFlag("table", "table", "json", "yaml")
	assert.Equal(t, "table", f.String())
	assert.Equal(t, "string", f.Type())

	require.NoError(t, f.Set(" JSON "))
	assert.Equal(t, "json", f.String())

	err := f.Set("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of table, json, yaml")
	assert.Equal(t, "json", f.String())
}
