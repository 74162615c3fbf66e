package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{"release with commit", Info{Version: "v1.2.0", GitCommit: "abcdef0123"}, "v1.2.0 (abcdef0)"},
		{"dev build", Info{Version: "dev-abcdef0", GitCommit: "abcdef0123"}, "dev-abcdef0"},
		{"unknown commit", Info{Version: "v1.2.0", GitCommit: "unknown"}, "v1.2.0"},
		{"short commit", Info{Version: "dev", GitCommit: "abc"}, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.Short())
		})
	}
}

func TestIsRelease(t *testing.T) {
	assert.True(t, Info{Version: "v0.3.1"}.IsRelease())
	assert.False(t, Info{Version: "dev"}.IsRelease())
	assert.False(t, Info{Version: "dev-abcdef0"}.IsRelease())
}

func TestDetailed(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abcdef0123",
		BuildTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
		Dirty:     true,
	}

	assert.Equal(t, "Version: v1.0.0\n"+
		"Commit: abcdef0123\n"+
		"Built: 2026-01-02T03:04:05Z\n"+
		"Go: go1.24.4\n"+
		"Platform: linux/amd64\n"+
		"Working directory: dirty", info.Detailed())

	minimal := Info{Version: "dev", GitCommit: "unknown", GoVersion: "go1.24.4", Platform: "linux/amd64"}
	assert.Equal(t, "Version: dev\nGo: go1.24.4\nPlatform: linux/amd64", minimal.Detailed())
}

func TestParseTime(t *testing.T) {
	expected := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, expected, parseTime("2026-03-04T05:06:07Z"))
	assert.Equal(t, expected, parseTime("2026-03-04T05:06:07"))
	assert.Equal(t, expected, parseTime("2026-03-04 05:06:07"))
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
}

func TestGet(t *testing.T) {
	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
