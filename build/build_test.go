package build

import (
	"log/slog"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	info, ok := Parse(`{
		"version": "v0.3.1",
		"git_commit": "abc123",
		"git_date": "2026-10-05T12:00:00Z",
		"modified": true,
		"go_version": "go1.25.5"
	}`)

	require.True(t, ok)
	assert.Equal(t, &Info{
		Version:   "v0.3.1",
		GitCommit: "abc123",
		GitDate:   "2026-10-05T12:00:00Z",
		Modified:  true,
		GoVersion: "go1.25.5",
	}, info)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	for _, js := range []string{"", "{}", "{not json"} {
		info, ok := Parse(js)

		assert.False(t, ok, js)
		assert.Nil(t, info, js)
	}
}

func TestCurrentPrefersInjected(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v9", Current(`{"version":"v9"}`).Version)
	assert.NotEmpty(t, Current("").GoVersion)
}

func TestFromBuildInfo(t *testing.T) {
	t.Parallel()

	info := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.25.0",
		Main:      debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-01-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "linux"},
		},
	})

	assert.Equal(t, Info{
		Version:   "(devel)",
		GitCommit: "deadbeef",
		GitDate:   "2026-01-01T00:00:00Z",
		Modified:  true,
		GoVersion: "go1.25.0",
	}, info)

	assert.Equal(t, slog.KindGroup, info.LogValue().Kind())
}
