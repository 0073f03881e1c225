// Package build describes the running binary: version and VCS details,
// either injected as JSON through -ldflags or read from the module build
// info the Go toolchain embeds.
package build

import (
	"encoding/json"
	"log/slog"
	"runtime/debug"
)

// Info contains build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"` //nolint:tagliatelle
	GitDate   string `json:"git_date"`   //nolint:tagliatelle
	Modified  bool   `json:"modified"`
	GoVersion string `json:"go_version"` //nolint:tagliatelle
}

// Parse deserializes a JSON string into build Info.
// Returns (nil, false) if the input is empty, "{}", or fails to parse.
func Parse(js string) (*Info, bool) {
	if len(js) == 0 || js == "{}" {
		return nil, false
	}

	var info Info

	if err := json.Unmarshal([]byte(js), &info); err != nil {
		slog.Warn("Failed to parse build info from JSON",
			"data", js,
			"error", err)

		return nil, false
	}

	return &info, true
}

// Current returns the injected info when injected parses, and otherwise the
// info embedded by the Go toolchain.
func Current(injected string) Info {
	if info, ok := Parse(injected); ok {
		return *info
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}
	}

	return fromBuildInfo(bi)
}

func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{
		Version:   bi.Main.Version,
		GoVersion: bi.GoVersion,
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.time":
			info.GitDate = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	return info
}

// LogValue lets Info be logged as a group.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("version", i.Version),
		slog.String("git_commit", i.GitCommit),
		slog.String("git_date", i.GitDate),
		slog.Bool("modified", i.Modified),
		slog.String("go_version", i.GoVersion),
	)
}
