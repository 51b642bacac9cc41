// Package version provides build and version information for the
// datamask library.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
	semVerPartsCount = 3
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string    `json:"version"`
	BuildDate string    `json:"build_date"`
	GitCommit string    `json:"git_commit"`
	GoVersion string    `json:"go_version"`
	BuildTime time.Time `json:"build_time"`
	Dirty     bool      `json:"dirty"`
	Main      Module    `json:"main"`
	Deps      []Module  `json:"deps"`
}

// Module represents a Go module with version information
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Sum     string `json:"sum"`
}

// Info returns detailed build information, filling the module list
// from the runtime build info when available.
func Info() BuildInfo {
	buildTime, _ := time.Parse(time.RFC3339, BuildDate)
	if buildTime.IsZero() {
		buildTime = time.Now()
	}

	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		BuildTime: buildTime,
		Dirty:     strings.Contains(GitCommit, "-dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Main = Module{
			Path:    buildInfo.Main.Path,
			Version: buildInfo.Main.Version,
			Sum:     buildInfo.Main.Sum,
		}
		for _, dep := range buildInfo.Deps {
			info.Deps = append(info.Deps, Module{
				Path:    dep.Path,
				Version: dep.Version,
				Sum:     dep.Sum,
			})
		}
	}

	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("datamask evaluation library\n")
	sb.WriteString("Version: " + b.Version)

	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		sb.WriteString("Build Date: " + b.BuildDate + "\n")
	}

	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		sb.WriteString("Git Commit: " + commit + "\n")
	}

	sb.WriteString("Go Version: " + b.GoVersion + "\n")

	if b.Main.Path != "" {
		sb.WriteString("Module: " + b.Main.Path + "\n")
	}

	return sb.String()
}

// UserAgent returns a user agent string for HTTP requests
func UserAgent() string {
	return "datamask/" + Version
}

// IsRelease returns true if this is a release version (not dev)
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}

// IsPreRelease returns true if this is a pre-release version
func IsPreRelease() bool {
	return strings.Contains(Version, "-alpha") ||
		strings.Contains(Version, "-beta") ||
		strings.Contains(Version, "-rc")
}

// SemVer represents semantic version components
type SemVer struct {
	Major      int
	Minor      int
	Patch      int
	PreRelease string
	Build      string
}

// ParseSemVer parses a semantic version string of the form
// [v]MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]. It covers what build
// tagging needs and is not a strict SemVer implementation.
func ParseSemVer(version string) (*SemVer, error) {
	if version == "" {
		return nil, fmt.Errorf("version string cannot be empty")
	}

	version = strings.TrimPrefix(version, "v")

	var preRelease, build string
	if idx := strings.Index(version, "+"); idx != -1 {
		build = version[idx+1:]
		version = version[:idx]
	}
	if idx := strings.Index(version, "-"); idx != -1 {
		preRelease = version[idx+1:]
		version = version[:idx]
	}

	parts := strings.Split(version, ".")
	if len(parts) != semVerPartsCount {
		return nil, fmt.Errorf("invalid version format: %s", version)
	}

	numbers := make([]int, semVerPartsCount)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version component: %s", part)
		}
		numbers[i] = n
	}

	return &SemVer{
		Major:      numbers[0],
		Minor:      numbers[1],
		Patch:      numbers[2],
		PreRelease: preRelease,
		Build:      build,
	}, nil
}

// String returns the semantic version as a string
func (s *SemVer) String() string {
	version := fmt.Sprintf("%d.%d.%d", s.Major, s.Minor, s.Patch)
	if s.PreRelease != "" {
		version += "-" + s.PreRelease
	}
	if s.Build != "" {
		version += "+" + s.Build
	}
	return version
}

// Compare compares two semantic versions.
// Returns: -1 if s < other, 0 if s == other, 1 if s > other
func (s *SemVer) Compare(other *SemVer) int {
	if s.Major != other.Major {
		return compareInt(s.Major, other.Major)
	}
	if s.Minor != other.Minor {
		return compareInt(s.Minor, other.Minor)
	}
	if s.Patch != other.Patch {
		return compareInt(s.Patch, other.Patch)
	}

	// A release outranks any pre-release of the same triple.
	if s.PreRelease == "" && other.PreRelease != "" {
		return 1
	}
	if s.PreRelease != "" && other.PreRelease == "" {
		return -1
	}

	return strings.Compare(s.PreRelease, other.PreRelease)
}

func compareInt(a, b int) int {
	if a > b {
		return 1
	}
	return -1
}
