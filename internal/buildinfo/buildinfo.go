// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/rmadesk/rma-qa/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/rmadesk/rma-qa/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/rmadesk/rma-qa/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the identifier reported to error tracking: the version,
// else the commit, else "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}

// Fields returns the build metadata as log/JSON fields, omitting unset values.
func Fields() map[string]string {
	out := map[string]string{"version": Release()}
	if Commit != "" {
		out["commit"] = Commit
	}
	if BuildDate != "" {
		out["build_date"] = BuildDate
	}
	return out
}
