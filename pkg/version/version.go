package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build variables set via ldflags:
// -X 'github.com/focusmcp/focusmcp/pkg/version.Version=v0.3.0'
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("focusmcp %s (commit %s, built %s, %s %s)",
		i.Version, i.CommitHash, i.BuildDate, i.GoVersion, i.Platform)
}

// Semver parses Version; development builds report 0.0.0-dev.
func Semver() *semver.Version {
	v, err := semver.NewVersion(strings.TrimSpace(Version))
	if err != nil {
		return semver.MustParse("0.0.0-dev")
	}
	return v
}
