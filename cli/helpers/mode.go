package helpers

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// isRunningInCI checks the CI variables set by common providers
func isRunningInCI() bool {
	for _, v := range []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"BUILDKITE",
		"JENKINS_URL",
		"TF_BUILD",
		"CONTINUOUS_INTEGRATION",
	} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShouldUseColor determines if colored output should be used for w
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !IsTerminal(w) {
		return false
	}
	if isRunningInCI() {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}
