package version

import (
	"fmt"
	"io"
	"runtime"
)

// Set at build time via -ldflags "-X github.com/go-authgate/screenpair/internal/version.Version=..."
var (
	App       = "screenpair"
	Version   string
	GitCommit string
	BuildTime string
)

// String returns the application name and version
func String() string {
	return fmt.Sprintf("%s %s", App, getVersion())
}

// Fprint writes build details to w
func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", App, getVersion())
	if GitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", getShortCommit())
	}
	if BuildTime != "" {
		fmt.Fprintf(w, "Build time: %s\n", BuildTime)
	}
	fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "Built for: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func getShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

func getVersion() string {
	if Version != "" {
		return Version
	}
	return "dev"
}
