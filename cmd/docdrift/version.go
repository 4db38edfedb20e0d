package main

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo is what the binary knows about itself. Values from ldflags win
// over the module and VCS stamps embedded by the Go toolchain.
type buildInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Modified  bool
}

var readBuildInfo = sync.OnceValue(func() buildInfo {
	info := buildInfo{Version: "(devel)", Commit: "unknown", Date: "unknown", GoVersion: "unknown"}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if bi.Main.Version != "" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = shortRevision(s.Value)
			case "vcs.time":
				info.Date = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if version != "" {
		info.Version = version
	}
	if commit != "" {
		info.Commit = commit
	}
	if date != "" {
		info.Date = date
	}
	return info
})

// shortRevision trims a git hash to the 7 characters git prints.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func getVersion() string { return readBuildInfo().Version }
func getCommit() string  { return readBuildInfo().Commit }
func getDate() string    { return readBuildInfo().Date }

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the docdrift version, the commit it was built from, and the Go toolchain used.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := readBuildInfo()
			rev := info.Commit
			if info.Modified {
				rev += " (modified)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docdrift version %s\n", info.Version)
			fmt.Fprintf(out, "  commit: %s\n", rev)
			fmt.Fprintf(out, "  built:  %s\n", info.Date)
			fmt.Fprintf(out, "  go:     %s\n", info.GoVersion)
		},
	}
}
