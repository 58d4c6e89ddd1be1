package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo identifies a swmmkit build.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the swmmkit version, commit and build date.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			if short {
				_, _ = fmt.Fprintln(w, info.Version)
				return
			}
			_, _ = fmt.Fprintf(w, "swmmkit v%s\n", info.Version)
			_, _ = fmt.Fprintln(w, "SWMM network tracer and INP/RPT converter")
			if info.Commit != "" && info.Commit != "unknown" {
				_, _ = fmt.Fprintf(w, "commit %s, built %s\n", info.Commit, info.BuildDate)
			}
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
