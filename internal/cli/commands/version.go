package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardkit/internal/cli/output"
)

// BuildInfo identifies a boardkit binary.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display boardkit version and build information.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContextWithoutStore(cmd).Renderer
			if info.GoVersion == "" {
				info.GoVersion = runtime.Version()
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(info)
			}
			r.Println("boardkit v" + info.Version)
			r.Println("Card catalog editor with schema migration and image framing")
			if info.GitCommit != "" && info.GitCommit != "unknown" {
				r.KeyValue("Commit", info.GitCommit)
			}
			if info.BuildDate != "" && info.BuildDate != "unknown" {
				r.KeyValue("Built", info.BuildDate)
			}
			r.KeyValue("Go", info.GoVersion)
			return nil
		},
	}
}
