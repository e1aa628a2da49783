package cmd

import (
	"fmt"

	"github.com/chukul/mfactl/internal"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var skipCheck bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mfactl version %s\n", internal.CurrentVersion)
			if skipCheck {
				return
			}

			latest, url, err := internal.FetchLatestVersion(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Unable to check for updates: %v\n", err)
				return
			}

			if internal.IsNewer(latest, internal.CurrentVersion) {
				fmt.Fprintf(out, "\n💡 Update available: %s → %s\n", internal.CurrentVersion, latest)
				fmt.Fprintf(out, "   Download: %s\n", url)
			} else {
				fmt.Fprintln(out, "✅ You're running the latest version")
			}
		},
	}

	versionCmd.Flags().BoolVar(&skipCheck, "offline", false, "Skip the update check")
	return versionCmd
}
