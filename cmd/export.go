package cmd

import (
	"fmt"
	"strings"

	"github.com/chukul/mfactl/internal"
	"github.com/spf13/cobra"
)

func newExportCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the stored session as shell export statements",
		Example: `  eval "$(mfactl export)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := o.resolve(cmd)
			if err != nil {
				return err
			}

			s, err := internal.LoadSessionCredentials(path, settings.TargetProfile)
			if err != nil {
				return err
			}

			// Output shell-compatible export commands
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export AWS_ACCESS_KEY_ID=%s\n", shellQuote(s.AccessKey))
			fmt.Fprintf(out, "export AWS_SECRET_ACCESS_KEY=%s\n", shellQuote(s.SecretKey))
			fmt.Fprintf(out, "export AWS_SESSION_TOKEN=%s\n", shellQuote(s.SessionToken))
			fmt.Fprintf(out, "export AWS_SECURITY_TOKEN=%s\n", shellQuote(s.SessionToken))
			return nil
		},
	}
}

// shellQuote wraps v in single quotes for POSIX shells; embedded quotes
// become '\''.
func shellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
