package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chukul/mfactl/internal"
	"github.com/chukul/mfactl/internal/ui"
	"github.com/spf13/cobra"
)

type sessionStatus struct {
	Profile    string `json:"profile"`
	AccessKey  string `json:"access_key_id"`
	Expiration string `json:"expiration"`
	Remaining  int    `json:"remaining_seconds"`
	Expired    bool   `json:"expired"`
}

func newStatusCmd(o *rootOptions) *cobra.Command {
	var outputJSON bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session stored in the target profile and how long it remains valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := o.resolve(cmd)
			if err != nil {
				return err
			}

			s, err := internal.LoadSessionCredentials(path, settings.TargetProfile)
			if err != nil {
				return err
			}

			now := time.Now()
			exp := s.ExpiresAt()
			remaining := exp.Sub(now)
			status := sessionStatus{
				Profile:    settings.TargetProfile,
				AccessKey:  internal.MaskKey(s.AccessKey),
				Expiration: s.Expiration,
				Remaining:  max(int(remaining.Seconds()), 0),
				Expired:    remaining <= 0,
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				b, _ := json.MarshalIndent(status, "", "  ")
				fmt.Fprintln(out, string(b))
				return nil
			}

			fmt.Fprintln(out, ui.Field("Profile", status.Profile))
			fmt.Fprintln(out, ui.Field("Access key", status.AccessKey))
			if exp.IsZero() {
				fmt.Fprintln(out, ui.Field("Expires", s.Expiration))
			} else {
				fmt.Fprintln(out, ui.Field("Expires", internal.FormatLocal(exp)))
			}
			if status.Expired {
				fmt.Fprintln(out, ui.Field("Status", ui.Warn("EXPIRED")))
				fmt.Fprintln(out, "\n💡 Run mfactl to start a new session")
			} else {
				fmt.Fprintln(out, ui.Field("Status", ui.Success("ACTIVE, "+internal.FormatRemaining(exp, now)+" left")))
			}
			return nil
		},
	}

	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output results in JSON format for automation")
	return statusCmd
}
