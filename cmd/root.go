package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/chukul/mfactl/internal"
	"github.com/chukul/mfactl/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootOptions struct {
	credentialsFile  string
	settingsFile     string
	sourceProfile    string
	targetProfile    string
	duration         int32
	region           string
	credentialSource string
	noBackup         bool
	noMask           bool
	tui              bool
	verbose          bool
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mfactl",
		Short: "Refresh AWS session credentials with MFA",
		Long: `mfactl exchanges the long-term access keys stored in your AWS credentials file
for a 36 hour session token, using a one-time code from your MFA device, and writes
the session credentials back to the file for the AWS CLI and SDKs to pick up.`,
		Example: `  # Refresh [default] from [default-long-term]
  mfactl

  # Use other profile names and a 12 hour session
  mfactl --source work-long-term --profile work --duration 43200`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := o.resolve(cmd)
			if err != nil {
				return err
			}

			r := &refreshRun{
				settings:        settings,
				credentialsPath: path,
				in:              cmd.InOrStdin(),
				out:             cmd.OutOrStdout(),
				mask:            !o.noMask,
				tui:             o.tui,
				verbose:         o.verbose,
				spinner:         isTerminal(cmd.ErrOrStderr()),
				logger:          newLogger(cmd.ErrOrStderr(), o.verbose),
			}
			_, err = r.run(cmd.Context())
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.credentialsFile, "credentials-file", "", "AWS credentials file (default $AWS_SHARED_CREDENTIALS_FILE or ~/.aws/credentials)")
	pf.StringVar(&o.settingsFile, "config", "", "Settings file (default ~/.aws/"+internal.SettingsFileName+")")
	pf.StringVar(&o.targetProfile, "profile", internal.DefaultTargetProfile, "Profile that receives the session credentials")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Log AWS requests and responses, including error bodies")

	f := rootCmd.Flags()
	f.StringVar(&o.sourceProfile, "source", internal.DefaultSourceProfile, "Profile holding the long-term keys and aws_mfa_device")
	f.Int32Var(&o.duration, "duration", internal.MaxSessionDuration, "Session duration in seconds (900-129600)")
	f.StringVar(&o.region, "region", internal.DefaultRegion, "STS region")
	f.StringVar(&o.credentialSource, "credential-source", internal.CredentialSourceStatic, "Sign with the keys read from the file (static) or let the SDK resolve the source profile (profile)")
	f.BoolVar(&o.noBackup, "no-backup", false, "Do not keep a .bak copy of the previous credentials file")
	f.BoolVar(&o.noMask, "no-mask", false, "Echo the MFA code while typing")
	f.BoolVar(&o.tui, "tui", false, "Use the interactive MFA code prompt")

	rootCmd.AddCommand(newStatusCmd(o))
	rootCmd.AddCommand(newExportCmd(o))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// resolve layers built-in defaults, the settings file, and explicitly set
// flags, in that order.
func (o *rootOptions) resolve(cmd *cobra.Command) (*internal.Settings, string, error) {
	settingsPath := o.settingsFile
	required := settingsPath != ""
	if settingsPath == "" {
		dir, err := internal.AWSDir()
		if err != nil {
			return nil, "", err
		}
		settingsPath = filepath.Join(dir, internal.SettingsFileName)
	}

	s, err := internal.LoadSettings(settingsPath, required)
	if err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		s.SourceProfile = o.sourceProfile
	}
	if flags.Changed("profile") {
		s.TargetProfile = o.targetProfile
	}
	if flags.Changed("duration") {
		s.DurationSeconds = o.duration
	}
	if flags.Changed("region") {
		s.Region = o.region
	}
	if flags.Changed("credential-source") {
		s.CredentialSource = o.credentialSource
	}
	if flags.Changed("no-backup") {
		s.Backup = !o.noBackup
	}

	if err := s.Validate(); err != nil {
		return nil, "", err
	}

	path, err := internal.CredentialsPath(o.credentialsFile)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		for _, line := range hints(err) {
			fmt.Fprintln(os.Stderr, line)
		}
		os.Exit(1)
	}
}

// hints suggests the usual fix for each failure kind.
func hints(err error) []string {
	switch internal.KindOf(err) {
	case internal.KindConfigNotFound:
		return []string{
			ui.Warn("\n💡 Create it with your IAM user's keys:"),
			"   aws configure --profile " + internal.DefaultSourceProfile,
			"   aws configure set aws_mfa_device <mfa-arn> --profile " + internal.DefaultSourceProfile,
		}
	case internal.KindConfigInvalid:
		return []string{
			ui.Warn("\n💡 Every line inside a section must be key = value, or a # comment."),
			"   Fix the line named above, or restore the .bak copy next to the file",
		}
	case internal.KindProfileNotFound:
		return []string{
			ui.Warn("\n💡 Pick the profile holding your long-term keys with --source,"),
			"   or add it with: aws configure --profile " + internal.DefaultSourceProfile,
		}
	case internal.KindMissingField:
		return []string{
			ui.Warn("\n💡 The long-term profile needs aws_access_key_id, aws_secret_access_key and aws_mfa_device."),
			"   MFA ARN format: arn:aws:iam::<account-id>:mfa/<username>",
		}
	case internal.KindInvalidMFAFormat:
		return []string{ui.Warn("\n💡 Enter the digits shown by your MFA device, then run mfactl again.")}
	case internal.KindRemoteCallFailed:
		return []string{
			ui.Warn("\n💡 Common issues:"),
			"   • Check your MFA code is current (not expired)",
			"   • Verify the aws_mfa_device ARN is correct",
			"   • Ensure device time is synchronized",
			"   • Run with --verbose to print the raw STS response",
		}
	}
	return nil
}
