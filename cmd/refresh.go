package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chukul/mfactl/internal"
	"github.com/chukul/mfactl/internal/ui"
)

// newSTSClient is replaced in tests.
var newSTSClient = func(ctx context.Context, lt *internal.LongTermCredentials, opts internal.ClientOptions) (internal.SessionTokenAPI, error) {
	return internal.NewSTSClient(ctx, lt, opts)
}

// refreshRun is one pass of read, prompt, request, write.
type refreshRun struct {
	settings        *internal.Settings
	credentialsPath string
	in              io.Reader
	out             io.Writer
	mask            bool
	tui             bool
	verbose         bool
	spinner         bool
	logger          *slog.Logger
}

func (r *refreshRun) run(ctx context.Context) (*internal.SessionCredentials, error) {
	s := r.settings

	lt, err := internal.LoadLongTermCredentials(r.credentialsPath, s.SourceProfile)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded long-term credentials", "path", r.credentialsPath, "profile", s.SourceProfile)
	fmt.Fprintf(r.out, "🔐 Loaded long-term credentials from [%s] (%s)\n", s.SourceProfile, internal.MaskKey(lt.AccessKey))

	code, err := r.readCode(lt.MFADevice)
	if err != nil {
		return nil, err
	}

	client, err := newSTSClient(ctx, lt, internal.ClientOptions{
		Region:           s.Region,
		CredentialSource: s.CredentialSource,
		SourceProfile:    s.SourceProfile,
		CredentialsFile:  r.credentialsPath,
		Verbose:          r.verbose,
		Logger:           r.logger,
	})
	if err != nil {
		return nil, &internal.Error{Kind: internal.KindRemoteCallFailed, Err: err}
	}

	request := func() (*internal.SessionCredentials, error) {
		return internal.RequestSessionToken(ctx, client, lt, code, s.DurationSeconds)
	}

	var session *internal.SessionCredentials
	if r.spinner {
		session, err = ui.Spin("Requesting session token from STS...", request)
	} else {
		fmt.Fprintln(r.out, "⏳ Requesting session token from STS...")
		session, err = request()
	}
	if err != nil {
		if !r.verbose && internal.KindOf(err) == internal.KindRemoteCallFailed {
			return nil, fmt.Errorf("%w (run with --verbose to print the raw response body)", err)
		}
		return nil, err
	}
	r.logger.Debug("received session credentials", "expiration", session.Expiration)

	err = internal.WriteSessionCredentials(r.credentialsPath, s.TargetProfile, session, internal.WriteOptions{Backup: s.Backup})
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(r.out, ui.Success(fmt.Sprintf("Session credentials written to [%s]", s.TargetProfile)))
	fmt.Fprintln(r.out, ui.Field("File", r.credentialsPath))
	fmt.Fprintln(r.out, ui.Field("Access key", internal.MaskKey(session.AccessKey)))
	fmt.Fprintln(r.out, ui.Field("MFA device", lt.MFADevice))
	if exp := session.ExpiresAt(); !exp.IsZero() {
		fmt.Fprintln(r.out, ui.Field("Expires", fmt.Sprintf("%s (%s remaining)",
			internal.FormatLocal(exp), internal.FormatRemaining(exp, time.Now()))))
	} else {
		fmt.Fprintln(r.out, ui.Field("Expires", session.Expiration))
	}

	return session, nil
}

func (r *refreshRun) readCode(device string) (string, error) {
	if !r.tui {
		p := &internal.Prompter{In: r.in, Out: r.out, Mask: r.mask}
		return p.ReadToken(device)
	}

	code, err := ui.GetInput(internal.PromptText(device), "123456", r.mask)
	if err != nil {
		return "", &internal.Error{Kind: internal.KindInvalidMFAFormat, Err: err}
	}
	code = strings.TrimSpace(code)
	if err := internal.ValidateMFACode(code); err != nil {
		return "", err
	}
	return code, nil
}
