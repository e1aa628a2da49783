package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/logging"
)

// Where the STS client takes its signing identity from.
const (
	// CredentialSourceStatic signs with the key pair already read from the file.
	CredentialSourceStatic = "static"
	// CredentialSourceProfile lets the SDK resolve the source profile itself.
	CredentialSourceProfile = "profile"
)

// SessionTokenAPI is the slice of the STS client used here.
type SessionTokenAPI interface {
	GetSessionToken(ctx context.Context, params *sts.GetSessionTokenInput, optFns ...func(*sts.Options)) (*sts.GetSessionTokenOutput, error)
}

var _ SessionTokenAPI = (*sts.Client)(nil)

// ClientOptions configures NewSTSClient.
type ClientOptions struct {
	Region           string
	CredentialSource string
	// SourceProfile and CredentialsFile are only read for CredentialSourceProfile.
	SourceProfile   string
	CredentialsFile string
	// Verbose logs every request and response body through Logger.
	Verbose bool
	Logger  *slog.Logger
}

// NewSTSClient builds a single-attempt STS client signed with the long-term identity.
func NewSTSClient(ctx context.Context, lt *LongTermCredentials, opts ClientOptions) (*sts.Client, error) {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryMaxAttempts(1),
	}

	switch opts.CredentialSource {
	case "", CredentialSourceStatic:
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(lt.AccessKey, lt.SecretKey, ""),
		))
	case CredentialSourceProfile:
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.SourceProfile))
		if opts.CredentialsFile != "" {
			loadOpts = append(loadOpts, config.WithSharedCredentialsFiles([]string{opts.CredentialsFile}))
		}
	default:
		return nil, fmt.Errorf("unknown credential source %q", opts.CredentialSource)
	}

	if opts.Verbose && opts.Logger != nil {
		loadOpts = append(loadOpts,
			config.WithClientLogMode(aws.LogRequest|aws.LogResponseWithBody|aws.LogRetries),
			config.WithLogger(sdkLogger(opts.Logger)),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return sts.NewFromConfig(cfg), nil
}

func sdkLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if classification == logging.Warn {
			l.Warn(msg, "source", "aws-sdk")
			return
		}
		l.Debug(msg, "source", "aws-sdk")
	})
}

// RequestSessionToken exchanges the long-term identity and MFA code for
// session credentials. One attempt, no retry.
func RequestSessionToken(ctx context.Context, api SessionTokenAPI, lt *LongTermCredentials, code string, duration int32) (*SessionCredentials, error) {
	out, err := api.GetSessionToken(ctx, &sts.GetSessionTokenInput{
		DurationSeconds: aws.Int32(duration),
		SerialNumber:    aws.String(lt.MFADevice),
		TokenCode:       aws.String(code),
	})
	if err != nil {
		return nil, remoteError(err)
	}
	if out == nil || out.Credentials == nil {
		return nil, &Error{Kind: KindRemoteCallFailed, Err: errors.New("response contained no credentials")}
	}

	c := out.Credentials
	return &SessionCredentials{
		AccessKey:    aws.ToString(c.AccessKeyId),
		SecretKey:    aws.ToString(c.SecretAccessKey),
		SessionToken: aws.ToString(c.SessionToken),
		Expiration:   aws.ToTime(c.Expiration).UTC().Format(time.RFC3339),
	}, nil
}

// remoteError separates service rejections (bad code, expired keys) from
// transport failures.
func remoteError(err error) *Error {
	e := &Error{Kind: KindRemoteCallFailed, Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
		e.Message = apiErr.ErrorMessage()
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		e.StatusCode = respErr.HTTPStatusCode()
		e.RequestID = respErr.ServiceRequestID()
	}
	return e
}
