package internal

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type fakeSTS struct {
	input *sts.GetSessionTokenInput
	calls int
	out   *sts.GetSessionTokenOutput
	err   error
}

func (f *fakeSTS) GetSessionToken(ctx context.Context, params *sts.GetSessionTokenInput, optFns ...func(*sts.Options)) (*sts.GetSessionTokenOutput, error) {
	f.calls++
	f.input = params
	return f.out, f.err
}

var testLongTerm = &LongTermCredentials{
	AccessKey: "AKIAEXAMPLE",
	SecretKey: "secret",
	MFADevice: "arn:aws:iam::111111111111:mfa/user",
}

func successOutput() *sts.GetSessionTokenOutput {
	return &sts.GetSessionTokenOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     aws.String("ASIAEXAMPLE"),
			SecretAccessKey: aws.String("secret2"),
			SessionToken:    aws.String("tok"),
			Expiration:      aws.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
}

func TestRequestSessionTokenInput(t *testing.T) {
	api := &fakeSTS{out: successOutput()}

	_, err := RequestSessionToken(context.Background(), api, testLongTerm, "000123", MaxSessionDuration)
	if err != nil {
		t.Fatalf("RequestSessionToken failed: %v", err)
	}

	if api.calls != 1 {
		t.Errorf("Expected exactly one call, got %d", api.calls)
	}
	if got := aws.ToInt32(api.input.DurationSeconds); got != 129600 {
		t.Errorf("DurationSeconds = %d, want 129600", got)
	}
	if got := aws.ToString(api.input.SerialNumber); got != testLongTerm.MFADevice {
		t.Errorf("SerialNumber = %s, want %s", got, testLongTerm.MFADevice)
	}
	if got := aws.ToString(api.input.TokenCode); got != "000123" {
		t.Errorf("TokenCode = %s, want 000123", got)
	}
}

func TestRequestSessionTokenOutput(t *testing.T) {
	api := &fakeSTS{out: successOutput()}

	creds, err := RequestSessionToken(context.Background(), api, testLongTerm, "654321", MaxSessionDuration)
	if err != nil {
		t.Fatalf("RequestSessionToken failed: %v", err)
	}

	want := SessionCredentials{
		AccessKey:    "ASIAEXAMPLE",
		SecretKey:    "secret2",
		SessionToken: "tok",
		Expiration:   "2024-01-01T00:00:00Z",
	}
	if *creds != want {
		t.Errorf("Got %+v, want %+v", creds, want)
	}
}

func TestRequestSessionTokenExpirationIsUTC(t *testing.T) {
	out := successOutput()
	bkk := time.FixedZone("Asia/Bangkok", 7*60*60)
	out.Credentials.Expiration = aws.Time(time.Date(2024, 1, 1, 7, 0, 0, 0, bkk))
	api := &fakeSTS{out: out}

	creds, err := RequestSessionToken(context.Background(), api, testLongTerm, "654321", MaxSessionDuration)
	if err != nil {
		t.Fatal(err)
	}
	if creds.Expiration != "2024-01-01T00:00:00Z" {
		t.Errorf("Expiration = %s, want UTC 2024-01-01T00:00:00Z", creds.Expiration)
	}
}

func TestRequestSessionTokenAPIError(t *testing.T) {
	apiErr := &smithy.OperationError{
		ServiceID:     "STS",
		OperationName: "GetSessionToken",
		Err: &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: 403}},
				Err: &smithy.GenericAPIError{
					Code:    "AccessDenied",
					Message: "MultiFactorAuthentication failed with invalid MFA one time pass code.",
				},
			},
			RequestID: "req-1234",
		},
	}
	api := &fakeSTS{err: apiErr}

	_, err := RequestSessionToken(context.Background(), api, testLongTerm, "654321", MaxSessionDuration)

	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRemoteCallFailed {
		t.Fatalf("Expected RemoteCallFailed, got %v", err)
	}
	if !e.IsAPIError() {
		t.Error("Expected an API error classification")
	}
	if e.Code != "AccessDenied" || e.StatusCode != 403 || e.RequestID != "req-1234" {
		t.Errorf("Unexpected error details: %+v", e)
	}
	if !strings.Contains(e.Error(), "invalid MFA one time pass code") {
		t.Errorf("Error message should carry the service message, got %q", e.Error())
	}
}

func TestRequestSessionTokenTransportError(t *testing.T) {
	cause := errors.New("dial tcp: lookup sts.us-west-2.amazonaws.com: no such host")
	api := &fakeSTS{err: &smithy.OperationError{ServiceID: "STS", OperationName: "GetSessionToken", Err: cause}}

	_, err := RequestSessionToken(context.Background(), api, testLongTerm, "654321", MaxSessionDuration)

	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRemoteCallFailed {
		t.Fatalf("Expected RemoteCallFailed, got %v", err)
	}
	if e.IsAPIError() {
		t.Error("Transport failure must not be classified as an API error")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the transport cause to be wrapped")
	}
}

func TestRequestSessionTokenEmptyResponse(t *testing.T) {
	api := &fakeSTS{out: &sts.GetSessionTokenOutput{}}

	_, err := RequestSessionToken(context.Background(), api, testLongTerm, "654321", MaxSessionDuration)
	if !errors.Is(err, ErrRemoteCallFailed) {
		t.Fatalf("Expected RemoteCallFailed, got %v", err)
	}
}

// Keep the SDK away from the developer's own AWS setup.
func isolateAWSEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestNewSTSClientStatic(t *testing.T) {
	isolateAWSEnv(t)
	ctx := context.Background()

	client, err := NewSTSClient(ctx, testLongTerm, ClientOptions{})
	if err != nil {
		t.Fatalf("NewSTSClient failed: %v", err)
	}

	opts := client.Options()
	if opts.Region != DefaultRegion {
		t.Errorf("Region = %s, want %s", opts.Region, DefaultRegion)
	}
	if opts.RetryMaxAttempts != 1 {
		t.Errorf("RetryMaxAttempts = %d, want 1", opts.RetryMaxAttempts)
	}

	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if creds.AccessKeyID != "AKIAEXAMPLE" || creds.SecretAccessKey != "secret" || creds.SessionToken != "" {
		t.Errorf("Unexpected signing identity: %+v", creds)
	}
}

func TestNewSTSClientProfile(t *testing.T) {
	isolateAWSEnv(t)
	ctx := context.Background()
	path := writeCredentialsFile(t, longTermFixture)

	client, err := NewSTSClient(ctx, testLongTerm, ClientOptions{
		Region:           "eu-central-1",
		CredentialSource: CredentialSourceProfile,
		SourceProfile:    DefaultSourceProfile,
		CredentialsFile:  path,
	})
	if err != nil {
		t.Fatalf("NewSTSClient failed: %v", err)
	}

	opts := client.Options()
	if opts.Region != "eu-central-1" {
		t.Errorf("Region = %s, want eu-central-1", opts.Region)
	}
	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if creds.AccessKeyID != "AKIAEXAMPLE" {
		t.Errorf("AccessKeyID = %s, want AKIAEXAMPLE", creds.AccessKeyID)
	}
}

func TestNewSTSClientUnknownSource(t *testing.T) {
	isolateAWSEnv(t)

	_, err := NewSTSClient(context.Background(), testLongTerm, ClientOptions{CredentialSource: "vault"})
	if err == nil {
		t.Fatal("Expected an error for an unknown credential source")
	}
}
