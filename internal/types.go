package internal

import "time"

const (
	// DefaultSourceProfile holds the IAM user's long-term keys and MFA serial.
	DefaultSourceProfile = "default-long-term"
	// DefaultTargetProfile receives the session credentials.
	DefaultTargetProfile = "default"
	// DefaultRegion is the STS region used when none is configured.
	DefaultRegion = "us-west-2"
	// MaxSessionDuration is the longest GetSessionToken allows for an IAM user (36 hours).
	MaxSessionDuration int32 = 129600
)

// Credentials file keys
const (
	KeyAccessKeyID     = "aws_access_key_id"
	KeySecretAccessKey = "aws_secret_access_key"
	KeyMFADevice       = "aws_mfa_device"
	KeySessionToken    = "aws_session_token"
	KeySecurityToken   = "aws_security_token"
	KeyExpiration      = "expiration"
	KeyAssumedRole     = "assumed_role"
)

// LongTermCredentials is the IAM user's access key pair plus the serial of
// the MFA device assigned to that user.
type LongTermCredentials struct {
	AccessKey string
	SecretKey string
	MFADevice string
}

// SessionCredentials is what GetSessionToken hands back.
type SessionCredentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Expiration   string // RFC 3339, UTC
}

// ExpiresAt parses Expiration. A zero time is returned when it is not RFC 3339.
func (s *SessionCredentials) ExpiresAt() time.Time {
	t, err := time.Parse(time.RFC3339, s.Expiration)
	if err != nil {
		return time.Time{}
	}
	return t
}

// MaskKey keeps the first four characters of a key and hides the rest.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****************"
}
