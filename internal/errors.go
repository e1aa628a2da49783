package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a refresh failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfigNotFound
	KindConfigInvalid
	KindProfileNotFound
	KindMissingField
	KindInvalidMFAFormat
	KindRemoteCallFailed
	KindWriteFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfigNotFound:
		return "ConfigNotFound"
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindProfileNotFound:
		return "ProfileNotFound"
	case KindMissingField:
		return "MissingField"
	case KindInvalidMFAFormat:
		return "InvalidMfaFormat"
	case KindRemoteCallFailed:
		return "RemoteCallFailed"
	case KindWriteFailed:
		return "WriteFailed"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrConfigNotFound   = &Error{Kind: KindConfigNotFound}
	ErrConfigInvalid    = &Error{Kind: KindConfigInvalid}
	ErrProfileNotFound  = &Error{Kind: KindProfileNotFound}
	ErrMissingField     = &Error{Kind: KindMissingField}
	ErrInvalidMFAFormat = &Error{Kind: KindInvalidMFAFormat}
	ErrRemoteCallFailed = &Error{Kind: KindRemoteCallFailed}
	ErrWriteFailed      = &Error{Kind: KindWriteFailed}
)

// Error carries enough context to diagnose a failure without a debugger:
// which file, which section, which key, or what the remote side said.
type Error struct {
	Kind    ErrorKind
	Path    string
	Profile string
	Field   string
	Input   string

	// Remote API failures
	Code       string
	Message    string
	StatusCode int
	RequestID  string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConfigNotFound:
		return fmt.Sprintf("credentials file %s not found", e.Path)
	case KindConfigInvalid:
		return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
	case KindProfileNotFound:
		return fmt.Sprintf("profile [%s] not found in %s", e.Profile, e.Path)
	case KindMissingField:
		return fmt.Sprintf("%s is missing from profile [%s] in %s", e.Field, e.Profile, e.Path)
	case KindInvalidMFAFormat:
		if e.Err != nil {
			return fmt.Sprintf("failed to read MFA code: %v", e.Err)
		}
		return fmt.Sprintf("invalid MFA code %q: expected digits only", e.Input)
	case KindRemoteCallFailed:
		return e.remoteError()
	case KindWriteFailed:
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "unknown error"
	}
}

func (e *Error) remoteError() string {
	var b strings.Builder
	b.WriteString("get session token failed: ")
	if e.Code == "" {
		fmt.Fprintf(&b, "%v", e.Err)
		return b.String()
	}

	b.WriteString(e.Code)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var extra []string
	if e.StatusCode != 0 {
		extra = append(extra, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.RequestID != "" {
		extra = append(extra, "request id "+e.RequestID)
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extra, ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsAPIError reports whether a remote failure came back as a service error
// rather than a transport problem.
func (e *Error) IsAPIError() bool {
	return e.Kind == KindRemoteCallFailed && e.Code != ""
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
