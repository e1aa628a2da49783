package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MinSessionDuration is the shortest GetSessionToken accepts (15 minutes).
const MinSessionDuration int32 = 900

// SettingsFileName lives next to the credentials file.
const SettingsFileName = "mfactl.yaml"

// Settings are the defaults a flag can override.
type Settings struct {
	SourceProfile    string `yaml:"source_profile"`
	TargetProfile    string `yaml:"target_profile"`
	DurationSeconds  int32  `yaml:"duration_seconds"`
	Region           string `yaml:"region"`
	CredentialSource string `yaml:"credential_source"`
	Backup           bool   `yaml:"backup"`
}

// DefaultSettings matches the long-standing behaviour: default-long-term into
// default, for the full 36 hours.
func DefaultSettings() *Settings {
	return &Settings{
		SourceProfile:    DefaultSourceProfile,
		TargetProfile:    DefaultTargetProfile,
		DurationSeconds:  MaxSessionDuration,
		Region:           DefaultRegion,
		CredentialSource: CredentialSourceStatic,
		Backup:           true,
	}
}

// LoadSettings overlays the YAML file at path onto the defaults. A missing
// file is only an error when required is set.
func LoadSettings(path string, required bool) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects settings STS or the writer would trip over later.
func (s *Settings) Validate() error {
	if s.SourceProfile == "" || s.TargetProfile == "" {
		return errors.New("source and target profile names must not be empty")
	}
	if s.SourceProfile == s.TargetProfile {
		return fmt.Errorf("source and target profile are both %q; session credentials would overwrite the long-term keys", s.SourceProfile)
	}
	if s.DurationSeconds < MinSessionDuration || s.DurationSeconds > MaxSessionDuration {
		return fmt.Errorf("duration %d is outside %d-%d seconds", s.DurationSeconds, MinSessionDuration, MaxSessionDuration)
	}
	switch s.CredentialSource {
	case CredentialSourceStatic, CredentialSourceProfile:
	default:
		return fmt.Errorf("credential source must be %q or %q, got %q", CredentialSourceStatic, CredentialSourceProfile, s.CredentialSource)
	}
	return nil
}

// AWSDir is <home>/.aws.
func AWSDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".aws"), nil
}

// CredentialsPath resolves the credentials file: explicit path, then
// AWS_SHARED_CREDENTIALS_FILE, then <home>/.aws/credentials.
func CredentialsPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); env != "" {
		return env, nil
	}
	dir, err := AWSDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials"), nil
}
