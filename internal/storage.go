package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// BackupSuffix is appended to the credentials path for the pre-write copy.
const BackupSuffix = ".bak"

var loadOptions = ini.LoadOptions{
	// Secrets may legitimately contain '#' or ';'.
	IgnoreInlineComment: true,
}

// writeLoadOptions keeps quoted values in untouched sections as written.
var writeLoadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
}

// WriteOptions controls how the credentials file is committed.
type WriteOptions struct {
	// Backup copies the previous file to <path>.bak before replacing it.
	Backup bool
}

// LoadLongTermCredentials reads the IAM user's keys and MFA serial from profile.
func LoadLongTermCredentials(path, profile string) (*LongTermCredentials, error) {
	values, err := loadProfile(path, profile, KeyAccessKeyID, KeySecretAccessKey, KeyMFADevice)
	if err != nil {
		return nil, err
	}

	return &LongTermCredentials{
		AccessKey: values[0],
		SecretKey: values[1],
		MFADevice: values[2],
	}, nil
}

// LoadSessionCredentials reads back what WriteSessionCredentials stored in profile.
func LoadSessionCredentials(path, profile string) (*SessionCredentials, error) {
	values, err := loadProfile(path, profile, KeyAccessKeyID, KeySecretAccessKey, KeySessionToken, KeyExpiration)
	if err != nil {
		return nil, err
	}

	return &SessionCredentials{
		AccessKey:    values[0],
		SecretKey:    values[1],
		SessionToken: values[2],
		Expiration:   values[3],
	}, nil
}

// loadProfile returns the values of keys in order. The first absent or empty
// key fails the whole load.
func loadProfile(path, profile string, keys ...string) ([]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Kind: KindConfigNotFound, Path: path, Err: err}
	}

	cfg, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, &Error{Kind: KindConfigInvalid, Path: path, Err: err}
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return nil, &Error{Kind: KindProfileNotFound, Path: path, Profile: profile, Err: err}
	}

	values := make([]string, 0, len(keys))
	for _, key := range keys {
		if !section.HasKey(key) || section.Key(key).String() == "" {
			return nil, &Error{Kind: KindMissingField, Path: path, Profile: profile, Field: key}
		}
		values = append(values, section.Key(key).String())
	}
	return values, nil
}

// WriteSessionCredentials merges creds into profile, creating the section when
// needed, and atomically replaces the file. Other sections and other keys in
// profile are left alone. A symlinked path is written through to its target.
func WriteSessionCredentials(path, profile string, creds *SessionCredentials, opts WriteOptions) error {
	writeErr := func(err error) error {
		return &Error{Kind: KindWriteFailed, Path: path, Profile: profile, Err: err}
	}

	target, err := resolveLink(path)
	if err != nil {
		return writeErr(err)
	}

	previous, err := os.ReadFile(target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return writeErr(err)
	}
	exists := err == nil

	cfg := ini.Empty(writeLoadOptions)
	if exists {
		if cfg, err = ini.LoadSources(writeLoadOptions, previous); err != nil {
			return writeErr(fmt.Errorf("parse: %w", err))
		}
	}

	section := cfg.Section(profile)
	section.Key(KeyAssumedRole).SetValue("False")
	section.Key(KeyAccessKeyID).SetValue(creds.AccessKey)
	section.Key(KeySecretAccessKey).SetValue(creds.SecretKey)
	section.Key(KeySessionToken).SetValue(creds.SessionToken)
	section.Key(KeySecurityToken).SetValue(creds.SessionToken)
	section.Key(KeyExpiration).SetValue(creds.Expiration)

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return writeErr(fmt.Errorf("serialize: %w", err))
	}

	mode := fs.FileMode(0600)
	if exists {
		if info, err := os.Stat(target); err == nil {
			mode = info.Mode().Perm()
		}
		if opts.Backup {
			if err := os.WriteFile(target+BackupSuffix, previous, 0600); err != nil {
				return writeErr(fmt.Errorf("backup: %w", err))
			}
		}
	} else if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return writeErr(err)
	}

	if err := replaceFile(target, buf.Bytes(), mode); err != nil {
		return writeErr(err)
	}
	return nil
}

// resolveLink follows symlinks in path so the rename replaces the real file
// instead of the link. A dangling link resolves to the file it points at.
func resolveLink(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	info, lerr := os.Lstat(path)
	if lerr != nil || info.Mode()&fs.ModeSymlink == 0 {
		return path, nil
	}
	dest, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return dest, nil
}

// replaceFile writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new content.
func replaceFile(path string, data []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
