package internal

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestValidateMFACode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"123456", true},
		{"000123", true},
		{"1", true},
		{"12345678", true},
		{"abc123", false},
		{"", false},
		{"12 34", false},
		{"-12345", false},
		{"+12345", false},
		{"１２３", false}, // full-width digits
	}

	for _, tt := range tests {
		err := ValidateMFACode(tt.code)
		if tt.valid && err != nil {
			t.Errorf("ValidateMFACode(%q) = %v, want nil", tt.code, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidMFAFormat) {
			t.Errorf("ValidateMFACode(%q) = %v, want InvalidMfaFormat", tt.code, err)
		}
	}
}

func TestReadToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "123456\n", want: "123456"},
		{name: "leading zeros kept", input: "000123\n", want: "000123"},
		{name: "surrounding whitespace trimmed", input: "  654321 \r\n", want: "654321"},
		{name: "no trailing newline", input: "654321", want: "654321"},
		{name: "only first line read", input: "111111\n222222\n", want: "111111"},
		{name: "letters", input: "abc123\n", wantErr: true},
		{name: "empty line", input: "\n", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
		{name: "internal whitespace", input: "12 34\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &Prompter{In: strings.NewReader(tt.input), Out: &out, Mask: true}

			got, err := p.ReadToken("arn:aws:iam::111111111111:mfa/user")
			if tt.wantErr {
				if KindOf(err) != KindInvalidMFAFormat {
					t.Fatalf("Expected InvalidMfaFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadToken failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadTokenPromptNamesDevice(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: strings.NewReader("123456\n"), Out: &out}

	if _, err := p.ReadToken("arn:aws:iam::111111111111:mfa/user"); err != nil {
		t.Fatalf("ReadToken failed: %v", err)
	}
	if !strings.Contains(out.String(), "arn:aws:iam::111111111111:mfa/user") {
		t.Errorf("Prompt should name the MFA device, got %q", out.String())
	}
}
