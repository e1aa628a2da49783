package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator for the current MFA code.
type Prompter struct {
	In  io.Reader
	Out io.Writer
	// Mask hides the typed code when In is a terminal.
	Mask bool
}

// NewPrompter returns a Prompter on the process's stdin and stdout.
func NewPrompter(mask bool) *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stdout, Mask: mask}
}

// PromptText is what the operator sees before typing the code.
func PromptText(device string) string {
	return fmt.Sprintf("Enter MFA code for %s: ", device)
}

// ReadToken prompts once, naming device, and returns the trimmed code.
// There is no retry: a malformed code fails with InvalidMfaFormat.
func (p *Prompter) ReadToken(device string) (string, error) {
	fmt.Fprint(p.Out, PromptText(device))

	line, err := p.readLine()
	if err != nil {
		return "", &Error{Kind: KindInvalidMFAFormat, Err: err}
	}

	code := strings.TrimSpace(line)
	if err := ValidateMFACode(code); err != nil {
		return "", err
	}
	return code, nil
}

func (p *Prompter) readLine() (string, error) {
	if f, ok := p.In.(*os.File); ok && p.Mask && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprint(p.Out, "\r\n")
		return string(b), err
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}

// ValidateMFACode accepts any non-empty string of ASCII digits. Leading zeros
// are significant and the length is left for STS to judge.
func ValidateMFACode(code string) error {
	if code == "" {
		return &Error{Kind: KindInvalidMFAFormat, Input: code}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return &Error{Kind: KindInvalidMFAFormat, Input: code}
		}
	}
	return nil
}
