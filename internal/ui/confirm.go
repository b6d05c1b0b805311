package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned by prompts when stdin is not a terminal
// and no answer can be read.
var ErrNotInteractive = errors.New("no interactive input available")

// Prompter reads answers from In and writes questions to Out.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewPrompter returns a prompter over in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{In: in, Out: out}
}

// Stdio is the prompter used by commands.
var Stdio = NewPrompter(os.Stdin, os.Stderr)

func (p *Prompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNotInteractive
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *Prompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.Out, "%s [y/N]: ", StyleWarning.Render(prompt))
	return yes(p.readLine())
}

// ConfirmDanger is Confirm styled for destructive actions.
func (p *Prompter) ConfirmDanger(prompt string) bool {
	fmt.Fprintf(p.Out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return yes(p.readLine())
}

// Input asks for a line of text, returning def when the answer is empty.
func (p *Prompter) Input(prompt, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.Out, "%s %s: ", prompt, StyleMeta.Render("["+def+"]"))
	} else {
		fmt.Fprintf(p.Out, "%s: ", prompt)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line = strings.TrimSpace(line); line == "" {
		return def, nil
	}
	return line, nil
}

// Password asks for a secret without echoing it when In is a terminal.
func (p *Prompter) Password(prompt string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", prompt)
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}
	return p.readLine()
}

// NewPassword asks for a secret twice and requires both to match.
func (p *Prompter) NewPassword(prompt string) (string, error) {
	first, err := p.Password(prompt)
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("passphrase must not be empty")
	}
	second, err := p.Password("Repeat " + strings.ToLower(prompt[:1]) + prompt[1:])
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func yes(line string, err error) bool {
	if err != nil {
		return false
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// Confirm asks on the terminal.
func Confirm(prompt string) bool { return Stdio.Confirm(prompt) }

// ConfirmDanger asks on the terminal.
func ConfirmDanger(prompt string) bool { return Stdio.ConfirmDanger(prompt) }

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }
