package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user interrupts a prompt or input ends
var ErrAborted = errors.New("input aborted")

// Option is one entry of the main menu
type Option struct {
	Code  string
	Label string
}

// Input reads the user's choices and answers
type Input interface {
	// Choose shows options and returns the code the user picked. The code
	// is not checked against options.
	Choose(label string, options []Option) (string, error)

	// Ask reads one answer; validate may be nil
	Ask(label string, validate func(string) error) (string, error)
}

// nopCloser wraps a io.Reader to provide a no-op Close method (for promptui)
type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

// nopWriteCloser wraps a io.Writer to provide a no-op Close method (for promptui)
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// PromptInput reads from a terminal with promptui
type PromptInput struct {
	in  io.ReadCloser
	out io.WriteCloser
}

// NewPromptInput creates a promptui backed Input over in and out
func NewPromptInput(in io.Reader, out io.Writer) *PromptInput {
	return &PromptInput{
		in:  nopCloser{in},
		out: nopWriteCloser{out},
	}
}

// Choose shows a selectable list of options
func (p *PromptInput) Choose(label string, options []Option) (string, error) {
	sel := promptui.Select{
		Label: label,
		Items: options,
		Size:  len(options),
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ .Code | cyan }}) {{ .Label | cyan }}",
			Inactive: "  {{ .Code }}) {{ .Label }}",
			Selected: "{{ .Code }}) {{ .Label }}",
		},
		Stdin:  p.in,
		Stdout: p.out,
	}

	idx, _, err := sel.Run()
	if err != nil {
		return "", promptError(err)
	}
	return options[idx].Code, nil
}

// Ask prompts for a value; invalid answers are rejected inline
func (p *PromptInput) Ask(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:  label,
		Stdin:  p.in,
		Stdout: p.out,
	}
	if validate != nil {
		prompt.Validate = promptui.ValidateFunc(validate)
	}

	result, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return result, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// LineInput reads one answer per line. It serves pipes and tests, echoing
// each prompt and answer so the output reads as a transcript.
type LineInput struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewLineInput creates a line oriented Input over in and out
func NewLineInput(in io.Reader, out io.Writer) *LineInput {
	return &LineInput{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Choose lists the options and reads a code
func (l *LineInput) Choose(label string, options []Option) (string, error) {
	fmt.Fprintln(l.out)
	for _, o := range options {
		fmt.Fprintf(l.out, "%s) %s\n", o.Code, o.Label)
	}
	return l.read(label)
}

// Ask reads an answer. A failed validation is returned as the error since
// the line cannot be edited.
func (l *LineInput) Ask(label string, validate func(string) error) (string, error) {
	answer, err := l.read(label)
	if err != nil {
		return "", err
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (l *LineInput) read(label string) (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	answer := strings.TrimRight(l.scanner.Text(), "\r")
	fmt.Fprintf(l.out, "%s: %s\n", label, answer)
	return answer, nil
}
