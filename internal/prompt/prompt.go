// Package prompt asks the operator to confirm a pending command.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dicklesworthstone/kcwrap/internal/utils"
)

// ErrNoAnswer is returned when input ends before any answer is given.
var ErrNoAnswer = errors.New("no answer read from input")

// LinePrompter shows the pending command and reads one line of input.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter reads answers from in and writes the question to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks whether "tool args..." should run. It blocks until a line
// is read. Only y or yes (any case) is a yes.
func (p *LinePrompter) Confirm(tool string, args []string) (bool, error) {
	command := strings.TrimSpace(tool + " " + strings.Join(args, " "))
	if _, err := fmt.Fprintf(p.out, "Command: %s\nDo you want to continue? [y/N]: ", utils.SanitizeInput(command)); err != nil {
		return false, fmt.Errorf("writing prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return false, ErrNoAnswer
			}
		} else {
			return false, fmt.Errorf("reading answer: %w", err)
		}
	}
	return IsAffirmative(line), nil
}

// IsAffirmative reports whether answer means yes.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
