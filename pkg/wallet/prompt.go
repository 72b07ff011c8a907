package wallet

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user to approve a wallet action
type Prompter interface {
	Confirm(question string) bool
}

// TerminalPrompter asks on a terminal and waits for a y/N answer
type TerminalPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminalPrompter creates a prompter reading answers from in
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Confirm blocks until the user answers
func (p *TerminalPrompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "\n%s (y/N): ", question)

	response, err := p.reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// AutoApprove approves every request
type AutoApprove struct{}

// Confirm always returns true
func (AutoApprove) Confirm(string) bool { return true }
