// Package shell is a line-oriented chat loop for terminals without TUI
// support and for piped input.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"digitaltwin/internal/service"
	"digitaltwin/internal/tui"
)

// Asker is the subset of the twin the shell needs.
type Asker interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
}

// Shell reads one question per line and writes each answer.
type Shell struct {
	twin    Asker
	in      io.Reader
	out     io.Writer
	persona string
}

// New returns a shell speaking as persona.
func New(twin Asker, in io.Reader, out io.Writer, persona string) *Shell {
	return &Shell{twin: twin, in: in, out: out, persona: persona}
}

// Run loops until exit/quit, end of input or ctx cancellation. Blank lines
// are ignored. An error from Ask (such as a terminated twin) ends the loop.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if tui.IsQuit(q) {
			fmt.Fprintln(s.out, "Goodbye.")
			return nil
		}
		a, err := s.twin.Ask(ctx, q)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s: %s\n\n", s.persona, a.Text)
	}
}
