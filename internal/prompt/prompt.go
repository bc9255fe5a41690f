// Package prompt asks the operator for a replacement name when automatic
// formatting gives up.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive is returned when input is not attached to a terminal.
var ErrNotInteractive = errors.New("operator input required but stdin is not a terminal")

// Terminal reads answers line by line from an input stream. A single
// goroutine owns the reader so a prompt abandoned on cancellation never
// swallows the next answer.
type Terminal struct {
	in          io.Reader
	out         io.Writer
	interactive bool

	once    sync.Once
	answers chan answer
}

type answer struct {
	line string
	err  error
}

// NewTerminal returns a prompter bound to the process's stdin and stderr.
func NewTerminal() *Terminal {
	fd := os.Stdin.Fd()
	interactive := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return New(os.Stdin, os.Stderr, interactive)
}

// New builds a prompter over arbitrary streams. interactive=false makes every
// Prompt call fail with ErrNotInteractive.
func New(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{in: in, out: out, interactive: interactive}
}

func (t *Terminal) readLines() {
	r := bufio.NewReader(t.in)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if line != "" {
				t.answers <- answer{line: line}
			}
			if !errors.Is(err, io.EOF) {
				t.answers <- answer{err: err}
			}
			close(t.answers)
			return
		}
		t.answers <- answer{line: line}
	}
}

// Prompt writes a question about original and returns the trimmed answer. It
// returns ctx.Err() as soon as ctx is done, even while waiting for input.
func (t *Terminal) Prompt(ctx context.Context, label, original string) (string, error) {
	if t == nil || !t.interactive {
		return "", ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(t.out, "Unable to format %s %q. Enter the %s to use: ", label, original, label); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}
	t.once.Do(func() {
		t.answers = make(chan answer)
		go t.readLines()
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a, ok := <-t.answers:
		if !ok {
			return "", fmt.Errorf("read answer: %w", io.ErrUnexpectedEOF)
		}
		if a.err != nil {
			return "", fmt.Errorf("read answer: %w", a.err)
		}
		return strings.TrimSpace(a.line), nil
	}
}
