// Package console is the interactive terminal: prompts read through a shared
// readline instance, hidden password input and QR code rendering.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/go-faster/errors"
	"golang.org/x/term"
)

// ErrInterrupted is returned by reads cancelled with Ctrl+C or Interrupt.
var ErrInterrupted = errors.New("input interrupted")

// Console reads user input and prints messages.
type Console struct {
	rl *readline.Instance
	// in can be closed to make a pending read return io.EOF.
	in       io.ReadCloser
	terminal bool
}

// New sets up readline over stdin.
func New() (*Console, error) {
	cs := readline.NewCancelableStdin(os.Stdin)

	rl, err := readline.NewEx(&readline.Config{
		Stdin:           cs,
		InterruptPrompt: "^C",
	})
	if err != nil {
		_ = cs.Close()
		return nil, errors.Wrap(err, "init readline")
	}

	return &Console{
		rl:       rl,
		in:       cs,
		terminal: term.IsTerminal(int(os.Stdin.Fd())),
	}, nil
}

// ReadLine prints prompt and returns the entered line without surrounding
// spaces. io.EOF is returned when stdin is closed.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.rl.SetPrompt(prompt)

	line, err := c.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}

	return strings.TrimSpace(line), err
}

// ReadPassword reads a line without echo. Piped input is read as a plain line.
func (c *Console) ReadPassword(prompt string) (string, error) {
	if !c.terminal {
		return c.ReadLine(prompt)
	}

	password, err := c.rl.ReadPassword(prompt)
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}

	return strings.TrimSpace(string(password)), err
}

func (c *Console) Printf(format string, a ...any) {
	fmt.Fprintf(c.rl.Stdout(), format, a...)
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.rl.Stdout(), a...)
}

// ShowQR renders content as a QR code followed by the content itself.
func (c *Console) ShowQR(content string) error {
	if err := WriteQR(c.rl.Stdout(), content); err != nil {
		return err
	}

	c.Println(content)

	return nil
}

// Stderr is the writer for diagnostics that must not break the prompt line.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Interrupt unblocks a pending read, which then returns io.EOF.
func (c *Console) Interrupt() {
	_ = c.in.Close()
}

func (c *Console) Close() error {
	c.Interrupt()
	return c.rl.Close()
}
