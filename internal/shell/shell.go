// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shell runs external programs behind a small seam so callers can
// be tested without spawning processes.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// stderrTail bounds how much captured stderr is attached to an error.
const stderrTail = 2048

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string

	// Env is appended to the current process environment.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer

	// Stderr receives the child's stderr. When nil, stderr is captured and
	// its tail is attached to the returned error.
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Executor runs commands.
type Executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, cmd Command) error
}

// OS is the production Executor backed by os/exec.
type OS struct{}

// LookPath searches PATH for file.
func (OS) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run starts cmd and waits for it. Cancelling ctx kills the child.
func (OS) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout

	var stderr bytes.Buffer
	if cmd.Stderr != nil {
		c.Stderr = cmd.Stderr
	} else {
		c.Stderr = &stderr
	}

	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if tail := tail(stderr.String()); tail != "" {
			return fmt.Errorf("%s: %w: %s", cmd.Name, err, tail)
		}
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
