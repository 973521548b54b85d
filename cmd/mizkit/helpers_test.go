// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writers a batch uses.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// cli is an App with captured output and a private config directory.
type cli struct {
	app       *App
	stdout    *syncBuffer
	stderr    *syncBuffer
	configDir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	c := &cli{stdout: &syncBuffer{}, stderr: &syncBuffer{}, configDir: t.TempDir()}
	c.app = NewApp(Dependencies{Stdout: c.stdout, Stderr: c.stderr, ConfigDir: c.configDir})
	return c
}

// run executes one command line against a fresh command tree.
func (c *cli) run(args ...string) error {
	root := newRootCommand(c.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// mustRun fails the test when the command fails.
func (c *cli) mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := c.run(args...); err != nil {
		t.Fatalf("mizkit %v failed: %v\nstdout:\n%s\nstderr:\n%s", args, err, c.stdout, c.stderr)
	}
}

// mustFail fails the test unless the command exits with code 1.
func (c *cli) mustFail(t *testing.T, args ...string) {
	t.Helper()
	err := c.run(args...)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("mizkit %v error = %v, want exit code 1\nstderr:\n%s", args, err, c.stderr)
	}
}
