// Package ibtool compiles Interface Builder documents with Apple's ibtool.
package ibtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultPath is looked up on PATH.
const DefaultPath = "ibtool"

// ToolError reports a compiler run that could not start or exited non-zero.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Tool, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	if e.ExitCode < 0 && e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Compiler runs ibtool --compile.
type Compiler struct {
	// Path to the ibtool binary. Empty means DefaultPath.
	Path string
}

// Compile compiles the document at src into dest.
func (c Compiler) Compile(ctx context.Context, src, dest string) error {
	tool := c.Path
	if tool == "" {
		tool = DefaultPath
	}
	args := []string{"--compile", dest, src}

	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	te := &ToolError{Tool: tool, Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}
