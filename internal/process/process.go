// Package process launches external commands for menu actions and
// status readers.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ErrEmptyCommand is returned for a command with no program.
var ErrEmptyCommand = errors.New("empty command")

// Command is an argv vector. Commands are never interpreted by a shell
// unless built with Shell.
type Command []string

// Cmd builds a command from a program and its arguments.
func Cmd(name string, args ...string) Command {
	return append(Command{name}, args...)
}

// Shell builds a command that runs script with sh -c.
func Shell(script string) Command {
	return Command{"sh", "-c", script}
}

func (c Command) String() string {
	return strings.Join(c, " ")
}

// Process is a started child.
type Process interface {
	Pid() int
	Wait() error
}

type child struct {
	cmd *exec.Cmd
}

func (c *child) Pid() int    { return c.cmd.Process.Pid }
func (c *child) Wait() error { return c.cmd.Wait() }

// Runner starts commands in their own session so they survive the
// overlay and do not receive its terminal signals.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

func validate(c Command) error {
	if len(c) == 0 || c[0] == "" {
		return ErrEmptyCommand
	}
	return nil
}

func newCmd(c Command) (*exec.Cmd, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	cmd := exec.Command(c[0], c[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, nil
}

func newCmdContext(ctx context.Context, c Command) (*exec.Cmd, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, c[0], c[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	// Kill the whole session, not just the leader.
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = time.Second
	return cmd, nil
}

// Start launches c without waiting. The caller must Wait on the result.
func (r *Runner) Start(c Command) (Process, error) {
	cmd, err := newCmd(c)
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", c[0], err)
	}
	r.logger.Debug("process started", "command", c.String(), "pid", cmd.Process.Pid)
	return &child{cmd: cmd}, nil
}

// Spawn launches c fully detached and reaps it in the background.
func (r *Runner) Spawn(c Command) error {
	p, err := r.Start(c)
	if err != nil {
		return err
	}
	go func() {
		if err := p.Wait(); err != nil {
			r.logger.Debug("detached process exited", "command", c.String(), "error", err)
		}
	}()
	return nil
}

// Run runs c to completion, killing it when ctx expires.
func (r *Runner) Run(ctx context.Context, c Command) error {
	cmd, err := newCmdContext(ctx, c)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c[0], err)
	}
	return nil
}

// Output runs c to completion and returns its trimmed stdout.
func (r *Runner) Output(ctx context.Context, c Command) (string, error) {
	cmd, err := newCmdContext(ctx, c)
	if err != nil {
		return "", err
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", c[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
