// Package execx runs external tools with a unified command description.
package execx

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// Cmd describes one external command invocation.
type Cmd struct {
	Path   string
	Args   []string
	Env    map[string]string // additional env vars
	Dir    string            // working directory
	Stream bool              // if true, capture stdout/err line by line into the logger
}

// Runner executes commands. The default implementation shells out; tests
// substitute a fake to record invocations.
type Runner interface {
	Run(ctx context.Context, c Cmd) error
}

// Exec is the production Runner backed by os/exec.
type Exec struct {
	Log zerolog.Logger
}

// New returns a Runner that executes commands on the host.
func New(log zerolog.Logger) Exec {
	return Exec{Log: log}
}

// Run executes the command, inheriting the process environment plus c.Env.
// A non-zero exit status is returned as the error from cmd.Wait/Run.
func (e Exec) Run(ctx context.Context, c Cmd) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	e.Log.Debug().Str("path", c.Path).Strs("args", c.Args).Msg("exec")
	if c.Stream {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("stdout pipe: %w", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return fmt.Errorf("stderr pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return err
		}
		go e.stream("stdout", stdout)
		go e.stream("stderr", stderr)
		return cmd.Wait()
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (e Exec) stream(name string, r io.Reader) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		e.Log.Info().Str("stream", name).Msg(s.Text())
	}
}

// LookPath reports whether the named tool is resolvable on PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
