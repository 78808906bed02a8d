package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"
)

// Standard errors returned by the executor.
var (
	// ErrCommandNotAllowed indicates the command failed the filter check.
	ErrCommandNotAllowed = errors.New("command not allowed")

	// ErrCommandTimeout indicates the command exceeded its time bound.
	// Distinct from command failure so callers can report it separately.
	ErrCommandTimeout = errors.New("command timed out")
)

// DefaultTimeout bounds command execution when none is configured.
const DefaultTimeout = 10 * time.Second

// Executor runs filtered commands inside a working directory.
type Executor struct {
	filter  Filter
	workDir string
	timeout time.Duration
	log     *logrus.Entry
}

// NewExecutor creates an executor rooted at workDir.
func NewExecutor(filter Filter, workDir string, timeout time.Duration, log *logrus.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.New()
	}
	return &Executor{
		filter:  filter,
		workDir: workDir,
		timeout: timeout,
		log:     log.WithField("component", "terminal"),
	}
}

// Run executes name with args, returning combined output and whether the
// command succeeded. Disallowed commands and timeouts are reported as
// distinct errors; ordinary non-zero exits return ok=false with no error.
func (e *Executor) Run(ctx context.Context, name string, args []string) (string, bool, error) {
	if !e.filter.Allowed(name) {
		return "", false, fmt.Errorf("%w: %s", ErrCommandNotAllowed, e.filter.RejectionReason(name))
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.workDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	e.log.WithFields(logrus.Fields{
		"command":  name,
		"args":     args,
		"duration": time.Since(start),
	}).Debug("command finished")

	if ctx.Err() == context.DeadlineExceeded {
		return out.String(), false, fmt.Errorf("%w after %s: %s", ErrCommandTimeout, e.timeout, name)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.String(), false, nil
		}
		return out.String(), false, err
	}
	return out.String(), true, nil
}

// RunLine parses a single command line into a command and arguments
// using shell word splitting, then runs it.
func (e *Executor) RunLine(ctx context.Context, line string) (string, bool, error) {
	words, err := shellwords.Parse(line)
	if err != nil {
		return "", false, fmt.Errorf("parse command line: %w", err)
	}
	if len(words) == 0 {
		return "", false, errors.New("empty command line")
	}
	return e.Run(ctx, words[0], words[1:])
}
