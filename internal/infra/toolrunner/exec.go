// Package toolrunner adapts the external command-line scanners (subfinder,
// httpx) to the discovery and liveness ports.
package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

const (
	maxStderrInError = 512
	waitDelay        = 5 * time.Second
)

// run executes bin with args under timeout. Stdout is discarded (the tools
// write their results with -o); stderr is kept for error reporting.
func run(ctx context.Context, timeout time.Duration, bin string, args []string) error {
	runCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%s: %w", bin, domain.ErrToolMissing)
	case ctx.Err() != nil:
		// Caller cancelled; surface that rather than a tool failure.
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s timed out after %s: %w", bin, timeout, context.DeadlineExceeded)
	}

	msg := strings.TrimSpace(stderr.String())
	if len(msg) > maxStderrInError {
		msg = "..." + msg[len(msg)-maxStderrInError:]
	}
	if msg != "" {
		return fmt.Errorf("%s: %w: %s", bin, err, msg)
	}
	return fmt.Errorf("%s: %w", bin, err)
}

// CheckInstalled verifies every binary resolves on PATH.
func CheckInstalled(bins ...string) error {
	var missing []string
	for _, b := range bins {
		if strings.TrimSpace(b) == "" {
			continue
		}
		if _, err := exec.LookPath(b); err != nil {
			missing = append(missing, b)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.OpError{
		Op:   "toolrunner.check",
		Kind: domain.KindToolMissing,
		Err:  fmt.Errorf("missing required tools: %s: %w", strings.Join(missing, ", "), domain.ErrToolMissing),
	}
}
