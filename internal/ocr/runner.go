package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/joseph-ayodele/astadocs/internal/common"
)

// Runner executes the conversion tools. Tests replace it with a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner runs tools with os/exec. A missing binary is reported as a
// configuration problem rather than a document failure.
type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		r.logger.Error("ocr.tool.missing", "tool", name, "error", err)
		return nil, nil, common.NewAppError("TOOL_MISSING", fmt.Sprintf("%s is not installed or not on PATH", name), common.ErrInternal)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		err = fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		code := -1
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		r.logger.Warn("ocr.tool.failed",
			"tool", name,
			"argc", len(args),
			"exit_code", code,
			"elapsed_ms", elapsed,
			"stderr", tail(stderr.String(), 2048),
			"error", err,
		)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	r.logger.Debug("ocr.tool.ok", "tool", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// tail keeps the last max bytes of s; tools print the useful part of an
// error last.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "…" + s[len(s)-max:]
}
