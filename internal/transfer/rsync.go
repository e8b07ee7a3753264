package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

type Direction string

const (
	// Pull copies the remote workspace to local disk.
	Pull Direction = "pull"
	// Push copies local disk to the remote workspace.
	Push Direction = "push"
)

const IgnoreFileName = ".cmlporter-ignore"

// rsync exit codes worth another attempt: socket/io/partial/timeout/ssh.
var transientExitCodes = map[int]bool{
	10:  true,
	12:  true,
	23:  true,
	30:  true,
	35:  true,
	255: true,
}

type Syncer interface {
	Sync(ctx context.Context, port int, direction Direction, localDir string) error
}

type commandFunc func(ctx context.Context, name string, args ...string) ([]byte, int, error)

type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("rsync exited with code %d: %s", e.Code, e.Output)
}

func (e *ExitError) Transient() bool {
	return transientExitCodes[e.Code]
}

// RsyncSyncer moves files with rsync over the session's ssh endpoint. rsync
// skips unchanged files, so a rerun only moves what is missing or changed.
type RsyncSyncer struct {
	binary     string
	sshKeyPath string
	excludes   []string
	attempts   int
	delay      time.Duration
	maxDelay   time.Duration
	clock      clock.Clock
	run        commandFunc
	logger     *logger.Logger
}

func NewRsyncSyncer(settings types.TransferConfig, sshKeyPath string, log *logger.Logger) *RsyncSyncer {
	return &RsyncSyncer{
		binary:     settings.RsyncPath,
		sshKeyPath: sshKeyPath,
		excludes:   settings.Excludes,
		attempts:   settings.Attempts,
		delay:      settings.RetryDelay,
		maxDelay:   settings.MaxRetryDelay,
		clock:      clock.WallClock,
		run:        runCommand,
		logger:     log,
	}
}

func (s *RsyncSyncer) Sync(ctx context.Context, port int, direction Direction, localDir string) error {
	if direction == Pull {
		if err := os.MkdirAll(localDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", localDir, err)
		}
	}

	args := s.buildArgs(port, direction, localDir)

	attempts := s.attempts
	if attempts <= 0 {
		attempts = 1
	}

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			output, code, err := s.run(ctx, s.binary, args...)
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code, Output: lastLines(string(output), 5)}
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			var exitErr *ExitError
			return !errors.As(err, &exitErr) || !exitErr.Transient()
		},
		NotifyFunc: func(err error, attempt int) {
			s.logger.Warn("transfer_attempt_failed").
				Str("direction", string(direction)).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Err(err).
				Send()
		},
		Attempts:    attempts,
		Delay:       s.delay,
		MaxDelay:    s.maxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       s.clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		return unwrapRetry(ctx, err)
	}

	s.logger.Info("transfer_completed").
		Str("direction", string(direction)).
		Str("local_dir", localDir).
		Send()

	return nil
}

func (s *RsyncSyncer) buildArgs(port int, direction Direction, localDir string) []string {
	sshCmd := fmt.Sprintf("ssh -p %d -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -i %s", port, s.sshKeyPath)

	args := []string{"-rlptz", "--no-o", "--no-g", "--partial"}
	for _, ex := range s.excludes {
		args = append(args, "--exclude="+ex)
	}
	if direction == Push {
		ignore := filepath.Join(localDir, IgnoreFileName)
		if _, err := os.Stat(ignore); err == nil {
			args = append(args, "--exclude-from="+ignore)
		}
	}
	args = append(args, "-e", sshCmd)

	remote := fmt.Sprintf("%s@localhost:%s", SessionUser, RemoteHome)
	local := strings.TrimRight(localDir, "/") + "/"
	if direction == Pull {
		return append(args, remote, local)
	}
	return append(args, local, remote)
}

// unwrapRetry returns the error of the last attempt instead of the retry
// bookkeeping error around it.
func unwrapRetry(ctx context.Context, err error) error {
	if !retry.IsAttemptsExceeded(err) && !retry.IsDurationExceeded(err) && !retry.IsRetryStopped(err) {
		return err
	}
	if last := retry.LastError(err); last != nil {
		return last
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, exitErr.ExitCode(), nil
		}
		return output, -1, err
	}
	return output, 0, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
