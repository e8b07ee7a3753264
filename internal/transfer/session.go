package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

// Session is an open interactive channel to the project's workspace.
type Session interface {
	Port() int
	Terminate() error
}

type SessionOpener interface {
	Open(ctx context.Context, id types.ProjectIdentity) (Session, error)
}

type Prober interface {
	Probe(ctx context.Context, port int) error
}

var endpointPortPattern = regexp.MustCompile(`ssh\s+-p\s+(\d+)`)

// CDSWCtlOpener starts a workspace session with cdswctl and exposes it as an
// ssh endpoint on localhost.
type CDSWCtlOpener struct {
	binary       string
	cfg          types.MigrationConfig
	cpu          float64
	memoryGB     float64
	readyTimeout time.Duration
	prober       Prober
	logger       *logger.Logger
}

func NewCDSWCtlOpener(cfg types.MigrationConfig, settings types.TransferConfig, prober Prober, log *logger.Logger) *CDSWCtlOpener {
	return &CDSWCtlOpener{
		binary:       settings.CDSWCtlPath,
		cfg:          cfg,
		cpu:          settings.SessionCPU,
		memoryGB:     settings.SessionMemory,
		readyTimeout: settings.ReadyTimeout,
		prober:       prober,
		logger:       log,
	}
}

func (o *CDSWCtlOpener) Open(ctx context.Context, id types.ProjectIdentity) (Session, error) {
	if err := o.login(ctx, id.CreatorUsername); err != nil {
		return nil, err
	}

	args := []string{
		"ssh-endpoint",
		"-p", id.ProjectPath(),
		"-c", strconv.FormatFloat(o.cpu, 'f', -1, 64),
		"-m", strconv.FormatFloat(o.memoryGB, 'f', -1, 64),
	}

	o.logger.Info("session_starting").
		Str("project_path", id.ProjectPath()).
		Send()

	// The endpoint must outlive ctx's callers only through Terminate, so it
	// is not bound to ctx.
	cmd := exec.Command(o.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to %s output: %w", o.binary, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s ssh-endpoint: %w", o.binary, err)
	}

	session := &endpointSession{cmd: cmd}

	readyCtx, cancel := context.WithTimeout(ctx, o.readyTimeout)
	defer cancel()

	port, err := waitForPort(readyCtx, stdout)
	if err != nil {
		o.abort(session, id)
		return nil, fmt.Errorf("ssh endpoint did not come up: %w", err)
	}
	session.port = port
	go io.Copy(io.Discard, stdout)

	if err := waitReady(readyCtx, o.prober, port, o.logger); err != nil {
		o.abort(session, id)
		return nil, fmt.Errorf("ssh endpoint on port %d not reachable: %w", port, err)
	}

	o.logger.Info("session_opened").
		Str("project_path", id.ProjectPath()).
		Int("port", port).
		Send()

	return session, nil
}

// abort tears down an endpoint that never became usable.
func (o *CDSWCtlOpener) abort(session Session, id types.ProjectIdentity) {
	if err := session.Terminate(); err != nil {
		o.logger.Error("session_close_failed").
			Str("project_path", id.ProjectPath()).
			Err(err).
			Send()
	}
}

func (o *CDSWCtlOpener) login(ctx context.Context, username string) error {
	args := []string{"login", "-n", username, "-u", o.cfg.URL, "-y", o.cfg.APIKey}
	if o.cfg.CAPath != "" {
		args = append(args, "-c", o.cfg.CAPath)
	}

	output, err := exec.CommandContext(ctx, o.binary, args...).CombinedOutput()
	if err != nil {
		o.logger.Error("session_login_failed").
			Str("user", username).
			Str("output", strings.TrimSpace(string(output))).
			Err(err).
			Send()
		return fmt.Errorf("%s login failed for %s: %w", o.binary, username, err)
	}
	return nil
}

func waitForPort(ctx context.Context, r io.Reader) (int, error) {
	found := make(chan int, 1)
	failed := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if port, ok := parseEndpointPort(scanner.Text()); ok {
				found <- port
				return
			}
		}
		if err := scanner.Err(); err != nil {
			failed <- err
			return
		}
		failed <- fmt.Errorf("endpoint exited before announcing a port")
	}()

	select {
	case port := <-found:
		return port, nil
	case err := <-failed:
		return 0, err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func parseEndpointPort(line string) (int, bool) {
	m := endpointPortPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port <= 0 || port > 65535 {
		return 0, false
	}
	return port, true
}

type endpointSession struct {
	cmd  *exec.Cmd
	port int
	once sync.Once
	err  error
}

func (s *endpointSession) Port() int {
	return s.port
}

func (s *endpointSession) Terminate() error {
	s.once.Do(func() {
		if s.cmd.Process == nil {
			return
		}
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.err = err
		}
		s.cmd.Wait()
	})
	return s.err
}
