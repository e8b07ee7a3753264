package transfer

import (
	"context"
	"fmt"
	"sync"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

// Engine owns one session for the length of one operation.
type Engine struct {
	opener    SessionOpener
	syncer    Syncer
	identity  types.ProjectIdentity
	direction Direction
	localDir  string
	logger    *logger.Logger

	mu      sync.Mutex
	session Session
	closed  bool
}

func NewEngine(opener SessionOpener, syncer Syncer, id types.ProjectIdentity, direction Direction, localDir string, log *logger.Logger) *Engine {
	return &Engine{
		opener:    opener,
		syncer:    syncer,
		identity:  id,
		direction: direction,
		localDir:  localDir,
		logger:    log.WithField("direction", string(direction)),
	}
}

func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return nil
	}
	if e.closed {
		return fmt.Errorf("transfer engine already closed")
	}

	session, err := e.opener.Open(ctx, e.identity)
	if err != nil {
		return fmt.Errorf("failed to open session for %s: %w", e.identity.ProjectPath(), err)
	}
	e.session = session
	return nil
}

func (e *Engine) TransferFiles(ctx context.Context) error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	if session == nil {
		return fmt.Errorf("no open session for %s", e.identity.ProjectPath())
	}

	e.logger.Info("transfer_started").
		Str("direction", string(e.direction)).
		Str("project_path", e.identity.ProjectPath()).
		Str("local_dir", e.localDir).
		Send()

	return e.syncer.Sync(ctx, session.Port(), e.direction, e.localDir)
}

// Close terminates the session. It is safe to call any number of times and
// on an engine that never opened a session. Failures are logged, not returned.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true

	if e.session == nil {
		return
	}
	session := e.session
	e.session = nil

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("session_close_failed").
				Str("project_path", e.identity.ProjectPath()).
				Interface("panic", r).
				Send()
		}
	}()

	if err := session.Terminate(); err != nil {
		e.logger.Error("session_close_failed").
			Str("project_path", e.identity.ProjectPath()).
			Err(err).
			Send()
		return
	}

	e.logger.Info("session_closed").
		Str("project_path", e.identity.ProjectPath()).
		Send()
}
