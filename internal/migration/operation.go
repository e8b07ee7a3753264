package migration

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

// Operation identifies one export or import run. Its fields are attached to
// every log record of the run.
type Operation struct {
	ID      string
	Kind    types.Operation
	Project string
}

func NewOperation(kind types.Operation, project string) Operation {
	return Operation{ID: uuid.NewString(), Kind: kind, Project: project}
}

func (op Operation) Fields() map[string]interface{} {
	return map[string]interface{}{
		"operation":    string(op.Kind),
		"operation_id": op.ID,
		"project":      op.Project,
	}
}

type run struct {
	op      Operation
	summary *types.OperationSummary
	logger  *logger.Logger
}

func newRun(op Operation, log *logger.Logger) *run {
	r := &run{
		op: op,
		summary: &types.OperationSummary{
			Operation:   op.Kind,
			Project:     op.Project,
			OperationID: op.ID,
			StartedAt:   time.Now(),
		},
		logger: log,
	}
	r.enter(types.PhaseConfiguring)
	return r
}

func (r *run) enter(phase types.Phase) {
	r.summary.Phase = phase
	r.summary.Phases = append(r.summary.Phases, phase)
	r.logger.Debug("phase_entered").Str("phase", string(phase)).Send()
}

// fail moves the run to Aborted and returns the typed error for the phase
// that was active.
func (r *run) fail(kind Kind, err error) error {
	failed := r.summary.Phase
	typed := &Error{Kind: kind, Op: r.op.Kind, Project: r.op.Project, Phase: failed, Err: err}

	r.summary.FailedPhase = failed
	r.summary.Err = typed
	r.enter(types.PhaseAborted)

	r.logger.Error("operation_aborted").
		Str("phase", string(failed)).
		Str("kind", string(kind)).
		Err(err).
		Send()

	return typed
}

func (r *run) done() {
	r.enter(types.PhaseDone)
	r.logger.Info("operation_completed").Send()
}
