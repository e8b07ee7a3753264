package types

import "time"

type Operation string

const (
	OperationExport Operation = "export"
	OperationImport Operation = "import"
)

type Phase string

const (
	PhaseConfiguring         Phase = "configuring"
	PhaseIdentityResolving   Phase = "identity_resolving"
	PhaseValidating          Phase = "validating"
	PhaseTransferring        Phase = "transferring"
	PhaseMetadataReconciling Phase = "metadata_reconciling"
	PhaseDone                Phase = "done"
	PhaseAborted             Phase = "aborted"
)

type ArtifactResult struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

type OperationSummary struct {
	Operation           Operation
	Project             string
	OperationID         string
	Phase               Phase
	FailedPhase         Phase
	Phases              []Phase
	StartedAt           time.Time
	FinishedAt          time.Time
	Err                 error
	Identity            ProjectIdentity
	ProjectID           string
	ProjectCreated      bool
	LegacyEnginePatched bool
	Artifacts           []ArtifactResult
}

func (s *OperationSummary) Succeeded() bool {
	return s.Err == nil && s.Phase == PhaseDone
}

func (s *OperationSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *OperationSummary) CountArtifacts() (created, skipped int) {
	for _, a := range s.Artifacts {
		if a.Created {
			created++
		} else if a.Skipped {
			skipped++
		}
	}
	return created, skipped
}
