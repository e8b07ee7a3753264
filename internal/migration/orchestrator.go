package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/internal/metadata"
	"github.com/kevinfinalboss/cmlporter/internal/transfer"
	"github.com/kevinfinalboss/cmlporter/internal/validator"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, requestingUsername, projectName string) (types.ProjectIdentity, error)
}

// FileTransfer is the session-owning side of a transfer. Close must be safe
// to call repeatedly and must never fail.
type FileTransfer interface {
	Open(ctx context.Context) error
	TransferFiles(ctx context.Context) error
	Close()
}

type Reconciler interface {
	Collect(ctx context.Context, id types.ProjectIdentity, projectName string) (types.ProjectMetadata, metadata.Related, error)
	FindOrCreateProject(ctx context.Context, meta types.ProjectMetadata, owners []string) (string, bool, error)
	PatchLegacyEngine(ctx context.Context, projectID string) error
	ImportRelated(ctx context.Context, projectID, projectDir string, catalog types.RuntimeMapping, legacyProject bool) ([]types.ArtifactResult, error)
}

type Observer interface {
	OperationFinished(ctx context.Context, summary *types.OperationSummary) error
}

type ValidatorFactory func(op types.Operation, cfg types.MigrationConfig, id types.ProjectIdentity) []validator.Validator

type TransferFactory func(cfg types.MigrationConfig, id types.ProjectIdentity, direction transfer.Direction, localDir string) FileTransfer

type CatalogLoader func() (types.RuntimeMapping, error)

type Deps struct {
	Identity   IdentityResolver
	Validators ValidatorFactory
	Transfer   TransferFactory
	Reconciler Reconciler
	Catalog    CatalogLoader
	Observers  []Observer
}

type Orchestrator struct {
	deps   Deps
	logger *logger.Logger
}

func NewOrchestrator(deps Deps, log *logger.Logger) *Orchestrator {
	return &Orchestrator{deps: deps, logger: log}
}

// Export copies a project from the source installation to local disk.
func (o *Orchestrator) Export(ctx context.Context, op Operation, cfg types.MigrationConfig) (summary *types.OperationSummary, err error) {
	r := newRun(op, o.logger)
	defer o.finish(ctx, r, &err)
	defer func() {
		if rec := recover(); rec != nil {
			summary, err = r.summary, r.panicked(rec)
		}
	}()

	r.logger.Info("export_started").Str("user", cfg.Username).Send()

	r.enter(types.PhaseIdentityResolving)
	id, err := o.resolveIdentity(ctx, r, cfg.ProjectName, cfg.Username)
	if err != nil {
		return r.summary, err
	}

	r.enter(types.PhaseValidating)
	if err := o.validate(ctx, r, cfg, id); err != nil {
		return r.summary, err
	}

	r.enter(types.PhaseTransferring)
	xfer := o.deps.Transfer(cfg, id, transfer.Pull, metadata.DataDirPath(cfg.OutputDir, cfg.ProjectName))
	defer xfer.Close()

	if err := xfer.Open(ctx); err != nil {
		return r.summary, r.fail(KindTransfer, err)
	}
	if err := xfer.TransferFiles(ctx); err != nil {
		return r.summary, r.fail(KindTransfer, err)
	}

	r.enter(types.PhaseMetadataReconciling)
	meta, related, err := o.deps.Reconciler.Collect(ctx, id, cfg.ProjectName)
	if err != nil {
		return r.summary, r.fail(KindMetadata, err)
	}
	projectDir := metadata.ProjectDir(cfg.OutputDir, cfg.ProjectName)
	if err := metadata.WriteMetadata(projectDir, meta, related); err != nil {
		return r.summary, r.fail(KindMetadata, err)
	}
	r.logger.Info("metadata_written").Str("dir", projectDir).Send()

	r.done()
	return r.summary, nil
}

// Import pushes an exported project into the destination installation.
// The destination project must exist before its identity can be resolved,
// so find-or-create runs ahead of identity resolution.
func (o *Orchestrator) Import(ctx context.Context, op Operation, cfg types.MigrationConfig) (summary *types.OperationSummary, err error) {
	r := newRun(op, o.logger)
	defer o.finish(ctx, r, &err)
	defer func() {
		if rec := recover(); rec != nil {
			summary, err = r.summary, r.panicked(rec)
		}
	}()

	r.logger.Info("import_started").Str("user", cfg.Username).Send()

	r.enter(types.PhaseValidating)
	if err := o.validate(ctx, r, cfg, types.ProjectIdentity{}); err != nil {
		return r.summary, err
	}

	r.enter(types.PhaseMetadataReconciling)
	meta, err := metadata.ReadMetadata(metadata.MetadataFilePath(cfg.OutputDir, cfg.ProjectName))
	if err != nil {
		return r.summary, r.fail(KindMetadata, err)
	}
	legacy := meta.UsesLegacyEngine()

	// A team-owned export belongs to the team on the destination too.
	owners := []string{meta.TeamName(), cfg.Username}
	projectID, created, err := o.deps.Reconciler.FindOrCreateProject(ctx, meta, owners)
	if err != nil {
		return r.summary, r.fail(KindMetadata, err)
	}
	r.summary.ProjectID = projectID
	r.summary.ProjectCreated = created

	r.enter(types.PhaseIdentityResolving)
	candidates := []string{cfg.Username}
	if team := meta.TeamName(); team != "" {
		candidates = append(candidates, team)
	}
	id, err := o.resolveIdentity(ctx, r, meta.Name(), candidates...)
	if err != nil {
		return r.summary, err
	}

	r.enter(types.PhaseTransferring)
	xfer := o.deps.Transfer(cfg, id, transfer.Push, metadata.DataDirPath(cfg.OutputDir, cfg.ProjectName))
	defer xfer.Close()

	if err := xfer.Open(ctx); err != nil {
		return r.summary, r.fail(KindTransfer, err)
	}
	if err := xfer.TransferFiles(ctx); err != nil {
		return r.summary, r.fail(KindTransfer, err)
	}
	// Metadata calls are plain API calls; the session is not needed past here.
	xfer.Close()

	r.enter(types.PhaseMetadataReconciling)
	if legacy {
		if err := o.deps.Reconciler.PatchLegacyEngine(ctx, projectID); err != nil {
			return r.summary, r.fail(KindMetadata, err)
		}
		r.summary.LegacyEnginePatched = true
	}

	catalog := o.loadCatalog(r)
	projectDir := metadata.ProjectDir(cfg.OutputDir, cfg.ProjectName)
	artifacts, err := o.deps.Reconciler.ImportRelated(ctx, projectID, projectDir, catalog, legacy)
	r.summary.Artifacts = artifacts
	if err != nil {
		return r.summary, r.fail(KindMetadata, err)
	}

	r.done()
	return r.summary, nil
}

// resolveIdentity tries each requesting username in turn until one of them
// can see the project.
func (o *Orchestrator) resolveIdentity(ctx context.Context, r *run, projectName string, usernames ...string) (types.ProjectIdentity, error) {
	var (
		id  types.ProjectIdentity
		err error
	)
	for _, username := range usernames {
		id, err = o.deps.Identity.Resolve(ctx, username, projectName)
		if err == nil || !errors.Is(err, errors.NotFound) {
			break
		}
		r.logger.Warn("project_not_found").
			Str("user", username).
			Send()
	}
	if err != nil {
		return types.ProjectIdentity{}, r.fail(KindIdentity, fmt.Errorf("cannot resolve project identity: %w", err))
	}
	if id.OwnerType == types.OwnerTypeUnknown {
		return types.ProjectIdentity{}, r.fail(KindIdentity, errors.NotValidf("owner type of project %s", projectName))
	}
	r.summary.Identity = id
	return id, nil
}

func (o *Orchestrator) validate(ctx context.Context, r *run, cfg types.MigrationConfig, id types.ProjectIdentity) error {
	chain := validator.NewChain(r.logger, o.deps.Validators(r.op.Kind, cfg, id)...)
	r.logger.Info("validation_started").Int("validators", chain.Len()).Send()

	name, result := chain.Run(ctx)
	if result.IsFailed() {
		return r.fail(KindValidation, &ValidationError{Validator: name, Message: result.Message})
	}

	r.logger.Info("validation_completed").Send()
	return nil
}

func (o *Orchestrator) loadCatalog(r *run) types.RuntimeMapping {
	if o.deps.Catalog == nil {
		return types.RuntimeMapping{}
	}
	mapping, err := o.deps.Catalog()
	if err != nil {
		r.logger.Warn("catalog_unavailable").Err(err).Send()
		return types.RuntimeMapping{}
	}
	return mapping
}

func (o *Orchestrator) finish(ctx context.Context, r *run, err *error) {
	r.summary.FinishedAt = time.Now()
	if *err != nil && r.summary.Err == nil {
		r.summary.Err = *err
	}

	for _, obs := range o.deps.Observers {
		if obsErr := obs.OperationFinished(ctx, r.summary); obsErr != nil {
			r.logger.Warn("observer_failed").Err(obsErr).Send()
		}
	}
}

// panicked turns a panic in any phase into an internal error. Deferred
// session cleanup has already run by the time this executes.
func (r *run) panicked(rec interface{}) error {
	return r.fail(KindInternal, fmt.Errorf("unexpected failure: %v", rec))
}
