package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kevinfinalboss/cmlporter/internal/catalog"
	"github.com/kevinfinalboss/cmlporter/internal/config"
	"github.com/kevinfinalboss/cmlporter/internal/identity"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/internal/metadata"
	"github.com/kevinfinalboss/cmlporter/internal/migration"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/internal/reporter"
	"github.com/kevinfinalboss/cmlporter/internal/transfer"
	"github.com/kevinfinalboss/cmlporter/internal/validator"
	"github.com/kevinfinalboss/cmlporter/internal/webhook"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/spf13/cobra"
)

var projectName string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Export or import a single project",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project from the source installation to local disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProject(cmd.Context(), types.OperationExport)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a project from local disk into the destination installation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProject(cmd.Context(), types.OperationImport)
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().StringVarP(&projectName, "project_name", "p", "", "name of the project to migrate")
		_ = c.MarkFlagRequired("project_name")
		projectCmd.AddCommand(c)
	}
}

func runProject(ctx context.Context, kind types.Operation) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	storePath, err := config.StorePath(kind)
	if err != nil {
		return migration.NewConfigError(err)
	}
	migrationCfg, err := config.LoadProjectConfig(storePath, projectName)
	if err != nil {
		log.Error("config_invalid").Str("file", storePath).Err(err).Send()
		return migration.NewConfigError(err)
	}

	op := migration.NewOperation(kind, projectName)

	opLog, err := log.WithLogFile(metadata.LogDirPath(migrationCfg.OutputDir, projectName))
	if err != nil {
		log.Warn("log_file_unavailable").Err(err).Send()
		opLog = log
	}
	defer opLog.Close()
	opLog = opLog.WithFields(op.Fields())

	client, err := platform.NewClient(migrationCfg, opLog)
	if err != nil {
		return migration.NewConfigError(err)
	}

	orchestrator := migration.NewOrchestrator(buildDeps(client, migrationCfg, opLog), opLog)

	var summary *types.OperationSummary
	if kind == types.OperationExport {
		summary, err = orchestrator.Export(ctx, op, migrationCfg)
	} else {
		summary, err = orchestrator.Import(ctx, op, migrationCfg)
	}
	if err != nil {
		return err
	}

	opLog.Info("operation_summary").
		Str("phase", string(summary.Phase)).
		Dur("duration", summary.Duration()).
		Int("artifacts", len(summary.Artifacts)).
		Send()
	return nil
}

func buildDeps(client *platform.Client, migrationCfg types.MigrationConfig, opLog *logger.Logger) migration.Deps {
	deps := migration.Deps{
		Identity:   identity.NewResolver(client, opLog),
		Validators: validatorFactory(client, cfg.Validation, cfg.Transfer),
		Transfer: func(c types.MigrationConfig, id types.ProjectIdentity, direction transfer.Direction, localDir string) migration.FileTransfer {
			opener := transfer.NewCDSWCtlOpener(c, cfg.Transfer, transfer.NewSSHProbe(c.SSHKeyPath), opLog)
			syncer := transfer.NewRsyncSyncer(cfg.Transfer, c.SSHKeyPath, opLog)
			return transfer.NewEngine(opener, syncer, id, direction, localDir, opLog)
		},
		Reconciler: metadata.NewReconciler(client, opLog),
		Catalog: func() (types.RuntimeMapping, error) {
			path, err := catalog.DefaultPath()
			if err != nil {
				return nil, err
			}
			return catalog.Load(path)
		},
	}

	if cfg.Report.Enabled {
		reportsDir := metadata.LogDirPath(migrationCfg.OutputDir, migrationCfg.ProjectName)
		dataDir := metadata.DataDirPath(migrationCfg.OutputDir, migrationCfg.ProjectName)
		deps.Observers = append(deps.Observers, reporter.NewHTMLReporter(opLog, reportsDir, dataDir))
	}
	if cfg.Webhooks.Discord.Enabled && cfg.Webhooks.Discord.URL != "" {
		deps.Observers = append(deps.Observers, webhook.NewDiscordWebhook(cfg.Webhooks.Discord, opLog))
	}

	return deps
}

func validatorFactory(client *platform.Client, validation types.ValidationConfig, settings types.TransferConfig) migration.ValidatorFactory {
	return func(op types.Operation, c types.MigrationConfig, id types.ProjectIdentity) []validator.Validator {
		binaries := []validator.Validator{
			validator.BinaryPresent(settings.RsyncPath),
			validator.BinaryPresent(settings.CDSWCtlPath),
		}

		if op == types.OperationExport {
			username := id.CreatorUsername
			if username == "" {
				username = c.Username
			}
			return append([]validator.Validator{
				validator.ProjectExists(client, username, c.ProjectName),
				validator.LocalDirWritable(c.OutputDir),
				validator.DiskSpace(c.OutputDir, validation.MinFreeDiskMB),
			}, binaries...)
		}

		return append([]validator.Validator{
			validator.LocalProjectDataPresent(metadata.DataDirPath(c.OutputDir, c.ProjectName)),
			validator.MetadataFilePresent(metadata.MetadataFilePath(c.OutputDir, c.ProjectName)),
			validator.APIReachable(client, client.BaseURL()),
		}, binaries...)
	}
}
