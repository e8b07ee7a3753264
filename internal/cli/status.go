package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/kevinfinalboss/cmlporter/internal/config"
	"github.com/kevinfinalboss/cmlporter/internal/metadata"
	"github.com/kevinfinalboss/cmlporter/internal/migration"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/spf13/cobra"
)

var (
	statusProject string
	statusStore   string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is on disk for a project",
	Long:  "Lists the exported metadata, project data, related artifacts and reports of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		op := types.Operation(statusStore)
		if op != types.OperationExport && op != types.OperationImport {
			return migration.NewConfigError(fmt.Errorf("unknown config store %q", statusStore))
		}

		storePath, err := config.StorePath(op)
		if err != nil {
			return migration.NewConfigError(err)
		}
		migrationCfg, err := config.LoadProjectConfig(storePath, statusProject)
		if err != nil {
			return migration.NewConfigError(err)
		}

		inv, err := metadata.Inspect(migrationCfg.OutputDir, statusProject)
		if err != nil {
			log.Error("operation_failed").Err(err).Send()
			return err
		}

		printInventory(cmd.OutOrStdout(), statusProject, inv)
		log.Debug("operation_completed").Str("operation", "status").Send()
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusProject, "project_name", "p", "", "name of the project")
	statusCmd.Flags().StringVar(&statusStore, "config", string(types.OperationExport), "connection store to read output_dir from (export or import)")
	_ = statusCmd.MarkFlagRequired("project_name")
}

func printInventory(w io.Writer, project string, inv metadata.Inventory) {
	fmt.Fprintf(w, "Project:   %s\n", project)
	fmt.Fprintf(w, "Directory: %s\n", inv.ProjectDir)

	switch {
	case inv.MetadataError != nil:
		fmt.Fprintf(w, "Metadata:  unreadable (%v)\n", inv.MetadataError)
	case inv.MetadataPresent:
		engine := "runtimes"
		if inv.LegacyEngine {
			engine = "legacy engine"
		}
		fmt.Fprintf(w, "Metadata:  present (%s)\n", engine)
	default:
		fmt.Fprintln(w, "Metadata:  missing")
	}

	if inv.DataPresent {
		fmt.Fprintf(w, "Data:      %s\n", humanize.Bytes(inv.DataBytes))
	} else {
		fmt.Fprintln(w, "Data:      missing")
	}

	for _, kind := range platform.ArtifactKinds {
		count, ok := inv.ArtifactCounts[kind]
		if !ok {
			fmt.Fprintf(w, "%-13s not exported\n", string(kind)+":")
			continue
		}
		fmt.Fprintf(w, "%-13s %d\n", string(kind)+":", count)
	}

	if len(inv.Reports) == 0 {
		return
	}
	fmt.Fprintln(w, "Reports:")
	for _, r := range inv.Reports {
		fmt.Fprintf(w, "  %s\n", r)
	}
}
