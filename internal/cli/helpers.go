package cli

import (
	"github.com/kevinfinalboss/cmlporter/internal/catalog"
	"github.com/kevinfinalboss/cmlporter/internal/config"
	"github.com/kevinfinalboss/cmlporter/internal/migration"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/spf13/cobra"
)

var helpersCmd = &cobra.Command{
	Use:   "helpers",
	Short: "Maintenance commands",
}

var populateRuntimesCmd = &cobra.Command{
	Use:   "populate_engine_runtimes_mapping",
	Short: "Cache the legacy engine image to runtime mapping of the destination",
	Long: `Lists every runtime of the destination installation and stores the mapping
from legacy engine images to runtime identifiers in
~/.cmlporter/legacy_engine_runtime_constants.json. Imports use it to
translate jobs, models and applications. The connection comes from the
DEFAULT section of import-config.ini.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storePath, err := config.StorePath(types.OperationImport)
		if err != nil {
			return migration.NewConfigError(err)
		}
		migrationCfg, err := config.LoadDefaultConfig(storePath)
		if err != nil {
			log.Error("config_invalid").Str("file", storePath).Err(err).Send()
			return migration.NewConfigError(err)
		}

		path, err := catalog.DefaultPath()
		if err != nil {
			return migration.NewCatalogError(err)
		}
		client, err := platform.NewClient(migrationCfg, log)
		if err != nil {
			return migration.NewCatalogError(err)
		}

		// Outcomes are logged by the builder and never fail the command.
		outcome, _ := catalog.NewBuilder(client, path, log).Run(cmd.Context())
		log.Info("catalog_outcome").Str("outcome", string(outcome)).Send()
		return nil
	},
}

func init() {
	helpersCmd.AddCommand(populateRuntimesCmd)
}
