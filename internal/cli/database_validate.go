package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/buildsense/carbontally/internal/config"
	"github.com/buildsense/carbontally/internal/matdb"
)

// NewDatabaseValidateCmd creates the "database validate" command. It
// checks that a material database file parses, carries a supported
// schema version, and has usable entries, then prints its inventory.
func NewDatabaseValidateCmd() *cobra.Command {
	var databasePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a material database file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databasePath == "" {
				databasePath = config.GetGlobalConfig().Database.Path
			}
			if databasePath == "" {
				return fmt.Errorf("no material database: pass --database or set database.path in the config file")
			}

			db, err := matdb.Load(cmd.Context(), databasePath)
			if err != nil {
				return err
			}
			if err := db.CheckVersion(); err != nil {
				return err
			}
			if len(db.Materials) == 0 {
				return fmt.Errorf("material database %s has no materials", databasePath)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", databasePath)
			fmt.Fprintf(out, "Version: %s (source: %s)\n", db.Version, db.Source)

			names := make([]string, 0, len(db.Materials))
			for name := range db.Materials {
				names = append(names, name)
			}
			sort.Strings(names)

			entries := 0
			emptyCategories := make([]string, 0)
			for _, name := range names {
				cat := db.Materials[name]
				entries += cat.Len()
				if cat.Len() == 0 {
					emptyCategories = append(emptyCategories, name)
				}
				fmt.Fprintf(out, "  %-16s %d entries\n", name, cat.Len())
			}
			fmt.Fprintf(out, "Materials: %d categories, %d entries\n", len(names), entries)
			fmt.Fprintf(out, "Reinforcement ratios: %d\n", len(db.ReinforcementRatios))

			// Empty categories resolve nothing; flag them but stay valid.
			for _, name := range emptyCategories {
				fmt.Fprintf(out, "Warning: category %q has no entries\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&databasePath, "database", "", "material database JSON file (default from config)")

	return cmd
}
