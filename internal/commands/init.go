package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RakanEX/finance-db-pyscript/internal/config"
	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

func newInitCommand() *cobra.Command {
	var host, table string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a finance-db project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, host, table, force)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Postgres host")
	cmd.Flags().StringVar(&table, "table", config.DefaultTable, "fact table name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")

	return cmd
}

func runInit(dir, host, table string, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	// Create directory structure.
	dirs := []string{
		"logs",
		"mappings",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, v := range model.Variants {
		dirs = append(dirs, filepath.Join("import", string(v)))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write finance-db.yaml.
	cfg := config.Default()
	cfg.Database.Host = host
	cfg.Database.Table = table
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the default entity mapping.
	if err := entities.Defaults().Save(filepath.Join(dir, cfg.Ingest.MappingFile)); err != nil {
		return fmt.Errorf("writing entity mapping: %w", err)
	}

	// Write .env template and .gitignore.
	env := "# FINANCE_DB_PASS=\n# DATABASE_URL=postgres://postgres@localhost:5432/postgres?sslmode=disable\n"
	if err := writeIfMissing(filepath.Join(dir, ".env"), env, 0o600); err != nil {
		return err
	}
	gitignore := ".env\nlogs/\nimport/processed/\n"
	if err := writeIfMissing(filepath.Join(dir, ".gitignore"), gitignore, 0o644); err != nil {
		return err
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Printf("Initialized finance-db project at %s\n", dir)
	return nil
}

func writeIfMissing(path, content string, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
