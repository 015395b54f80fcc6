package commands

import (
	"github.com/spf13/cobra"

	"github.com/RakanEX/finance-db-pyscript/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "finance-db",
		Short:   "Load NetSuite general-ledger report exports into the finance database",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ./"+configFileName+")")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&g.logJSON, "log-json", false, "emit logs as JSON lines")
	pf.BoolVarP(&g.directory, "directory", "d", false, "resolve relative paths against the executable's directory")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newIngestCommand(g))
	rootCmd.AddCommand(newImportCommand(g))
	rootCmd.AddCommand(newMappingCommand(g))
	rootCmd.AddCommand(newExportCommand(g))

	return rootCmd
}
