package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RakanEX/finance-db-pyscript/internal/ledger"
)

func newExportCommand(g *globalFlags) *cobra.Command {
	var f storeFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print every stored fact as ledger CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.openStore(ctx, f, os.Stdin, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			facts, err := st.Facts(ctx)
			if err != nil {
				return err
			}
			if err := ledger.WriteFacts(cmd.OutOrStdout(), facts); err != nil {
				return fmt.Errorf("writing facts: %w", err)
			}
			s.log.Info().Int("facts", len(facts)).Msg("exported")
			return nil
		},
	}

	addStoreFlags(cmd, &f, nil)

	return cmd
}
