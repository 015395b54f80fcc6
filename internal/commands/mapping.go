package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

func newMappingCommand(g *globalFlags) *cobra.Command {
	var variant, mappingPath string

	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Print the effective entity mapping as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runMapping(s, variant, mappingPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "only this variant (default all)")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "entity mapping CSV (default from config)")

	return cmd
}

func runMapping(s *session, variant, mappingPath string, w io.Writer) error {
	m := s.mapping(mappingPath)

	variants := model.Variants
	if variant != "" {
		v, err := model.ParseVariant(variant)
		if err != nil {
			return err
		}
		variants = []model.Variant{v}
	}

	var rules []entities.Rule
	for _, v := range variants {
		rules = append(rules, m.Rules(v)...)
	}
	if err := entities.WriteRules(w, rules); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	return nil
}
