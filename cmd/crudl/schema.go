package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/crudl/contrib/graphql"
	"github.com/syssam/crudl/dialect/memory"
	"github.com/syssam/crudl/internal/demo"
)

func newSchemaCmd() *cobra.Command {
	var describe bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema of the demo models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := demo.New(memory.NewStore(), zerolog.Nop())
			if err != nil {
				return err
			}
			if describe {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(app.Schema); err != nil {
					return fmt.Errorf("encode schema: %w", err)
				}
				return enc.Close()
			}
			sdl, err := graphql.SDL(app.Schema)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), sdl)
			return err
		},
	}
	cmd.Flags().BoolVar(&describe, "describe", false, "print the compiled operation specs as YAML")
	return cmd
}
