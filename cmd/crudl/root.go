package main

import (
	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "crudl",
		Short: "Declarative CRUDL models served as a GraphQL API",
		Long: `crudl serves the demo User and Tweet models as a GraphQL API.

Quick start:
  crudl serve                    # in-memory store on :8080
  crudl serve --config crudl.yaml
  crudl schema                   # print the GraphQL SDL
  crudl schema --describe        # print the compiled operation specs

Environment variables:
  CRUDL_SERVER_ADDR     - listen address (default: :8080)
  CRUDL_STORE_DIALECT   - memory, sqlite, postgres, mysql or redis
  CRUDL_STORE_DSN       - database source or redis address
  CRUDL_LOGGING_LEVEL   - trace, debug, info, warn, error`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	root.AddCommand(
		newServeCmd(&cfgFile),
		newSchemaCmd(),
	)
	return root
}
