// Command constraintgraph builds GraphQL schemas with constraint directives,
// prints the compiled result, and serves schemas backed by JSON fixtures.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	loader := &configLoader{}

	root := &cobra.Command{
		Use:   "constraintgraph",
		Short: "GraphQL input constraints from schema directives",
		Long: `constraintgraph applies @str, @int, @float and @list directives to a GraphQL
schema. Scalar directives replace the annotated type with a derived scalar
that validates on parse; @list installs field middleware.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader.load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return configureLogging(logrus.StandardLogger(), cfg.Log)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./constraintgraph.yaml)")
	root.PersistentFlags().StringSlice("schema", nil, "SDL files to load")
	root.PersistentFlags().String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", defaultLogFormat, "log format (text or json)")

	root.AddCommand(
		newServeCmd(loader),
		newCompileSDLCmd(loader),
		newTypeDefsCmd(loader),
	)
	return root
}
