package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hanpama/constraintgraph/internal/directive"
	"github.com/hanpama/constraintgraph/internal/schema"
)

func newCompileSDLCmd(loader *configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "compile-sdl",
		Short: "Print the schema after constraint directives are applied",
		Long: `compile-sdl loads the schema files, applies the constraint directives and
prints the resulting SDL. Misconfigured directives are listed with their
positions and the command exits non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(loader.config().Schema, logrus.StandardLogger())
			if err != nil {
				var verr directive.ValidationError
				if errors.As(err, &verr) {
					fmt.Fprint(cmd.ErrOrStderr(), verr.Error())
					return fmt.Errorf("%d constraint directive violation(s)", len(verr))
				}
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), schema.Render(s))
			return nil
		},
	}
}

func newTypeDefsCmd(loader *configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "typedefs",
		Short: "Print the directive declarations to include in a schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := loader.config().Schema.Directives.Directives()
			fmt.Fprint(cmd.OutOrStdout(), directive.TypeDefs(ds...))
			return nil
		},
	}
}
