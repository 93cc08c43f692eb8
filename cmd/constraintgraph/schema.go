package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hanpama/constraintgraph/internal/directive"
	language "github.com/hanpama/constraintgraph/internal/language"
	"github.com/hanpama/constraintgraph/internal/schema"
)

// loadSchema reads the configured SDL files, prepends the directive
// declarations and compiles the constraints.
func loadSchema(cfg SchemaConfig, logger logrus.FieldLogger) (*schema.Schema, error) {
	if len(cfg.Files) == 0 {
		return nil, errors.New("no schema files configured (use --schema or schema.files)")
	}
	ds := cfg.Directives.Directives()
	compiler := directive.NewCompiler(ds, directive.WithLogger(logger))

	sources := []*language.Source{{Name: "constraints.graphql", Input: compiler.TypeDefs()}}
	for _, file := range cfg.Files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "read schema %s", file)
		}
		sources = append(sources, &language.Source{Name: file, Input: string(data)})
	}

	s, err := schema.BuildFromSources(sources, compiler)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"files": len(cfg.Files),
		"types": len(s.Types),
	}).Debug("schema compiled")
	return s, nil
}
