package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator reflects a JSON schema from a configuration kind.
// Types can hook into generation via [jsonschema.Extender].
type SchemaGenerator struct {
	value       any
	goModules   []string
	sourcePaths []string
}

// NewSchemaGenerator creates a [SchemaGenerator] for the given value. Each
// goModule/sourcePath pair feeds Go doc comments into schema descriptions;
// pairs are optional.
func NewSchemaGenerator(value any, pairs ...[2]string) *SchemaGenerator {
	g := &SchemaGenerator{value: value}

	for _, p := range pairs {
		g.goModules = append(g.goModules, p[0])
		g.sourcePaths = append(g.sourcePaths, p[1])
	}

	return g
}

// Generate renders the schema as indented JSON.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{}

	for i, mod := range g.goModules {
		err := r.AddGoComments(mod, g.sourcePaths[i])
		if err != nil {
			return nil, fmt.Errorf("read go comments: %w", err)
		}
	}

	jss := r.Reflect(g.value)

	b, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(b, '\n'), nil
}
