package schemagen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"github.com/invopop/jsonschema"
	"golang.org/x/sync/errgroup"

	"github.com/focusmcp/focusmcp/engine/batch"
	"github.com/focusmcp/focusmcp/pkg/config"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// durationPattern matches what time.ParseDuration accepts.
const durationPattern = `^-?([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// BatchFile is the object form of a batch file.
type BatchFile struct {
	Items []batch.ItemSpec `json:"items" jsonschema:"description=Tasks and projects to create"`
}

type schemaDefinition struct {
	name  string
	title string
	// fieldTag names properties; empty means json.
	fieldTag string
	// optional makes every property optional, for files layered over defaults.
	optional bool
	source   any
}

func (d schemaDefinition) fileName() string {
	return d.name + ".json"
}

var schemaDefinitions = []schemaDefinition{
	{
		name:     "config",
		title:    "focusmcp configuration",
		fieldTag: "koanf",
		optional: true,
		source:   &config.Config{},
	},
	{
		name:   "batch",
		title:  "focusmcp batch file",
		source: &BatchFile{},
	},
}

// Generator writes JSON schemas for the files users author by hand.
type Generator struct {
	definitions []schemaDefinition
}

func NewGenerator() *Generator {
	return &Generator{definitions: schemaDefinitions}
}

// Generate writes one <name>.json per definition into outDir and returns the
// written paths.
func (g *Generator) Generate(ctx context.Context, outDir string) ([]string, error) {
	log := logger.FromContext(ctx)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	paths := make([]string, len(g.definitions))
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, definition := range g.definitions {
		group.Go(func() error {
			schemaJSON, err := buildSchema(definition)
			if err != nil {
				return fmt.Errorf("failed to build schema for %s: %w", definition.name, err)
			}
			filePath := filepath.Join(outDir, definition.fileName())
			if err := os.WriteFile(filePath, schemaJSON, 0o600); err != nil {
				return fmt.Errorf("failed to write schema to %s: %w", filePath, err)
			}
			log.Info("Generated schema", "file", filePath)
			paths[i] = filePath
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func newReflector(definition schemaDefinition) *jsonschema.Reflector {
	return &jsonschema.Reflector{
		FieldNameTag:               definition.fieldTag,
		RequiredFromJSONSchemaTags: definition.optional,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		ExpandedStruct:             true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:        "string",
					Pattern:     durationPattern,
					Description: "Go duration such as 250ms, 30s or 1m",
				}
			}
			return nil
		},
	}
}

func buildSchema(definition schemaDefinition) ([]byte, error) {
	schema := newReflector(definition).Reflect(definition.source)
	schema.ID = jsonschema.ID(definition.fileName())
	schema.Version = draft07
	schema.Title = definition.title
	schema.Extras = map[string]any{"yamlCompatible": true}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return schemaJSON, nil
}
