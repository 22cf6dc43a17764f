package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	invopop "github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonschema"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

type Schema map[string]any
type Result = jsonschema.EvaluationResult

// compiled caches compiled schemas by their JSON text.
var compiled sync.Map

var reflector = &invopop.Reflector{
	Anonymous:                 true,
	ExpandedStruct:            true,
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

// FromType reflects the JSON schema of v's type. Fields without omitempty
// are required.
func FromType(v any) (Schema, error) {
	reflected := reflector.Reflect(v)
	reflected.Version = ""
	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema map: %w", err)
	}
	return s, nil
}

// MustFromType is FromType for package-level tool definitions.
func MustFromType(v any) Schema {
	s, err := FromType(v)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// JSON returns the schema document, as tool definitions expect it.
func (s *Schema) JSON() (json.RawMessage, error) {
	if s == nil {
		return nil, errors.New("schema is nil")
	}
	return json.Marshal(s)
}

func (s *Schema) Compile(ctx context.Context) (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	key := string(bytes)
	if cached, ok := compiled.Load(key); ok {
		recordCompile(ctx, true)
		return cached.(*jsonschema.Schema), nil
	}
	schema, err := jsonschema.NewCompiler().Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	actual, _ := compiled.LoadOrStore(key, schema)
	recordCompile(ctx, false)
	return actual.(*jsonschema.Schema), nil
}

func (s *Schema) Validate(ctx context.Context, value any) (*Result, error) {
	schema, err := s.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, nil
	}
	start := time.Now()
	result := schema.Validate(value)
	recordValidation(ctx, time.Since(start), result.Valid)
	if result.Valid {
		return result, nil
	}
	return nil, &ValidationError{Problems: problems(result)}
}

// ValidationError lists every failing keyword, sorted by location.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Problems, "; ")
}

func problems(result *Result) []string {
	out := make([]string, 0, len(result.Errors))
	for keyword, evalErr := range result.Errors {
		out = append(out, fmt.Sprintf("%s: %v", keyword, evalErr))
	}
	for _, detail := range result.Details {
		if detail == nil || detail.Valid {
			continue
		}
		for keyword, evalErr := range detail.Errors {
			location := detail.InstanceLocation
			if location == "" {
				location = "/"
			}
			out = append(out, fmt.Sprintf("%s %s: %v", location, keyword, evalErr))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Decode copies validated tool arguments into out using its json tags.
func Decode(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Squash:      true,
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}
