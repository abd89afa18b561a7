// Package schema compiles the embedded JSON Schemas and validates documents
// and records against them.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/jobqueue-go/internal/utils"
)

//go:embed schemas/*.schema.json
var files embed.FS

// baseURL is the resource location every embedded schema is registered
// under. Relative $refs between the schemas resolve against it.
const baseURL = "https://github.com/nibzard/jobqueue-go/schemas/"

// Name identifies one of the embedded schemas.
type Name string

const (
	Job         Name = "job"
	JobQueue    Name = "jobqueue"
	Project     Name = "project"
	ProjectPool Name = "projectpool"
	Config      Name = "config"
)

// Names returns every embedded schema name.
func Names() []Name {
	return []Name{Job, JobQueue, Project, ProjectPool, Config}
}

// FileName returns the on-disk file name of the schema.
func (n Name) FileName() string {
	return string(n) + ".schema.json"
}

// Raw returns the embedded schema source.
func Raw(name Name) ([]byte, error) {
	data, err := files.ReadFile("schemas/" + name.FileName())
	if err != nil {
		return nil, fmt.Errorf("read embedded schema %s: %w", name, err)
	}
	return data, nil
}

// Schema is a compiled JSON Schema.
type Schema struct {
	name     Name
	compiled *jsonschema.Schema
}

// Name returns the schema name.
func (s *Schema) Name() Name {
	return s.name
}

// Set holds every compiled embedded schema.
type Set struct {
	schemas map[Name]*Schema
}

// Compile compiles all embedded schemas.
func Compile() (*Set, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	for _, name := range Names() {
		data, err := Raw(name)
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(baseURL+name.FileName(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	set := &Set{schemas: make(map[Name]*Schema, len(Names()))}
	for _, name := range Names() {
		compiled, err := compiler.Compile(baseURL + name.FileName())
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		set.schemas[name] = &Schema{name: name, compiled: compiled}
	}
	return set, nil
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
)

// Default returns the process-wide compiled schema set. The schemas are
// embedded, so a compile failure is a build defect and panics.
func Default() *Set {
	defaultOnce.Do(func() {
		set, err := Compile()
		if err != nil {
			panic(err)
		}
		defaultSet = set
	})
	return defaultSet
}

// Get returns the compiled schema for name, or nil if unknown.
func (s *Set) Get(name Name) *Schema {
	return s.schemas[name]
}

// Issue is a single schema violation.
type Issue struct {
	Path    string // dotted path to the offending value, empty for the root
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidationError lists every violation found in one value.
type ValidationError struct {
	Schema Name
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d problems:", len(e.Issues))
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.String())
	}
	return b.String()
}

// Validate checks a decoded JSON value (as produced by json.Unmarshal into
// an interface{}) against the schema.
func (s *Schema) Validate(v interface{}) error {
	err := s.compiled.Validate(v)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate %s: %w", s.name, err)
	}

	result := &ValidationError{Schema: s.name}
	collectIssues(result, ve)
	return result
}

func collectIssues(result *ValidationError, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Issues = append(result.Issues, Issue{
			Path:    utils.JSONPointerToPath(err.InstanceLocation),
			Message: issueMessage(err),
		})
		return
	}

	for _, cause := range err.Causes {
		collectIssues(result, cause)
	}
}

// issueMessage rewrites the messages whose raw form only makes sense next to
// the schema source.
func issueMessage(err *jsonschema.ValidationError) string {
	if strings.HasSuffix(err.KeywordLocation, "/pattern") {
		return "must not be empty or whitespace"
	}
	return err.Message
}

// Normalizer is implemented by decoded values that canonicalize themselves
// after decoding and before encoding.
type Normalizer interface {
	Normalize()
}

// Parse parses JSON text into a generic value suitable for Validate.
// Syntax errors are reported as a single root issue.
func (s *Schema) Parse(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ValidationError{
			Schema: s.name,
			Issues: []Issue{{Message: fmt.Sprintf("JSON invalid: %v", err)}},
		}
	}
	return v, nil
}

// Decode parses data, validates it against s and decodes it into T.
func Decode[T any](s *Schema, data []byte) (T, error) {
	var out T
	raw, err := s.Parse(data)
	if err != nil {
		return out, err
	}
	if err := s.Validate(raw); err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", s.name, err)
	}
	if n, ok := any(&out).(Normalizer); ok {
		n.Normalize()
	}
	return out, nil
}

// Encode renders v as 2-space indented JSON with a trailing newline.
func Encode(v any) ([]byte, error) {
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return append(data, '\n'), nil
}
