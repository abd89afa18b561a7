// Package store loads and saves the schema-validated JSON documents.
//
// A Document owns the decoded data for one backing file and is the only
// writer of that file. Mutations are made in place on Data and persisted
// with Sync; nothing is written implicitly.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nibzard/jobqueue-go/internal/schema"
)

// schemaKey is the document key holding the optional schema reference.
const schemaKey = "$schema"

// IOError reports a document file that could not be read or written.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// SchemaValidationError reports a document that does not conform to its
// schema.
type SchemaValidationError struct {
	Path string
	Err  *schema.ValidationError
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s does not match schema %s: %v", e.Path, e.Err.Schema, e.Err)
}

// Unwrap returns the underlying validation error.
func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// Document is a decoded JSON document bound to its backing file.
type Document[T any] struct {
	// Data is the decoded document. Callers mutate it in place and call Sync.
	Data T
	// SchemaRef is the "$schema" value read from the file, re-attached on
	// every write. Empty when the file had none.
	SchemaRef string

	path   string
	schema *schema.Schema
}

// Load reads the file at path and decodes it against sch.
func Load[T any](path string, sch *schema.Schema) (*Document[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	value, err := schema.Decode[T](sch, data)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return nil, &SchemaValidationError{Path: path, Err: ve}
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return &Document[T]{
		Data:      value,
		SchemaRef: schemaRef(data),
		path:      path,
		schema:    sch,
	}, nil
}

// schemaRef extracts a string "$schema" from an already validated document.
func schemaRef(data []byte) string {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	raw, ok := head[schemaKey]
	if !ok {
		return ""
	}
	var ref string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return ""
	}
	return ref
}

// Path returns the backing file path.
func (d *Document[T]) Path() string {
	return d.path
}

// Encode renders the document as it would be written by Sync.
func (d *Document[T]) Encode() ([]byte, error) {
	out, err := encode(&d.Data, d.SchemaRef)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.path, err)
	}
	return out, nil
}

// encode renders v with ref attached under "$schema".
func encode(v any, ref string) ([]byte, error) {
	body, err := schema.Encode(v)
	if err != nil || ref == "" {
		return body, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	refJSON, err := json.Marshal(ref)
	if err != nil {
		return nil, err
	}
	fields[schemaKey] = refJSON

	// Map keys are sorted on output, which places "$schema" first.
	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Sync validates the in-memory data and overwrites the backing file with it.
// An invalid document is never written.
func (d *Document[T]) Sync() error {
	out, err := d.Encode()
	if err != nil {
		return err
	}

	raw, err := d.schema.Parse(out)
	if err == nil {
		err = d.schema.Validate(raw)
	}
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return &SchemaValidationError{Path: d.path, Err: ve}
		}
		return err
	}

	if err := os.WriteFile(d.path, out, 0644); err != nil {
		return &IOError{Op: "write", Path: d.path, Err: err}
	}
	return nil
}

// Create writes an empty document holding only the schema reference. An
// existing file is left untouched; created reports whether a file was
// written.
func Create(path string, empty any, schemaRef string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, &IOError{Op: "write", Path: path, Err: err}
	}

	out, err := encode(empty, schemaRef)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return false, &IOError{Op: "write", Path: path, Err: err}
	}
	return true, nil
}
