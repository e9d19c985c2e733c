// Package schemas validates JSON artifacts against the files under schemas/.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema file names under schemas/
const (
	AssemblySchema      = "schemas/assembly.schema.json"
	ResultRecordSchema  = "schemas/result_record.schema.json"
	SelectRequestSchema = "schemas/select_request.schema.json"
)

// compiled caches parsed schema files by absolute path.
var compiled sync.Map

// ResolveSchemaPath looks for relativePath in the working directory and up to
// two parents, so the CLI and package tests find the same file. It returns ""
// when there is no such file.
func ResolveSchemaPath(relativePath string) string {
	dir := ""
	for i := 0; i < 3; i++ {
		abs, err := filepath.Abs(filepath.Join(dir, relativePath))
		if err == nil && fileExists(abs) {
			return abs
		}
		dir = filepath.Join(dir, "..")
	}
	return ""
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Errors)+1)
	lines = append(lines, fmt.Sprintf("validation failed with %d error(s):", len(e.Errors)))
	for _, fe := range e.Errors {
		lines = append(lines, "  "+fe.Field+": "+fe.Message)
	}
	return strings.Join(lines, "\n")
}

// SchemaLoadError means the schema itself could not be read or compiled.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSON validates the JSON file at jsonPath.
func ValidateJSON(schemaPath, jsonPath string) error {
	abs, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}
	if !fileExists(abs) {
		return fmt.Errorf("JSON file not found: %s", abs)
	}
	schema, err := loadSchemaFile(schemaPath)
	if err != nil {
		return err
	}
	return check(schema, gojsonschema.NewReferenceLoader("file://"+abs))
}

// ValidateBytes validates an in-memory document, such as output about to be written.
func ValidateBytes(schemaPath string, data []byte) error {
	schema, err := loadSchemaFile(schemaPath)
	if err != nil {
		return err
	}
	return check(schema, gojsonschema.NewBytesLoader(data))
}

// ValidateJSONString validates a document against an inline schema.
func ValidateJSONString(schemaContent, jsonContent string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return &SchemaLoadError{Path: "(inline)", Cause: err}
	}
	return check(schema, gojsonschema.NewStringLoader(jsonContent))
}

func loadSchemaFile(schemaPath string) (*gojsonschema.Schema, error) {
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}
	if cached, ok := compiled.Load(abs); ok {
		return cached.(*gojsonschema.Schema), nil
	}
	if !fileExists(abs) {
		return nil, fmt.Errorf("schema file not found: %s", abs)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + abs))
	if err != nil {
		return nil, &SchemaLoadError{Path: abs, Cause: err}
	}
	compiled.Store(abs, schema)
	return schema, nil
}

func check(schema *gojsonschema.Schema, document gojsonschema.JSONLoader) error {
	result, err := schema.Validate(document)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, re := range result.Errors() {
		field := re.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: re.Description()})
	}
	return verr
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
