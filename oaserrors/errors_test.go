package oaserrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("invalid value")
		err := &ConfigError{
			Option:  "prefix",
			Value:   "https://example.com/api?x=1",
			Message: "must not contain a query or fragment",
			Cause:   cause,
		}
		expected := "configuration error for prefix (value: https://example.com/api?x=1): must not contain a query or fragment: invalid value"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message with option only", func(t *testing.T) {
		err := &ConfigError{Option: "directory"}
		if err.Error() != "configuration error for directory" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &ConfigError{}
		if err.Error() != "configuration error" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message with nil value excluded", func(t *testing.T) {
		err := &ConfigError{
			Option:  "input",
			Value:   nil,
			Message: "required",
		}
		if err.Error() != "configuration error for input: required" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("missing value")
		err := &ConfigError{Cause: cause}
		//nolint:errorlint // testing pointer identity
		if unwrapped := err.Unwrap(); unwrapped != cause {
			t.Error("Unwrap should return cause")
		}
	})

	t.Run("Is matches ErrConfig", func(t *testing.T) {
		err := &ConfigError{Option: "test"}
		if !errors.Is(err, ErrConfig) {
			t.Error("ConfigError should match ErrConfig")
		}
	})

	t.Run("Is does not match other sentinels", func(t *testing.T) {
		err := &ConfigError{}
		if errors.Is(err, ErrParse) {
			t.Error("ConfigError should not match ErrParse")
		}
	})
}

func TestIOError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &IOError{
			URL:     "https://example.com/schemas/pet.json",
			Message: "fetch failed",
			Cause:   cause,
		}
		expected := "retrieval error for https://example.com/schemas/pet.json: fetch failed: connection refused"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &IOError{}
		if err.Error() != "retrieval error" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Unwrap exposes root cause", func(t *testing.T) {
		root := errors.New("no such file")
		err := fmt.Errorf("load: %w", &IOError{URL: "file:///x.yaml", Cause: root})
		if !errors.Is(err, root) {
			t.Error("should find root cause through Unwrap chain")
		}
		if !errors.Is(err, ErrIO) {
			t.Error("wrapped IOError should match ErrIO")
		}
	})
}

func TestParseError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := &ParseError{
			URL:     "file:///path/to/file.yaml",
			Format:  "yaml",
			Line:    42,
			Column:  10,
			Message: "invalid syntax",
			Cause:   cause,
		}
		expected := "parse error (yaml) in file:///path/to/file.yaml at line 42, column 10: invalid syntax: underlying error"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message with minimal fields", func(t *testing.T) {
		err := &ParseError{}
		if err.Error() != "parse error" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message with line only", func(t *testing.T) {
		err := &ParseError{Line: 10}
		if err.Error() != "parse error at line 10" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrParse", func(t *testing.T) {
		err := &ParseError{Message: "test"}
		if !errors.Is(err, ErrParse) {
			t.Error("ParseError should match ErrParse")
		}
	})

	t.Run("As extracts ParseError", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &ParseError{URL: "test.yaml", Line: 5})
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatal("errors.As should succeed")
		}
		if parseErr.URL != "test.yaml" {
			t.Errorf("unexpected URL: %s", parseErr.URL)
		}
		if parseErr.Line != 5 {
			t.Errorf("unexpected line: %d", parseErr.Line)
		}
	})
}

func TestCatalogError(t *testing.T) {
	t.Run("Error message enumerates attempts", func(t *testing.T) {
		err := &CatalogError{
			URI: "https://example.com/api/pet",
			Attempts: []Attempt{
				{URL: "file:///specs/pet.json", Err: errors.New("no such file")},
				{URL: "file:///specs/pet.yaml", Err: errors.New("no such file")},
			},
		}
		msg := err.Error()
		if !strings.Contains(msg, "no source could resolve https://example.com/api/pet") {
			t.Errorf("message should name the identifier: %s", msg)
		}
		if !strings.Contains(msg, "tried file:///specs/pet.json") {
			t.Errorf("message should list first attempt: %s", msg)
		}
		if !strings.Contains(msg, "tried file:///specs/pet.yaml") {
			t.Errorf("message should list second attempt: %s", msg)
		}
	})

	t.Run("Unwrap returns attempt errors", func(t *testing.T) {
		root := errors.New("no such file")
		err := &CatalogError{
			URI:      "https://example.com/api/pet",
			Attempts: []Attempt{{URL: "file:///specs/pet.json", Err: root}},
		}
		if !errors.Is(err, root) {
			t.Error("should find attempt error through Unwrap chain")
		}
	})

	t.Run("Is matches ErrCatalog", func(t *testing.T) {
		err := &CatalogError{URI: "test"}
		if !errors.Is(err, ErrCatalog) {
			t.Error("CatalogError should match ErrCatalog")
		}
	})
}

func TestNotASchemaError(t *testing.T) {
	t.Run("Error message", func(t *testing.T) {
		err := &NotASchemaError{URI: "https://example.com/api/openapi"}
		if err.Error() != "not a schema: https://example.com/api/openapi" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrNotASchema", func(t *testing.T) {
		err := &NotASchemaError{}
		if !errors.Is(err, ErrNotASchema) {
			t.Error("NotASchemaError should match ErrNotASchema")
		}
		if errors.Is(err, ErrCatalog) {
			t.Error("NotASchemaError should not match ErrCatalog")
		}
	})
}

func TestVersionError(t *testing.T) {
	t.Run("Error message with declared and expected", func(t *testing.T) {
		err := &VersionError{
			URI:      "https://example.com/api/openapi",
			Declared: "3.0.3",
			Expected: "3.1",
		}
		expected := `version error in https://example.com/api/openapi: declared "3.0.3", expected "3.1"`
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &VersionError{Message: "no openapi field"}
		if err.Error() != "version error: no openapi field" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrVersion", func(t *testing.T) {
		err := &VersionError{Declared: "2.0"}
		if !errors.Is(err, ErrVersion) {
			t.Error("VersionError should match ErrVersion")
		}
	})
}

func TestAnnotationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		err := &AnnotationError{
			Keyword:  "oasChildren",
			Location: "/paths/~1pets",
			Message:  "value is not a string",
		}
		expected := "annotation error for oasChildren at /paths/~1pets: value is not a string"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrAnnotation", func(t *testing.T) {
		err := &AnnotationError{Keyword: "oasType"}
		if !errors.Is(err, ErrAnnotation) {
			t.Error("AnnotationError should match ErrAnnotation")
		}
	})
}

func TestReferenceError(t *testing.T) {
	t.Run("Error message with source and target", func(t *testing.T) {
		err := &ReferenceError{
			Source: "https://example.com/api/openapi#/paths/~1pets/get",
			Target: "https://example.com/api/missing",
		}
		expected := "reference error: target https://example.com/api/missing does not exist (referenced from https://example.com/api/openapi#/paths/~1pets/get)"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrReference", func(t *testing.T) {
		err := &ReferenceError{Target: "test"}
		if !errors.Is(err, ErrReference) {
			t.Error("ReferenceError should match ErrReference")
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("expected integer, got string")
		err := &ValidationError{
			Location:  "/components/schemas/Pet/example",
			SchemaURI: "https://example.com/api/openapi#/components/schemas/Pet",
			Message:   "example does not match schema",
			Cause:     cause,
		}
		expected := "validation error at /components/schemas/Pet/example against https://example.com/api/openapi#/components/schemas/Pet: example does not match schema: expected integer, got string"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("format error")
		err := &ValidationError{Cause: cause}
		//nolint:errorlint // testing pointer identity
		if unwrapped := err.Unwrap(); unwrapped != cause {
			t.Error("Unwrap should return cause")
		}
	})

	t.Run("Is matches ErrValidation", func(t *testing.T) {
		err := &ValidationError{Location: "test"}
		if !errors.Is(err, ErrValidation) {
			t.Error("ValidationError should match ErrValidation")
		}
	})
}

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	sentinels := []error{
		ErrConfig,
		ErrIO,
		ErrParse,
		ErrCatalog,
		ErrNotASchema,
		ErrVersion,
		ErrAnnotation,
		ErrReference,
		ErrValidation,
	}

	for i, s1 := range sentinels {
		for j, s2 := range sentinels {
			if i != j && errors.Is(s1, s2) {
				t.Errorf("sentinel errors should be distinct: %v should not match %v", s1, s2)
			}
		}
	}
}

func TestErrorChaining(t *testing.T) {
	t.Run("deeply wrapped ParseError", func(t *testing.T) {
		parseErr := &ParseError{URL: "api.yaml", Message: "invalid"}
		wrapped1 := fmt.Errorf("layer 1: %w", parseErr)
		wrapped2 := fmt.Errorf("layer 2: %w", wrapped1)

		if !errors.Is(wrapped2, ErrParse) {
			t.Error("deeply wrapped ParseError should match ErrParse")
		}

		var extracted *ParseError
		if !errors.As(wrapped2, &extracted) {
			t.Fatal("errors.As should work through wrapping")
		}
		if extracted.URL != "api.yaml" {
			t.Errorf("unexpected URL: %s", extracted.URL)
		}
	})

	t.Run("CatalogError chains attempt causes", func(t *testing.T) {
		rootCause := errors.New("network timeout")
		catErr := &CatalogError{
			URI: "https://example.com/api/pet",
			Attempts: []Attempt{
				{URL: "https://example.com/schemas/pet.json", Err: &IOError{URL: "https://example.com/schemas/pet.json", Cause: rootCause}},
			},
		}
		wrapped := fmt.Errorf("failed to load: %w", catErr)

		if !errors.Is(wrapped, rootCause) {
			t.Error("should be able to find root cause through Unwrap chain")
		}
		if !errors.Is(wrapped, ErrIO) {
			t.Error("should match ErrIO through attempt chain")
		}
	})
}

func TestErrorList(t *testing.T) {
	t.Run("empty list is not an error", func(t *testing.T) {
		var list ErrorList
		if list.Err() != nil {
			t.Error("empty list should yield nil")
		}
		if list.Len() != 0 {
			t.Errorf("unexpected length: %d", list.Len())
		}
	})

	t.Run("nils are skipped", func(t *testing.T) {
		var list ErrorList
		list.Add(nil, errors.New("one"), nil, errors.New("two"))
		if list.Len() != 2 {
			t.Fatalf("unexpected length: %d", list.Len())
		}
	})

	t.Run("message joins one per line", func(t *testing.T) {
		var list ErrorList
		list.Add(errors.New("first"), errors.New("second"))
		expected := "first\nsecond"
		if list.Error() != expected {
			t.Errorf("unexpected message: %q", list.Error())
		}
	})

	t.Run("matches collected categories through Unwrap", func(t *testing.T) {
		var list ErrorList
		list.Add(&IOError{URL: "file:///x"}, &ReferenceError{Target: "https://example.com/y"})
		err := list.Err()
		if !errors.Is(err, ErrIO) {
			t.Error("should match ErrIO")
		}
		if !errors.Is(err, ErrReference) {
			t.Error("should match ErrReference")
		}
		if errors.Is(err, ErrParse) {
			t.Error("should not match ErrParse")
		}
	})
}
