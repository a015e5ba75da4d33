// Package oaserrors provides structured error types for oasgraph.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ConfigError: Invalid identifier mappings, prefixes, or input options
//   - IOError: File and network retrieval failures
//   - ParseError: YAML/JSON deserialization failures
//   - CatalogError: Resource lookup failures across the configured sources
//   - NotASchemaError: Schema operations requested against non-schema content
//   - VersionError: Unsupported or conflicting OpenAPI version declarations
//   - AnnotationError: Internal annotation defects from an evaluator
//   - ReferenceError: Dangling references discovered during graph validation
//   - ValidationError: Instance content that fails its governing schema
//
// # Usage with errors.Is
//
//	resource, err := cat.GetResource(uri, "3.1")
//	if err != nil {
//	    var catErr *oaserrors.CatalogError
//	    if errors.As(err, &catErr) {
//	        for _, attempt := range catErr.Attempts {
//	            // Report each location that was tried
//	        }
//	    }
//	}
package oaserrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")

	// ErrIO indicates a retrieval failure from a file or network location.
	ErrIO = errors.New("retrieval error")

	// ErrParse indicates a deserialization failure.
	ErrParse = errors.New("parse error")

	// ErrCatalog indicates a resource could not be located by any source.
	ErrCatalog = errors.New("catalog error")

	// ErrNotASchema indicates a schema operation against non-schema content.
	ErrNotASchema = errors.New("not a schema")

	// ErrVersion indicates an unsupported or conflicting OpenAPI version.
	ErrVersion = errors.New("version error")

	// ErrAnnotation indicates an internal defect in evaluator output.
	ErrAnnotation = errors.New("annotation error")

	// ErrReference indicates a reference whose target could not be resolved.
	ErrReference = errors.New("reference error")

	// ErrValidation indicates instance content failed its governing schema.
	ErrValidation = errors.New("validation error")
)

// ConfigError represents an invalid configuration or input.
// This includes malformed identifier mappings, illegal prefixes,
// and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// IOError represents a failure to retrieve content from a location.
type IOError struct {
	// URL is the physical location that failed to load
	URL string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *IOError) Error() string {
	msg := "retrieval error"
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *IOError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// ParseError represents a failure to deserialize retrieved content.
// This includes YAML/JSON syntax errors and unknown-format fallthrough,
// where both parse attempts failed.
type ParseError struct {
	// URL is the physical location of the content
	URL string
	// Format is the format that was attempted: "json", "yaml", or "" when
	// the format was unknown and both were tried
	Format string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Format != "" {
		msg += " (" + e.Format + ")"
	}
	if e.URL != "" {
		msg += " in " + e.URL
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Attempt records one candidate location tried during resolution.
type Attempt struct {
	// URL is the candidate location
	URL string
	// Err is the failure for this candidate
	Err error
}

// CatalogError represents a failure to locate a resource.
// Attempts enumerates every candidate location that was tried,
// in the order the sources tried them.
type CatalogError struct {
	// URI is the logical identifier that could not be resolved
	URI string
	// Attempts lists each candidate location and its failure
	Attempts []Attempt
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message listing all attempts.
func (e *CatalogError) Error() string {
	var sb strings.Builder
	sb.WriteString("catalog error")
	if e.URI != "" {
		sb.WriteString(": no source could resolve ")
		sb.WriteString(e.URI)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	for _, a := range e.Attempts {
		sb.WriteString("\n\ttried ")
		sb.WriteString(a.URL)
		if a.Err != nil {
			sb.WriteString(": ")
			sb.WriteString(a.Err.Error())
		}
	}
	return sb.String()
}

// Unwrap returns the errors from each attempt for error chaining.
func (e *CatalogError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Is reports whether target matches this error type.
func (e *CatalogError) Is(target error) bool {
	return target == ErrCatalog
}

// NotASchemaError represents a schema operation requested against
// content that is not a JSON Schema.
type NotASchemaError struct {
	// URI is the logical identifier of the non-schema content
	URI string
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *NotASchemaError) Error() string {
	msg := "not a schema"
	if e.URI != "" {
		msg += ": " + e.URI
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *NotASchemaError) Is(target error) bool {
	return target == ErrNotASchema
}

// VersionError represents an unsupported or conflicting OpenAPI version.
type VersionError struct {
	// URI is the logical identifier of the document, if known
	URI string
	// Declared is the version string found in the document (may be empty)
	Declared string
	// Expected is the version partition that was requested (may be empty)
	Expected string
	// Message describes the version problem
	Message string
}

// Error returns a human-readable error message.
func (e *VersionError) Error() string {
	msg := "version error"
	if e.URI != "" {
		msg += " in " + e.URI
	}
	if e.Declared != "" {
		msg += fmt.Sprintf(": declared %q", e.Declared)
		if e.Expected != "" {
			msg += fmt.Sprintf(", expected %q", e.Expected)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *VersionError) Is(target error) bool {
	return target == ErrVersion
}

// AnnotationError represents an internal defect in evaluator output,
// such as a malformed annotation value or an unknown annotation keyword.
// These indicate a bug rather than a problem with the API description.
type AnnotationError struct {
	// Keyword is the annotation keyword with the defect
	Keyword string
	// Location is the instance location the annotation applied to
	Location string
	// Value is the malformed annotation value (may be nil)
	Value any
	// Message describes the defect
	Message string
}

// Error returns a human-readable error message.
func (e *AnnotationError) Error() string {
	msg := "annotation error"
	if e.Keyword != "" {
		msg += " for " + e.Keyword
	}
	if e.Location != "" {
		msg += " at " + e.Location
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *AnnotationError) Is(target error) bool {
	return target == ErrAnnotation
}

// ReferenceError represents a reference whose target does not exist
// in the constructed graph.
type ReferenceError struct {
	// Source is the location of the referencing value
	Source string
	// Target is the identifier that could not be resolved
	Target string
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.Target != "" {
		msg += ": target " + e.Target + " does not exist"
	}
	if e.Source != "" {
		msg += " (referenced from " + e.Source + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrReference
}

// ValidationError represents instance content that failed its
// governing schema, such as an example that does not match the
// schema it illustrates.
type ValidationError struct {
	// Location is the instance location of the failing content
	Location string
	// SchemaURI is the identifier of the governing schema
	SchemaURI string
	// Message describes the validation failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Location != "" {
		msg += " at " + e.Location
	}
	if e.SchemaURI != "" {
		msg += " against " + e.SchemaURI
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorList aggregates the errors collected across a traversal.
// Collection never stops at the first problem; the whole aggregate is
// reported at the top.
type ErrorList struct {
	errs []error
}

// Add appends the given errors, skipping nils.
func (l *ErrorList) Add(errs ...error) {
	for _, err := range errs {
		if err != nil {
			l.errs = append(l.errs, err)
		}
	}
}

// Len returns the number of collected errors.
func (l *ErrorList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.errs)
}

// Errors returns the collected errors in collection order.
func (l *ErrorList) Errors() []error {
	if l == nil {
		return nil
	}
	return l.errs
}

// Err returns nil when the list is empty, the list itself otherwise.
func (l *ErrorList) Err() error {
	if l.Len() == 0 {
		return nil
	}
	return l
}

// Error returns the collected messages, one per line.
func (l *ErrorList) Error() string {
	var sb strings.Builder
	for i, err := range l.errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the collected errors for errors.Is/As matching.
func (l *ErrorList) Unwrap() []error {
	return l.Errors()
}
