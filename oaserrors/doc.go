// Package oaserrors provides structured error types for the oasgraph library.
//
// Import path: github.com/oasgraph/oasgraph/oaserrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish between different categories of errors and implement
// appropriate recovery strategies.
//
// # Error Types
//
// The package provides nine core error types:
//
//   - [ConfigError]: Invalid identifier mappings, prefixes, or input options
//   - [IOError]: File and network retrieval failures
//   - [ParseError]: YAML/JSON deserialization failures
//   - [CatalogError]: Resource lookup failures across the configured sources
//   - [NotASchemaError]: Schema operations against non-schema content
//   - [VersionError]: Unsupported or conflicting OpenAPI version declarations
//   - [AnnotationError]: Internal annotation defects from an evaluator
//   - [ReferenceError]: Dangling references discovered during graph validation
//   - [ValidationError]: Instance content that fails its governing schema
//
// [ErrorList] aggregates errors collected across a traversal; validation
// never stops at the first problem.
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrConfig]: Matches any [ConfigError]
//   - [ErrIO]: Matches any [IOError]
//   - [ErrParse]: Matches any [ParseError]
//   - [ErrCatalog]: Matches any [CatalogError]
//   - [ErrNotASchema]: Matches any [NotASchemaError]
//   - [ErrVersion]: Matches any [VersionError]
//   - [ErrAnnotation]: Matches any [AnnotationError]
//   - [ErrReference]: Matches any [ReferenceError]
//   - [ErrValidation]: Matches any [ValidationError]
//
// # Usage Examples
//
// Check error category with errors.Is():
//
//	resource, err := cat.GetResource(uri, "3.1")
//	if errors.Is(err, oaserrors.ErrCatalog) {
//	    // No source could locate the resource
//	}
//
// Extract error details with errors.As():
//
//	var catErr *oaserrors.CatalogError
//	if errors.As(err, &catErr) {
//	    for _, attempt := range catErr.Attempts {
//	        fmt.Printf("tried %s: %v\n", attempt.URL, attempt.Err)
//	    }
//	}
//
// # Error Chaining
//
// All failure-wrapping types support error chaining via the Cause field and
// Unwrap() method. This allows finding root causes through the standard
// error chain:
//
//	var ioErr *oaserrors.IOError
//	if errors.As(err, &ioErr) {
//	    if errors.Is(ioErr.Cause, os.ErrNotExist) {
//	        // The mapped file doesn't exist
//	    }
//	}
package oaserrors
