// Package apidesc drives validation of a complete OpenAPI description:
// it walks the reachable resources through a catalog, evaluates each
// against the OAS object model, feeds the resulting annotations into a
// reference graph in a fixed keyword order, and validates example
// content against its governing schemas.
package apidesc

import (
	"github.com/oasgraph/oasgraph/document"
	"github.com/oasgraph/oasgraph/graph"
)

// Annotation is the unit of evaluator output consumed by graph
// handlers.
type Annotation = graph.Annotation

// EvalResult is the outcome of evaluating one resource.
type EvalResult struct {
	// Valid reports whether the resource conforms to the object model
	Valid bool
	// Annotations are the produced annotations, in document order
	Annotations []Annotation
	// Errors are the conformance problems found
	Errors []error
}

// Evaluator produces annotations describing how a document conforms
// to the OAS object model. oasType names the semantic type expected
// at the document root ("" means the default for the document).
type Evaluator interface {
	Evaluate(node *document.Node, oasType string) (*EvalResult, error)
}
