// Package graph accumulates RDF-like triples describing a validated
// API description.
//
// Import path: github.com/oasgraph/oasgraph/graph
//
// The driver feeds annotations into per-keyword handler methods
// (AddOASType, AddOASChildren, ...), which translate them into
// provenance, typing, structural, and reference triples under the OAS
// ontology namespace for the description's version. After the full
// reachable description is processed, [Graph.ValidateReferences]
// checks every reference edge against the set of typed nodes and
// reports the dangling ones.
package graph

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/document"
	"github.com/oasgraph/oasgraph/jsonptr"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// RDFType is the rdf:type predicate.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Annotation is one unit of evaluator output: the keyword that
// produced it, its value, and where it applies.
type Annotation struct {
	// Keyword is the producing annotation keyword, e.g. "oasType"
	Keyword string
	// Value is the annotation payload; its shape depends on Keyword
	Value any
	// InstanceLocation is the JSON Pointer of the annotated value
	// within the evaluated document
	InstanceLocation string
	// KeywordLocation is the evaluation path within the evaluating schema
	KeywordLocation string
	// AbsoluteKeywordLocation is the absolute schema location
	AbsoluteKeywordLocation string
}

// RefTarget is a reference target discovered while processing
// annotations, to be validated by the driver.
type RefTarget struct {
	// URI is the absolute target identifier
	URI string
	// OASType is the declared semantic type, "" when unknown
	OASType string
}

// Result is the outcome of one handler invocation.
type Result struct {
	// Errors are the problems found, merged into the run aggregate
	Errors []error
	// RefTargets are newly discovered reference targets
	RefTargets []RefTarget
}

// Triple is one (subject, predicate, object) fact. Literal marks the
// object as a literal rather than an IRI.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
	Literal   bool
}

// Graph is an append-only triple store for one description.
type Graph struct {
	ns          string
	triples     []Triple
	subjects    map[string]bool
	references  []refEdge
	testMode    bool
	lineNumbers bool
	logger      oasgraph.Logger
}

type refEdge struct {
	source string
	target string
}

// Option configures a Graph.
type Option func(*Graph)

// WithTestMode suppresses environment-specific triples (locatedAt,
// filename) so output is reproducible across machines.
func WithTestMode() Option {
	return func(g *Graph) { g.testMode = true }
}

// WithLineNumbers emits line triples from the sourcemap when
// available.
func WithLineNumbers() Option {
	return func(g *Graph) { g.lineNumbers = true }
}

// WithLogger sets the graph's logger. Defaults to NopLogger.
func WithLogger(logger oasgraph.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

// New creates a Graph for an OAS version partition ("3.0" or "3.1").
func New(partition string, opts ...Option) *Graph {
	g := &Graph{
		ns:       fmt.Sprintf("https://spec.openapis.org/oas/v%s/ontology#", partition),
		subjects: make(map[string]bool),
		logger:   oasgraph.NopLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Namespace returns the ontology namespace in use.
func (g *Graph) Namespace() string { return g.ns }

// Len returns the number of accumulated triples.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the accumulated triples in insertion order.
func (g *Graph) Triples() []Triple { return g.triples }

func (g *Graph) add(t Triple) {
	g.triples = append(g.triples, t)
	g.subjects[t.Subject] = true
}

// AddResource records the provenance of one loaded resource: where it
// was located and its filename. Both are environment-specific and
// suppressed in test mode; the subject is still registered so
// reference validation knows the resource exists.
func (g *Graph) AddResource(url, uri, filename string) {
	g.subjects[uri] = true
	if g.testMode {
		return
	}
	g.add(Triple{Subject: uri, Predicate: g.ns + "locatedAt", Object: url})
	if filename != "" {
		g.add(Triple{Subject: uri, Predicate: g.ns + "filename", Object: filename, Literal: true})
	}
}

// instanceURI composes the absolute identifier of an annotated value
// from the document's base identifier and an instance pointer.
func instanceURI(doc *document.Node, ptr string) string {
	if ptr == "" {
		return doc.URI
	}
	if strings.Contains(doc.URI, "#") {
		return doc.URI + ptr
	}
	return doc.URI + "#" + ptr
}

// valueAt reads the raw value at an instance pointer of the document.
func valueAt(doc *document.Node, ptr string) (any, error) {
	return jsonptr.Evaluate(doc.Value, ptr)
}

// annotationDefect builds the defect-class error for a malformed
// annotation payload.
func annotationDefect(ann Annotation, msg string) error {
	return &oaserrors.AnnotationError{
		Keyword:  ann.Keyword,
		Location: ann.InstanceLocation,
		Value:    ann.Value,
		Message:  msg,
	}
}

// stringSlice coerces an annotation payload into a string slice.
func stringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		return []string{v}, true
	}
	return nil, false
}

// AddOASType asserts the semantic type of the annotated value.
func (g *Graph) AddOASType(ann Annotation, doc *document.Node) Result {
	typeName, ok := ann.Value.(string)
	if !ok {
		return Result{Errors: []error{annotationDefect(ann, "value is not a string")}}
	}
	subject := instanceURI(doc, ann.InstanceLocation)
	g.add(Triple{Subject: subject, Predicate: RDFType, Object: g.ns + typeName})
	g.addLine(subject, doc, ann.InstanceLocation)
	return Result{}
}

// addLine emits a line triple when line numbering is on and the
// sourcemap knows the position.
func (g *Graph) addLine(subject string, doc *document.Node, ptr string) {
	if !g.lineNumbers {
		return
	}
	sm := doc.SourceMap()
	if sm == nil {
		return
	}
	loc := sm.Get(ptr)
	if !loc.IsKnown() {
		return
	}
	g.add(Triple{Subject: subject, Predicate: g.ns + "line",
		Object: fmt.Sprintf("%d", loc.Line), Literal: true})
}

// AddOASChildren records parent/child structural edges. The payload
// is a list of child pointers relative to the instance location; each
// forward edge is named after the field holding the child, so paths
// hang off a "paths" predicate and info off an "info" predicate.
func (g *Graph) AddOASChildren(ann Annotation, doc *document.Node) Result {
	relPtrs, ok := stringSlice(ann.Value)
	if !ok {
		return Result{Errors: []error{annotationDefect(ann, "value is not a list of pointers")}}
	}
	var result Result
	parent := instanceURI(doc, ann.InstanceLocation)
	for _, rel := range relPtrs {
		tokens, err := jsonptr.Parse(rel)
		if err != nil || len(tokens) == 0 {
			result.Errors = append(result.Errors, annotationDefect(ann, "invalid child pointer"))
			continue
		}
		child := instanceURI(doc, ann.InstanceLocation+rel)
		g.add(Triple{Subject: parent, Predicate: g.ns + tokens[0], Object: child})
		g.add(Triple{Subject: child, Predicate: g.ns + "parent", Object: parent})
	}
	return result
}

// AddOASReferences records reference edges and reports their targets
// for recursive validation. The payload maps the relative pointer of
// each reference field to the declared type of its target ("" when
// the target type is unknown).
func (g *Graph) AddOASReferences(ann Annotation, doc *document.Node) Result {
	fields, ok := ann.Value.(map[string]string)
	if !ok {
		raw, isMap := ann.Value.(map[string]any)
		if !isMap {
			return Result{Errors: []error{annotationDefect(ann, "value is not a pointer-to-type map")}}
		}
		fields = make(map[string]string, len(raw))
		for k, v := range raw {
			s, isStr := v.(string)
			if !isStr {
				return Result{Errors: []error{annotationDefect(ann, "target type is not a string")}}
			}
			fields[k] = s
		}
	}

	var result Result
	source := instanceURI(doc, ann.InstanceLocation)
	for rel, targetType := range fields {
		refValue, err := valueAt(doc, ann.InstanceLocation+rel)
		if err != nil {
			result.Errors = append(result.Errors, annotationDefect(ann, err.Error()))
			continue
		}
		ref, isStr := refValue.(string)
		if !isStr {
			result.Errors = append(result.Errors, annotationDefect(ann, "reference value is not a string"))
			continue
		}
		target, err := resolveReference(doc.URI, ref)
		if err != nil {
			result.Errors = append(result.Errors, &oaserrors.ReferenceError{
				Source:  source,
				Target:  ref,
				Message: "reference is not a valid URI",
			})
			continue
		}
		g.add(Triple{Subject: source, Predicate: g.ns + "references", Object: target})
		g.references = append(g.references, refEdge{source: source, target: target})
		result.RefTargets = append(result.RefTargets, RefTarget{URI: target, OASType: targetType})
	}
	return result
}

// resolveReference resolves a possibly-relative reference against the
// document's base identifier.
func resolveReference(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// AddOASLiterals records literal-valued fields. The payload is a list
// of field pointers relative to the instance location; each becomes a
// triple whose predicate is the field name.
func (g *Graph) AddOASLiterals(ann Annotation, doc *document.Node) Result {
	relPtrs, ok := stringSlice(ann.Value)
	if !ok {
		return Result{Errors: []error{annotationDefect(ann, "value is not a list of pointers")}}
	}
	var result Result
	subject := instanceURI(doc, ann.InstanceLocation)
	for _, rel := range relPtrs {
		value, err := valueAt(doc, ann.InstanceLocation+rel)
		if err != nil {
			result.Errors = append(result.Errors, annotationDefect(ann, err.Error()))
			continue
		}
		tokens, err := jsonptr.Parse(rel)
		if err != nil || len(tokens) == 0 {
			result.Errors = append(result.Errors, annotationDefect(ann, "invalid field pointer"))
			continue
		}
		g.add(Triple{
			Subject:   subject,
			Predicate: g.ns + tokens[len(tokens)-1],
			Object:    renderLiteral(value),
			Literal:   true,
		})
	}
	return result
}

// AddOASExtensible marks values that accept specification extensions.
func (g *Graph) AddOASExtensible(ann Annotation, doc *document.Node) Result {
	extensible, ok := ann.Value.(bool)
	if !ok {
		return Result{Errors: []error{annotationDefect(ann, "value is not a boolean")}}
	}
	if extensible {
		subject := instanceURI(doc, ann.InstanceLocation)
		g.add(Triple{Subject: subject, Predicate: g.ns + "allowsExtensions",
			Object: "true", Literal: true})
	}
	return Result{}
}

// AddOASAPILinks records links into the running API (server URLs).
func (g *Graph) AddOASAPILinks(ann Annotation, doc *document.Node) Result {
	return g.addLinks(ann, doc, "apiLink")
}

// AddOASDescriptionLinks records links to human documentation.
func (g *Graph) AddOASDescriptionLinks(ann Annotation, doc *document.Node) Result {
	return g.addLinks(ann, doc, "descriptionLink")
}

func (g *Graph) addLinks(ann Annotation, doc *document.Node, relation string) Result {
	relPtrs, ok := stringSlice(ann.Value)
	if !ok {
		return Result{Errors: []error{annotationDefect(ann, "value is not a list of pointers")}}
	}
	var result Result
	subject := instanceURI(doc, ann.InstanceLocation)
	for _, rel := range relPtrs {
		value, err := valueAt(doc, ann.InstanceLocation+rel)
		if err != nil {
			result.Errors = append(result.Errors, annotationDefect(ann, err.Error()))
			continue
		}
		link, isStr := value.(string)
		if !isStr {
			result.Errors = append(result.Errors, annotationDefect(ann, "link value is not a string"))
			continue
		}
		g.add(Triple{Subject: subject, Predicate: g.ns + relation, Object: link})
	}
	return result
}

// AddOASExamples records example and default values as rendered
// literals. Validating them against their governing schemas is the
// driver's final stage, not the graph's concern.
func (g *Graph) AddOASExamples(ann Annotation, doc *document.Node) Result {
	relPtrs, ok := stringSlice(ann.Value)
	if !ok {
		return Result{Errors: []error{annotationDefect(ann, "value is not a list of pointers")}}
	}
	var result Result
	subject := instanceURI(doc, ann.InstanceLocation)
	for _, rel := range relPtrs {
		value, err := valueAt(doc, ann.InstanceLocation+rel)
		if err != nil {
			result.Errors = append(result.Errors, annotationDefect(ann, err.Error()))
			continue
		}
		g.add(Triple{Subject: subject, Predicate: g.ns + "example",
			Object: renderLiteral(value), Literal: true})
	}
	return result
}

// ValidateReferences checks every recorded reference edge against the
// set of known subjects, reporting each dangling target once per
// referencing edge. Run only after the whole reachable description
// has been processed.
func (g *Graph) ValidateReferences() []error {
	var errs []error
	for _, edge := range g.references {
		if g.subjects[edge.target] {
			continue
		}
		errs = append(errs, &oaserrors.ReferenceError{
			Source: edge.source,
			Target: edge.target,
		})
	}
	return errs
}
