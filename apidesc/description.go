package apidesc

import (
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/catalog"
	"github.com/oasgraph/oasgraph/document"
	"github.com/oasgraph/oasgraph/graph"
	"github.com/oasgraph/oasgraph/jsonptr"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// annotationOrder is the fixed processing order for annotation
// keywords. Typing comes first so every location exists before edges
// point at it, references before children so targets are discovered
// early, and examples last so every governing schema has been
// classified before instances are checked against it.
var annotationOrder = []string{
	"oasType",
	"oasReferences",
	"oasChildren",
	"oasLiterals",
	"oasExtensible",
	"oasApiLinks",
	"oasDescriptionLinks",
	"oasExamples",
}

// Description drives validation of one API description: the entry
// resource plus everything reachable from it by reference.
type Description struct {
	catalog   *catalog.Catalog
	graph     *graph.Graph
	evaluator Evaluator
	partition string
	entry     string
	validated map[string]bool
	pending   []graph.RefTarget

	skipExamples bool
	logger       oasgraph.Logger
}

// Option configures a Description.
type Option func(*Description)

// WithEvaluator replaces the default structural evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(d *Description) { d.evaluator = e }
}

// WithGraph replaces the graph built by default, letting callers pass
// graph options such as test mode or line numbering.
func WithGraph(g *graph.Graph) Option {
	return func(d *Description) { d.graph = g }
}

// WithSkipExamples disables validation of example and default content
// against governing schemas. Example triples are still emitted.
func WithSkipExamples() Option {
	return func(d *Description) { d.skipExamples = true }
}

// WithLogger sets the description's logger. Defaults to NopLogger.
func WithLogger(logger oasgraph.Logger) Option {
	return func(d *Description) { d.logger = logger }
}

// New creates a Description over a catalog for one version partition
// ("3.0" or "3.1").
func New(cat *catalog.Catalog, partition string, opts ...Option) *Description {
	d := &Description{
		catalog:   cat,
		partition: partition,
		validated: make(map[string]bool),
		logger:    oasgraph.NopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.graph == nil {
		d.graph = graph.New(partition, graph.WithLogger(d.logger))
	}
	if d.evaluator == nil {
		d.evaluator = NewStructuralEvaluator(d.logger)
	}
	return d
}

// Graph returns the accumulated reference graph.
func (d *Description) Graph() *graph.Graph { return d.graph }

// Entry returns the identifier of the first resource validated.
func (d *Description) Entry() string { return d.entry }

// Validate validates the resource at uri as oasType ("" means the
// document root type) together with everything reachable from it.
// Returned errors are the full aggregate for the traversal; an empty
// result means the reachable description conforms.
func (d *Description) Validate(uri, oasType string) []error {
	if d.validated[uri] {
		return nil
	}
	// marked before recursion so reference cycles terminate
	d.validated[uri] = true
	if d.entry == "" {
		d.entry = uri
	}

	node, err := d.catalog.GetResource(uri, d.partition)
	if err != nil {
		return []error{err}
	}

	d.graph.AddResource(node.URL, node.URI, filenameOf(node.URL))

	result, err := d.evaluator.Evaluate(node, oasType)
	if err != nil {
		return []error{err}
	}
	var errs oaserrors.ErrorList
	errs.Add(result.Errors...)

	byKeyword := make(map[string][]Annotation, len(annotationOrder))
	for _, ann := range result.Annotations {
		byKeyword[ann.Keyword] = append(byKeyword[ann.Keyword], ann)
	}
	for keyword := range byKeyword {
		if !knownKeyword(keyword) {
			errs.Add(&oaserrors.AnnotationError{
				Keyword: keyword,
				Message: "no handler for annotation keyword",
			})
			delete(byKeyword, keyword)
		}
	}

	for _, keyword := range annotationOrder {
		// everything discovered so far is validated before examples,
		// so example checks see a fully typed graph
		if keyword == "oasExamples" {
			errs.Add(d.drainPending()...)
		}
		for _, ann := range byKeyword[keyword] {
			handlerResult := d.dispatch(keyword, ann, node)
			errs.Add(handlerResult.Errors...)
			d.pending = append(d.pending, handlerResult.RefTargets...)
			if keyword == "oasExamples" && !d.skipExamples {
				errs.Add(d.validateExamples(ann, node)...)
			}
		}
	}
	errs.Add(d.drainPending()...)

	d.logger.Debug("validated resource", "uri", uri, "errors", errs.Len())
	return errs.Errors()
}

func knownKeyword(keyword string) bool {
	for _, k := range annotationOrder {
		if k == keyword {
			return true
		}
	}
	return false
}

func (d *Description) dispatch(keyword string, ann Annotation, node *document.Node) graph.Result {
	switch keyword {
	case "oasType":
		return d.graph.AddOASType(ann, node)
	case "oasChildren":
		return d.graph.AddOASChildren(ann, node)
	case "oasReferences":
		return d.graph.AddOASReferences(ann, node)
	case "oasLiterals":
		return d.graph.AddOASLiterals(ann, node)
	case "oasExtensible":
		return d.graph.AddOASExtensible(ann, node)
	case "oasApiLinks":
		return d.graph.AddOASAPILinks(ann, node)
	case "oasDescriptionLinks":
		return d.graph.AddOASDescriptionLinks(ann, node)
	case "oasExamples":
		return d.graph.AddOASExamples(ann, node)
	}
	return graph.Result{Errors: []error{&oaserrors.AnnotationError{
		Keyword: keyword,
		Message: "no handler for annotation keyword",
	}}}
}

// drainPending validates every discovered reference target, including
// targets discovered while draining.
func (d *Description) drainPending() []error {
	var errs []error
	for len(d.pending) > 0 {
		target := d.pending[0]
		d.pending = d.pending[1:]
		errs = append(errs, d.Validate(target.URI, target.OASType)...)
	}
	return errs
}

// validateExamples checks each example or default value named by the
// annotation against its governing schema. The governing schema is
// the annotated object itself when it is a schema, or its "schema"
// member otherwise.
func (d *Description) validateExamples(ann Annotation, node *document.Node) []error {
	rels, ok := relPointers(ann.Value)
	if !ok {
		// the graph handler rejects the same payload and reports it
		return nil
	}

	schemaPtr := ann.InstanceLocation
	obj, isObj := instanceValue(node, ann.InstanceLocation).(map[string]any)
	if isObj {
		if _, hasSchema := obj["schema"]; hasSchema {
			schemaPtr = ann.InstanceLocation + "/schema"
		}
	}
	schemaURI := composeURI(node.URI, schemaPtr)

	schema, err := d.catalog.GetSchema(schemaURI, node.Dialect(), d.partition)
	if err != nil {
		return []error{err}
	}

	var errs []error
	for _, rel := range rels {
		value, err := jsonptr.Evaluate(node.Value, ann.InstanceLocation+rel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := schema.ValidateInstance(value); err != nil {
			errs = append(errs, &oaserrors.ValidationError{
				Location:  composeURI(node.URI, ann.InstanceLocation+rel),
				SchemaURI: schemaURI,
				Message:   "content does not conform to its governing schema",
				Cause:     err,
			})
		}
	}
	return errs
}

// relPointers coerces an annotation payload into a list of relative
// pointers, accepting the []any shape JSON-decoded evaluator output
// arrives in. Mirrors the graph handlers' payload coercion.
func relPointers(value any) ([]string, bool) {
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

func instanceValue(node *document.Node, ptr string) any {
	value, err := jsonptr.Evaluate(node.Value, ptr)
	if err != nil {
		return nil
	}
	return value
}

// composeURI appends an instance pointer to a resource identifier.
func composeURI(uri, ptr string) string {
	if ptr == "" {
		return uri
	}
	if strings.Contains(uri, "#") {
		return uri + ptr
	}
	return uri + "#" + ptr
}

// filenameOf extracts the final path element of a locator for
// provenance triples.
func filenameOf(locator string) string {
	u, err := url.Parse(locator)
	if err != nil || u.Path == "" {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// ValidateGraph runs the post-traversal dangling reference pass.
func (d *Description) ValidateGraph() []error {
	return d.graph.ValidateReferences()
}

// Serialize writes the accumulated graph. Formats are "nt" for
// N-Triples (sorted for reproducibility) and "debug" for the
// human-readable rendering shortened against the entry identifier.
func (d *Description) Serialize(w io.Writer, format string) error {
	switch format {
	case "", "debug":
		return d.graph.SerializeDebug(w, baseOf(d.entry))
	case "nt", "ntriples":
		return d.graph.SerializeNTriples(w, true)
	}
	return &oaserrors.ConfigError{
		Option:  "output-format",
		Value:   format,
		Message: `must be "nt" or "debug"`,
	}
}

// baseOf trims the final path element so sibling resources shorten
// readably too.
func baseOf(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[:idx+1]
	}
	return uri
}
