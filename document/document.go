// Package document models a parsed API description as a typed tree.
//
// Import path: github.com/oasgraph/oasgraph/document
//
// Every [Node] wraps a generic parsed value and knows both its
// absolute identifier (URI) and the locator it was loaded from (URL).
// Children derive both incrementally from the parent by appending an
// escaped JSON Pointer token to the fragment. The OAS version, the
// schema dialect, and the sourcemap live on the document root and are
// shared by reference.
//
// Nodes are either generic or schema-capable. Positions the OAS
// object model fixes as schema slots (components/schemas entries,
// media type schema slots, parameter and header schemas) are
// classified at construction time; any other position becomes a
// schema only when a reference resolves into it, through
// [Node.ConvertToSchema].
package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/jsonptr"
	"github.com/oasgraph/oasgraph/oaserrors"
	"github.com/oasgraph/oasgraph/source"
)

// Kind classifies a node's semantic capability.
type Kind int

const (
	// KindGeneric is a plain tree node.
	KindGeneric Kind = iota
	// KindSchema is a schema-capable node participating in
	// reference resolution and instance validation.
	KindSchema
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k == KindSchema {
		return "schema"
	}
	return "generic"
}

// Node is one position in the typed document tree.
type Node struct {
	// Value is the generic parsed value at this position
	Value any
	// Kind is the node's current classification
	Kind Kind
	// URI is the absolute identifier, fragment included
	URI string
	// URL is the locator, fragment included
	URL string
	// Parent is nil for the document root
	Parent *Node
	// Key is the traversal key from Parent ("" for the root)
	Key string

	root      *Node
	partition string
	dialect   string
	sourceMap *source.SourceMap
	logger    oasgraph.Logger
	children  map[string]*Node
	resolved  *compiledSchema
}

// RootOption configures root construction.
type RootOption func(*rootConfig)

type rootConfig struct {
	partition string
	kind      Kind
	dialect   string
	sourceMap *source.SourceMap
	logger    oasgraph.Logger
}

// WithPartition overrides version detection with an explicit
// partition ("3.0" or "3.1"). Required for documents, such as
// standalone schemas, that carry no openapi field.
func WithPartition(partition string) RootOption {
	return func(c *rootConfig) { c.partition = partition }
}

// WithKind sets the root's classification. Declaring a standalone
// schema document uses KindSchema.
func WithKind(kind Kind) RootOption {
	return func(c *rootConfig) { c.kind = kind }
}

// WithDialect overrides the default dialect for the partition.
// An in-document jsonSchemaDialect field still takes precedence.
func WithDialect(dialect string) RootOption {
	return func(c *rootConfig) { c.dialect = dialect }
}

// WithSourceMap attaches the document's sourcemap to the root.
func WithSourceMap(sm *source.SourceMap) RootOption {
	return func(c *rootConfig) { c.sourceMap = sm }
}

// WithLogger sets the tree's logger. Defaults to NopLogger.
func WithLogger(logger oasgraph.Logger) RootOption {
	return func(c *rootConfig) { c.logger = logger }
}

// NewRoot constructs a document root.
//
// The OAS version comes from the document's openapi field unless
// WithPartition overrides it; a missing or unsupported version is a
// VersionError. For 3.1 documents the jsonSchemaDialect field, when
// present, overrides the default dialect.
func NewRoot(value any, uri, url string, opts ...RootOption) (*Node, error) {
	cfg := &rootConfig{logger: oasgraph.NopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}
	partition := cfg.partition
	declared := declaredVersion(value)
	if declared != "" {
		detected, err := ParsePartition(declared)
		if err != nil {
			return nil, err
		}
		if partition == "" {
			partition = detected
		} else if partition != detected {
			return nil, &oaserrors.VersionError{
				URI:      uri,
				Declared: declared,
				Expected: partition,
			}
		}
	}
	if partition == "" {
		return nil, &oaserrors.VersionError{
			URI:     uri,
			Message: "document has no openapi field and no explicit version was declared",
		}
	}

	dialect := cfg.dialect
	if dialect == "" {
		dialect = DefaultDialect(partition)
	}
	if partition == Partition31 {
		if m, ok := value.(map[string]any); ok {
			if d, ok := m["jsonSchemaDialect"].(string); ok && d != "" {
				dialect = d
			}
		}
	}

	n := &Node{
		Value:     value,
		Kind:      cfg.kind,
		URI:       uri,
		URL:       url,
		partition: partition,
		dialect:   dialect,
		sourceMap: cfg.sourceMap,
		logger:    cfg.logger,
	}
	n.root = n
	return n, nil
}

// declaredVersion extracts the openapi field when present.
func declaredVersion(value any) string {
	m, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	v, _ := m["openapi"].(string)
	return v
}

// Root returns the document root.
func (n *Node) Root() *Node { return n.root }

// Partition returns the document's OAS version partition.
func (n *Node) Partition() string { return n.root.partition }

// Dialect returns the document's schema dialect identifier.
func (n *Node) Dialect() string { return n.root.dialect }

// SourceMap returns the document's sourcemap, which may be nil.
func (n *Node) SourceMap() *source.SourceMap { return n.root.sourceMap }

// Pointer returns this node's JSON Pointer relative to the root.
func (n *Node) Pointer() string {
	_, frag, found := strings.Cut(n.URI, "#")
	if !found {
		return ""
	}
	return frag
}

// IsObject reports whether the node's value is an object.
func (n *Node) IsObject() bool {
	_, ok := n.Value.(map[string]any)
	return ok
}

// IsArray reports whether the node's value is an array.
func (n *Node) IsArray() bool {
	_, ok := n.Value.([]any)
	return ok
}

// Keys returns the sorted keys of an object node, or nil otherwise.
func (n *Node) Keys() []string {
	m, ok := n.Value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the length of an array node, or 0 otherwise.
func (n *Node) Len() int {
	a, ok := n.Value.([]any)
	if !ok {
		return 0
	}
	return len(a)
}

// Child returns the memoized child node for a traversal key. Array
// children use the decimal index as the key. The child's URI and URL
// extend this node's by one escaped pointer token; its kind follows
// the structural classification of the resulting position.
func (n *Node) Child(key string) (*Node, error) {
	if child, ok := n.children[key]; ok {
		return child, nil
	}
	value, err := n.childValue(key)
	if err != nil {
		return nil, err
	}
	child := &Node{
		Value:  value,
		Kind:   n.childKind(key),
		URI:    appendFragment(n.URI, key),
		URL:    appendFragment(n.URL, key),
		Parent: n,
		Key:    key,
		root:   n.root,
	}
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	n.children[key] = child
	return child, nil
}

func (n *Node) childValue(key string) (any, error) {
	switch v := n.Value.(type) {
	case map[string]any:
		value, ok := v[key]
		if !ok {
			return nil, &oaserrors.CatalogError{
				URI:     n.URI,
				Message: fmt.Sprintf("no key %q under this position", key),
			}
		}
		return value, nil
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || key != strconv.Itoa(idx) || idx < 0 || idx >= len(v) {
			return nil, &oaserrors.CatalogError{
				URI:     n.URI,
				Message: fmt.Sprintf("no index %q under this position", key),
			}
		}
		return v[idx], nil
	}
	return nil, &oaserrors.CatalogError{
		URI:     n.URI,
		Message: fmt.Sprintf("cannot descend into a scalar with key %q", key),
	}
}

// Resolve walks a JSON Pointer from this node, materializing the
// intermediate nodes.
func (n *Node) Resolve(ptr string) (*Node, error) {
	tokens, err := jsonptr.Parse(ptr)
	if err != nil {
		return nil, err
	}
	current := n
	for _, token := range tokens {
		current, err = current.Child(token)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// ConvertToSchema reclassifies the child at key as schema-capable,
// replacing it in place while preserving every sibling node. The
// fresh schema node's internal references are resolved eagerly,
// since something already depends on it being reference-resolvable.
// Converting an already-converted key returns the existing node.
func (n *Node) ConvertToSchema(key string) (*Node, error) {
	child, err := n.Child(key)
	if err != nil {
		return nil, err
	}
	if child.Kind == KindSchema {
		return child, nil
	}
	child.Kind = KindSchema
	// Children derived while the node was generic would miss schema
	// classification below it; drop them so they rebuild.
	child.children = nil
	n.root.log().Debug("reclassified node as schema", "uri", child.URI)
	if err := child.ResolveInternalRefs(); err != nil {
		return nil, err
	}
	return child, nil
}

// PromoteToSchema reclassifies this node as schema-capable. Non-root
// nodes delegate to the parent's ConvertToSchema so the in-place
// replacement semantics hold; a root is promoted directly. Promoting
// an already-schema node is a no-op returning the node.
func (n *Node) PromoteToSchema() (*Node, error) {
	if n.Kind == KindSchema {
		return n, nil
	}
	if n.Parent == nil {
		n.Kind = KindSchema
		n.children = nil
		if err := n.ResolveInternalRefs(); err != nil {
			return nil, err
		}
		return n, nil
	}
	return n.Parent.ConvertToSchema(n.Key)
}

func (n *Node) log() oasgraph.Logger {
	if n.root.logger == nil {
		return oasgraph.NopLogger{}
	}
	return n.root.logger
}

// childKind classifies the position reached by descending from n
// with key. Inside a schema, classification follows the relative
// keyword path from the nearest schema ancestor; elsewhere the fixed
// OAS schema slots apply.
func (n *Node) childKind(key string) Kind {
	rel := []string{key}
	for anc := n; anc != nil; anc = anc.Parent {
		if anc.Kind == KindSchema {
			if isSubschemaPath(rel) {
				return KindSchema
			}
			return KindGeneric
		}
		rel = append([]string{anc.Key}, rel...)
	}
	if isFixedSchemaSlot(n, key) {
		return KindSchema
	}
	return KindGeneric
}

// isFixedSchemaSlot recognizes positions the OAS object model fixes
// as schemas: components/schemas entries and the schema slot of media
// types, parameters, and headers.
func isFixedSchemaSlot(parent *Node, key string) bool {
	if parent.Key == "schemas" && parent.Parent != nil && parent.Parent.Key == "components" {
		return true
	}
	if key != "schema" || parent.Parent == nil {
		return false
	}
	switch parent.Parent.Key {
	case "content", "parameters", "headers":
		// content/<mediatype>/schema, parameters/<i>/schema,
		// headers/<name>/schema
		return true
	}
	return false
}

// isSubschemaPath reports whether rel, a keyword path relative to a
// schema root, lands on a subschema. Keyword maps and applicator
// arrays consume two steps (the container plus the entry key); unary
// applicators consume one.
func isSubschemaPath(rel []string) bool {
	i := 0
	for i < len(rel) {
		switch rel[i] {
		case "items", "additionalProperties", "not", "if", "then", "else",
			"contains", "propertyNames", "additionalItems",
			"unevaluatedItems", "unevaluatedProperties":
			i++
		case "properties", "patternProperties", "$defs", "definitions",
			"dependentSchemas", "allOf", "anyOf", "oneOf", "prefixItems":
			if i+1 >= len(rel) {
				// The container itself is not a schema.
				return false
			}
			i += 2
		default:
			return false
		}
	}
	return true
}

// appendFragment extends a URI or URL fragment by one escaped
// pointer token.
func appendFragment(base, token string) string {
	prefix, frag, found := strings.Cut(base, "#")
	if !found {
		frag = ""
	}
	return prefix + "#" + jsonptr.Append(frag, token)
}
