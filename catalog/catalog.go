// Package catalog is the central registry mapping identifiers to
// loaded documents.
//
// Import path: github.com/oasgraph/oasgraph/catalog
//
// A [Catalog] routes each identifier to the registered source with
// the longest matching URI prefix, materializes documents through the
// source chain, and memoizes them in version-partitioned caches so an
// identifier loads at most once per partition. It owns the shared
// provenance tables (identifier to locator, identifier to sourcemap)
// that sources write through their sink.
package catalog

import (
	"errors"
	"strings"
	"sync"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/document"
	"github.com/oasgraph/oasgraph/oaserrors"
	"github.com/oasgraph/oasgraph/source"
)

// Catalog resolves and caches documents by identifier.
//
// All materialization happens under one mutex, giving at-most-once
// load semantics: concurrent requests for the same unloaded
// identifier never trigger duplicate loads or duplicate insertions.
type Catalog struct {
	mu      sync.Mutex
	sources []registeredSource
	// cache is partition -> absolute identifier -> node
	cache  map[string]map[string]*document.Node
	logger oasgraph.Logger

	provMu     sync.Mutex
	urls       map[string]string
	sourcemaps map[string]*source.SourceMap
}

type registeredSource struct {
	prefix string
	src    source.Source
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog's logger. Defaults to NopLogger.
func WithLogger(logger oasgraph.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// New creates an empty Catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		cache:      make(map[string]map[string]*document.Node),
		urls:       make(map[string]string),
		sourcemaps: make(map[string]*source.SourceMap),
		logger:     oasgraph.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddSource registers src under a URI prefix. The empty prefix is the
// catch-all; a non-empty prefix must end in '/'. The catalog installs
// itself as the source's provenance sink.
func (c *Catalog) AddSource(prefixURI string, src source.Source) error {
	if prefixURI != "" && !strings.HasSuffix(prefixURI, "/") {
		return &oaserrors.ConfigError{
			Option:  "prefix",
			Value:   prefixURI,
			Message: "must have a path ending in '/'",
		}
	}
	src.SetPrefix(prefixURI)
	src.SetSink(provenanceSink{c})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, registeredSource{prefix: prefixURI, src: src})
	return nil
}

// GetResource returns the node for uri, loading it if necessary.
//
// partition is "3.0", "3.1", or "" to accept whichever version the
// document declares. Lookup order: exact identifier in cache, then
// the fragment-less base in cache, then the source chain. A fragment
// is evaluated against the loaded document tree.
func (c *Catalog) GetResource(uri, partition string) (*document.Node, error) {
	return c.getResource(uri, partition, "")
}

// GetSchema returns the node for uri as a schema, reclassifying a
// generic node in place when a reference first proves it to be one.
// dialect, when non-empty, overrides the default dialect for a
// freshly loaded document.
func (c *Catalog) GetSchema(uri, dialect, partition string) (*document.Node, error) {
	node, err := c.getResource(uri, partition, dialect)
	if err != nil {
		return nil, err
	}
	if node.Kind == document.KindSchema {
		return node, nil
	}
	if !node.IsObject() {
		if _, ok := node.Value.(bool); !ok {
			return nil, &oaserrors.NotASchemaError{
				URI:     uri,
				Message: "value at this position cannot form a schema (loaded from " + node.URL + ")",
			}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	promoted, err := node.PromoteToSchema()
	if err != nil {
		return nil, err
	}
	c.insert(promoted.Partition(), uri, promoted)
	return promoted, nil
}

func (c *Catalog) getResource(uri, partition, dialect string) (*document.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node := c.lookup(partition, uri); node != nil {
		return node, nil
	}

	base, frag, hasFrag := strings.Cut(uri, "#")
	root := c.lookup(partition, base)
	if root == nil {
		var err error
		root, err = c.load(base, partition, dialect)
		if err != nil {
			return nil, err
		}
	}
	if !hasFrag || frag == "" {
		return root, nil
	}
	node, err := root.Resolve(frag)
	if err != nil {
		return nil, &oaserrors.CatalogError{
			URI:     uri,
			Message: "pointer does not exist in the loaded document",
			Attempts: []oaserrors.Attempt{
				{URL: root.URL, Err: err},
			},
		}
	}
	c.insert(root.Partition(), uri, node)
	return node, nil
}

// lookup finds uri in the given partition, or in any partition when
// partition is empty. Callers hold the mutex.
func (c *Catalog) lookup(partition, uri string) *document.Node {
	if partition != "" {
		return c.cache[partition][uri]
	}
	for _, nodes := range c.cache {
		if node, ok := nodes[uri]; ok {
			return node
		}
	}
	return nil
}

// load materializes base through the source chain and inserts the
// root under its detected partition. Callers hold the mutex.
func (c *Catalog) load(base, partition, dialect string) (*document.Node, error) {
	reg := c.selectSource(base)
	if reg == nil {
		return nil, &oaserrors.CatalogError{
			URI:     base,
			Message: "no source is registered for this identifier",
		}
	}
	parsed, err := reg.src.Resolve(strings.TrimPrefix(base, reg.prefix))
	if err != nil {
		var catErr *oaserrors.CatalogError
		if errors.As(err, &catErr) {
			return nil, err
		}
		return nil, &oaserrors.CatalogError{
			URI:      base,
			Attempts: []oaserrors.Attempt{{URL: reg.prefix, Err: err}},
		}
	}

	opts := []document.RootOption{
		document.WithSourceMap(parsed.SourceMap),
		document.WithLogger(c.logger),
	}
	if partition != "" {
		opts = append(opts, document.WithPartition(partition))
	}
	if dialect != "" {
		opts = append(opts, document.WithDialect(dialect))
	}
	root, err := document.NewRoot(parsed.Value, base, parsed.URL, opts...)
	if err != nil {
		return nil, err
	}
	c.insert(root.Partition(), base, root)
	c.logger.Debug("materialized resource",
		"uri", base, "url", parsed.URL, "partition", root.Partition())
	return root, nil
}

// insert memoizes node under a partition. Callers hold the mutex.
func (c *Catalog) insert(partition, uri string, node *document.Node) {
	if c.cache[partition] == nil {
		c.cache[partition] = make(map[string]*document.Node)
	}
	c.cache[partition][uri] = node
}

// selectSource picks the registered source with the longest prefix
// matching uri. There is no fallthrough: only the winner is tried, so
// one declared scope never contaminates another.
func (c *Catalog) selectSource(uri string) *registeredSource {
	var best *registeredSource
	for i := range c.sources {
		reg := &c.sources[i]
		if !strings.HasPrefix(uri, reg.prefix) {
			continue
		}
		if best == nil || len(reg.prefix) > len(best.prefix) {
			best = reg
		}
	}
	return best
}

// URLFor returns the locator that uri was actually loaded from, or ""
// when it has not been resolved.
func (c *Catalog) URLFor(uri string) string {
	c.provMu.Lock()
	defer c.provMu.Unlock()
	return c.urls[uri]
}

// SourceMapFor returns the sourcemap recorded for uri, which may be
// nil.
func (c *Catalog) SourceMapFor(uri string) *source.SourceMap {
	c.provMu.Lock()
	defer c.provMu.Unlock()
	return c.sourcemaps[uri]
}

// provenanceSink lets sources write into the catalog's provenance
// tables without aliasing the maps themselves.
type provenanceSink struct {
	c *Catalog
}

func (s provenanceSink) RecordURL(uri, url string) {
	s.c.provMu.Lock()
	defer s.c.provMu.Unlock()
	s.c.urls[uri] = url
}

func (s provenanceSink) RecordSourceMap(uri string, sm *source.SourceMap) {
	if sm == nil {
		return
	}
	s.c.provMu.Lock()
	defer s.c.provMu.Unlock()
	s.c.sourcemaps[uri] = sm
}

var _ source.ProvenanceSink = provenanceSink{}
