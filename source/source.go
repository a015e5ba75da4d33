// Package source turns logical identifiers into parsed content.
//
// Import path: github.com/oasgraph/oasgraph/source
//
// A [Source] is a lookup strategy registered against a URI prefix.
// [DirectMapSource] holds an exact identifier-to-locator table built
// from individually declared files and URLs. [MultiSuffixSource]
// appends the identifier's relative path to a physical prefix and
// tries an ordered suffix list until one candidate loads.
//
// Loaders ([FileLoader], [HTTPLoader]) retrieve raw bytes, and the
// [ContentParser] deserializes them into generic trees with optional
// sourcemaps. Every successful resolution writes its provenance
// (identifier to locator, identifier to sourcemap) through the
// catalog-owned [ProvenanceSink], so later components can recover
// where content came from without re-parsing.
package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/oaserrors"
	"github.com/oasgraph/oasgraph/urimap"
)

// ErrUnknownResource reports an identifier absent from a direct map.
var ErrUnknownResource = errors.New("unknown resource")

// ProvenanceSink receives the locator and sourcemap actually used for
// each resolved identifier. The catalog owns the backing tables;
// sources only write through this capability.
type ProvenanceSink interface {
	// RecordURL records that uri was loaded from url.
	RecordURL(uri, url string)
	// RecordSourceMap records the sourcemap for uri. A nil sm is ignored.
	RecordSourceMap(uri string, sm *SourceMap)
}

// Source resolves the relative part of an identifier (the portion
// after the registered prefix) into parsed content.
type Source interface {
	// Resolve produces parsed content for relpath, recording
	// provenance through the configured sink on success.
	Resolve(relpath string) (ParsedContent, error)
	// SetPrefix informs the source of the URI prefix it serves.
	// The catalog calls this at registration time.
	SetPrefix(prefix string)
	// SetSink installs the provenance sink.
	// The catalog calls this at registration time.
	SetSink(sink ProvenanceSink)
}

// baseSource carries the registration state shared by all sources.
type baseSource struct {
	prefix string
	sink   ProvenanceSink
	logger oasgraph.Logger
}

func (b *baseSource) SetPrefix(prefix string) { b.prefix = prefix }

func (b *baseSource) SetSink(sink ProvenanceSink) { b.sink = sink }

func (b *baseSource) log() oasgraph.Logger {
	if b.logger == nil {
		return oasgraph.NopLogger{}
	}
	return b.logger
}

func (b *baseSource) record(uri string, pc ParsedContent) {
	if b.sink == nil {
		return
	}
	b.sink.RecordURL(uri, pc.URL)
	if pc.SourceMap != nil {
		b.sink.RecordSourceMap(uri, pc.SourceMap)
	}
}

// Option configures a source.
type Option func(*baseSource)

// WithLogger sets the source's logger. Defaults to NopLogger.
func WithLogger(logger oasgraph.Logger) Option {
	return func(b *baseSource) { b.logger = logger }
}

// DirectMapSource resolves identifiers through an exact table from
// identifier to locator. Entries merge: a later declaration for the
// same identifier overrides the earlier one. A catalog usefully holds
// at most one direct map, registered under the empty (catch-all)
// prefix; all individually declared locations share it.
type DirectMapSource struct {
	baseSource
	entries    map[string]string
	parser     *ContentParser
	fileLoader Loader
	httpLoader Loader
}

// NewDirectMapSource creates an empty DirectMapSource.
// A nil parser defaults to a fresh ContentParser.
func NewDirectMapSource(parser *ContentParser, opts ...Option) *DirectMapSource {
	s := &DirectMapSource{entries: make(map[string]string)}
	for _, opt := range opts {
		opt(&s.baseSource)
	}
	if parser == nil {
		parser = NewContentParser(s.logger)
	}
	s.parser = parser
	s.fileLoader = NewFileLoader(s.logger)
	s.httpLoader = NewHTTPLoader(nil, s.logger)
	return s
}

// SetFetcher replaces the HTTP transport used for http(s) locators.
func (s *DirectMapSource) SetFetcher(fetch Fetcher) {
	s.httpLoader = NewHTTPLoader(fetch, s.logger)
}

// Add maps an identifier to a locator, overriding any earlier entry.
func (s *DirectMapSource) Add(uri, locator string) {
	s.entries[uri] = locator
}

// AddLocation registers a declared location: its primary identifier
// and every additional identifier all map to the location's locator.
func (s *DirectMapSource) AddLocation(loc *urimap.Location) {
	s.Add(loc.URI, loc.URL)
	for _, extra := range loc.AdditionalURIs {
		s.Add(extra, loc.URL)
	}
}

// Len returns the number of registered entries.
func (s *DirectMapSource) Len() int { return len(s.entries) }

// Resolve looks the full identifier up in the table and loads its
// locator. An absent identifier fails with ErrUnknownResource.
func (s *DirectMapSource) Resolve(relpath string) (ParsedContent, error) {
	uri := s.prefix + relpath
	locator, ok := s.entries[uri]
	if !ok {
		return ParsedContent{}, fmt.Errorf("%w: %s not in the declared location map", ErrUnknownResource, uri)
	}
	loaded, err := s.loaderFor(locator).Load(locator)
	if err != nil {
		return ParsedContent{}, err
	}
	parsed, err := s.parser.Parse(loaded)
	if err != nil {
		return ParsedContent{}, err
	}
	s.record(uri, parsed)
	s.log().Debug("resolved identifier", "uri", uri, "url", parsed.URL)
	return parsed, nil
}

func (s *DirectMapSource) loaderFor(locator string) Loader {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return s.httpLoader
	}
	return s.fileLoader
}

// MultiSuffixSource resolves identifiers by appending the relative
// path plus each configured suffix, in order, to a physical prefix.
// The first candidate that loads and parses wins. When every suffix
// fails, the error enumerates each attempted locator and its cause.
type MultiSuffixSource struct {
	baseSource
	physicalPrefix string
	suffixes       []string
	loader         Loader
	parser         *ContentParser
}

// NewFileMultiSuffixSource creates a MultiSuffixSource over a
// directory prefix mapping, loading candidates from the filesystem.
func NewFileMultiSuffixSource(mapping *urimap.PrefixMapping, parser *ContentParser, opts ...Option) (*MultiSuffixSource, error) {
	s, err := newMultiSuffixSource(mapping, parser, opts)
	if err != nil {
		return nil, err
	}
	s.loader = NewFileLoader(s.logger)
	return s, nil
}

// NewHTTPMultiSuffixSource creates a MultiSuffixSource over a URL
// prefix mapping, fetching candidates through fetch (nil means
// DefaultFetcher).
func NewHTTPMultiSuffixSource(mapping *urimap.PrefixMapping, parser *ContentParser, fetch Fetcher, opts ...Option) (*MultiSuffixSource, error) {
	s, err := newMultiSuffixSource(mapping, parser, opts)
	if err != nil {
		return nil, err
	}
	s.loader = NewHTTPLoader(fetch, s.logger)
	return s, nil
}

func newMultiSuffixSource(mapping *urimap.PrefixMapping, parser *ContentParser, opts []Option) (*MultiSuffixSource, error) {
	if mapping == nil || mapping.Location == nil {
		return nil, &oaserrors.ConfigError{
			Option:  "mapping",
			Message: "a prefix mapping is required",
		}
	}
	suffixes := mapping.Suffixes
	if len(suffixes) == 0 {
		// No declared suffixes means try the bare candidate.
		suffixes = []string{""}
	}
	s := &MultiSuffixSource{
		physicalPrefix: mapping.Location.URL,
		suffixes:       suffixes,
	}
	for _, opt := range opts {
		opt(&s.baseSource)
	}
	if parser == nil {
		parser = NewContentParser(s.logger)
	}
	s.parser = parser
	return s, nil
}

// Suffixes returns the ordered suffix list in use.
func (s *MultiSuffixSource) Suffixes() []string { return s.suffixes }

// Resolve tries physicalPrefix + relpath + suffix for each suffix in
// order, returning on first success. Failure enumerates every attempt.
func (s *MultiSuffixSource) Resolve(relpath string) (ParsedContent, error) {
	uri := s.prefix + relpath
	var attempts []oaserrors.Attempt
	for _, suffix := range s.suffixes {
		candidate := s.physicalPrefix + relpath + suffix
		loaded, err := s.loader.Load(candidate)
		if err != nil {
			attempts = append(attempts, oaserrors.Attempt{URL: candidate, Err: err})
			continue
		}
		parsed, err := s.parser.Parse(loaded)
		if err != nil {
			attempts = append(attempts, oaserrors.Attempt{URL: candidate, Err: err})
			continue
		}
		s.record(uri, parsed)
		s.log().Debug("resolved identifier by suffix search",
			"uri", uri, "url", parsed.URL, "suffix", suffix)
		return parsed, nil
	}
	return ParsedContent{}, &oaserrors.CatalogError{
		URI:      uri,
		Attempts: attempts,
	}
}

// Compile-time interface checks.
var (
	_ Source = (*DirectMapSource)(nil)
	_ Source = (*MultiSuffixSource)(nil)
)
