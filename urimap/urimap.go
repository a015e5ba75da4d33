// Package urimap derives logical identifiers (URIs) from physical
// locations (filesystem paths and URLs).
//
// Import path: github.com/oasgraph/oasgraph/urimap
//
// Reference resolution in an API description operates on identifiers,
// while content is retrieved from locators. A [Location] pairs the two:
// it records where content lives (a file: or network URL) and the
// absolute URI under which that content is known. When no explicit URI
// is declared, one is derived from the locator by stripping a
// configured suffix and, for filesystem paths, converting to a file:
// URL.
//
// Locations marked as prefixes anchor suffix-search resolution: any
// identifier starting with the prefix URI is resolved by appending the
// remainder to the physical prefix. Prefix URIs must be absolute, must
// have a path ending in '/', and must not carry a query or fragment.
package urimap

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oasgraph/oasgraph/oaserrors"
)

// Location pairs a physical locator with the logical identifier under
// which its content participates in reference resolution.
type Location struct {
	// Raw is the location string as declared
	Raw string
	// URL is the resolved locator: a file: URL for paths, the URL itself otherwise
	URL string
	// URI is the absolute identifier, derived or explicitly declared
	URI string
	// Explicit reports whether URI was declared rather than derived
	Explicit bool
	// AdditionalURIs are extra identifiers naming the same content
	AdditionalURIs []string
	// OASType is the declared semantic type, if any (e.g. "OpenAPI", "Schema")
	OASType string
	// StripSuffixes is the ordered suffix list used for derivation
	StripSuffixes []string
	// IsPrefix marks this location as a resolution prefix
	IsPrefix bool
}

type config struct {
	uri            string
	additionalURIs []string
	oasType        string
	stripSuffixes  []string
	isPrefix       bool
}

// Option configures Location construction.
type Option func(*config)

// WithURI declares an explicit identifier instead of deriving one
// from the locator.
func WithURI(uri string) Option {
	return func(c *config) { c.uri = uri }
}

// WithAdditionalURIs declares extra identifiers for content that
// defines URIs for sub-parts other than the whole. Mutually exclusive
// with [AsPrefix].
func WithAdditionalURIs(uris ...string) Option {
	return func(c *config) { c.additionalURIs = append(c.additionalURIs, uris...) }
}

// WithOASType declares the semantic type of the located content.
func WithOASType(oasType string) Option {
	return func(c *config) { c.oasType = oasType }
}

// WithStripSuffixes sets the ordered suffix list for identifier
// derivation. The first matching suffix is stripped; an empty list
// means no stripping.
func WithStripSuffixes(suffixes ...string) Option {
	return func(c *config) { c.stripSuffixes = suffixes }
}

// AsPrefix marks the location as a resolution prefix.
func AsPrefix() Option {
	return func(c *config) { c.isPrefix = true }
}

// NewPathLocation builds a Location from a filesystem path.
// The locator is the path's absolute file: URL. When no explicit URI
// is given, the identifier is derived from the file: URL after suffix
// stripping; prefix locations get a trailing '/' appended.
func NewPathLocation(path string, opts ...Option) (*Location, error) {
	cfg := applyOptions(opts)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &oaserrors.ConfigError{
			Option:  "path",
			Value:   path,
			Message: "cannot resolve to an absolute path",
			Cause:   err,
		}
	}
	locator := pathToFileURL(abs, cfg.isPrefix)
	derived := pathToFileURL(stripSuffix(abs, cfg.stripSuffixes), cfg.isPrefix)
	return newLocation(path, locator, derived, cfg)
}

// NewURLLocation builds a Location from a URL string.
// When no explicit URI is given, the identifier is the URL itself
// after suffix stripping.
func NewURLLocation(rawURL string, opts ...Option) (*Location, error) {
	cfg := applyOptions(opts)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &oaserrors.ConfigError{
			Option:  "url",
			Value:   rawURL,
			Message: "cannot parse URL",
			Cause:   err,
		}
	}
	if !u.IsAbs() {
		return nil, &oaserrors.ConfigError{
			Option:  "url",
			Value:   rawURL,
			Message: "must be absolute",
		}
	}
	return newLocation(rawURL, rawURL, stripSuffix(rawURL, cfg.stripSuffixes), cfg)
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func newLocation(raw, locator, derived string, cfg *config) (*Location, error) {
	if cfg.isPrefix && len(cfg.additionalURIs) > 0 {
		return nil, &oaserrors.ConfigError{
			Option:  "additional URIs",
			Message: "cannot be combined with a prefix; prefix contents are discovered by URI path suffix matching",
		}
	}
	uri := derived
	explicit := cfg.uri != ""
	if explicit {
		uri = cfg.uri
	}
	if err := validateURI(uri, cfg.isPrefix, explicit); err != nil {
		return nil, err
	}
	for _, extra := range cfg.additionalURIs {
		if err := validateURI(extra, false, true); err != nil {
			return nil, err
		}
	}
	return &Location{
		Raw:            raw,
		URL:            locator,
		URI:            uri,
		Explicit:       explicit,
		AdditionalURIs: cfg.additionalURIs,
		OASType:        cfg.oasType,
		StripSuffixes:  cfg.stripSuffixes,
		IsPrefix:       cfg.isPrefix,
	}, nil
}

// validateURI checks that uri is absolute and, for prefixes, that its
// path ends in '/' and it carries no query or fragment. Explicitly
// declared prefix URIs additionally may not use the file: scheme,
// since prefix mappings exist to decouple identifiers from the
// filesystem.
func validateURI(uri string, isPrefix, explicit bool) error {
	u, err := url.Parse(uri)
	if err != nil {
		return &oaserrors.ConfigError{
			Option:  "uri",
			Value:   uri,
			Message: "cannot parse URI",
			Cause:   err,
		}
	}
	if !u.IsAbs() {
		return &oaserrors.ConfigError{
			Option:  "uri",
			Value:   uri,
			Message: "must be absolute",
		}
	}
	if !isPrefix {
		return nil
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" || u.RawFragment != "" {
		return &oaserrors.ConfigError{
			Option:  "prefix",
			Value:   uri,
			Message: "must not contain a query or fragment",
		}
	}
	if !strings.HasSuffix(u.Path, "/") {
		return &oaserrors.ConfigError{
			Option:  "prefix",
			Value:   uri,
			Message: "must have a path ending in '/'",
		}
	}
	if explicit && u.Scheme == "file" {
		return &oaserrors.ConfigError{
			Option:  "prefix",
			Value:   uri,
			Message: "file: URIs cannot serve as identifier prefixes",
		}
	}
	return nil
}

// stripSuffix removes the first matching suffix from s.
// An empty suffix list leaves s unchanged.
func stripSuffix(s string, suffixes []string) string {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

// pathToFileURL converts an absolute filesystem path to a file: URL.
// Prefix paths get a trailing '/' so the resulting URI satisfies the
// prefix path invariant.
func pathToFileURL(abs string, isPrefix bool) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if isPrefix && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// PrefixMapping binds a physical prefix location to the ordered suffix
// list tried when resolving identifiers under its URI prefix.
type PrefixMapping struct {
	// Location is the prefix location (directory or URL)
	Location *Location
	// Suffixes is the ordered suffix list, e.g. [".json", ".yaml"]
	Suffixes []string
}

// NewPrefixMapping builds a PrefixMapping, verifying the location is
// marked as a prefix.
func NewPrefixMapping(loc *Location, suffixes []string) (*PrefixMapping, error) {
	if loc == nil || !loc.IsPrefix {
		return nil, &oaserrors.ConfigError{
			Option:  "prefix mapping",
			Message: fmt.Sprintf("location %v is not a prefix", loc),
		}
	}
	return &PrefixMapping{Location: loc, Suffixes: suffixes}, nil
}

// SortLongestFirst orders mappings so the longest URI prefix comes
// first. Resolution picks the first mapping whose URI prefixes the
// requested identifier, so longer (more specific) prefixes win.
func SortLongestFirst(mappings []*PrefixMapping) {
	sort.SliceStable(mappings, func(i, j int) bool {
		return len(mappings[i].Location.URI) > len(mappings[j].Location.URI)
	})
}

// MatchLongest returns the mapping with the longest URI prefixing uri,
// or nil when none matches.
func MatchLongest(mappings []*PrefixMapping, uri string) *PrefixMapping {
	var best *PrefixMapping
	for _, m := range mappings {
		if strings.HasPrefix(uri, m.Location.URI) {
			if best == nil || len(m.Location.URI) > len(best.Location.URI) {
				best = m
			}
		}
	}
	return best
}
