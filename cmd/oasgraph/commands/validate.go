package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/apidesc"
	"github.com/oasgraph/oasgraph/catalog"
	"github.com/oasgraph/oasgraph/graph"
	"github.com/oasgraph/oasgraph/oaserrors"
	"github.com/oasgraph/oasgraph/source"
	"github.com/oasgraph/oasgraph/urimap"
)

// validateFlags contains flags for the validate command.
type validateFlags struct {
	files             []string
	urls              []string
	directories       []string
	urlPrefixes       []string
	stripSuffixes     []string
	directorySuffixes []string
	urlPrefixSuffixes []string
	examples          bool
	numberLines       bool
	noSourceMaps      bool
	outputFormat      string
	testMode          bool
	verbosity         int
}

func newValidateCmd() *cobra.Command {
	flags := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an API description and emit its reference graph",
		Long: `Validate loads the declared locations, picks the entry document,
validates everything reachable from it, and reports the aggregate of
all problems found. The exit status is non-zero when any problem is
reported.

Locations are declared as FILE[,URI[,TYPE]] where URI overrides the
derived identifier and TYPE declares the semantic type of the document
root. Directories and URL prefixes declare prefix mappings searched by
suffix.`,
		Example: `  oasgraph validate -f openapi.yaml
  oasgraph validate -f openapi.yaml -d ./schemas,https://example.com/api/
  oasgraph validate -u https://example.com/api/openapi.yaml -o nt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, flags)
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&flags.files, "file", "f", nil,
		"FILE[,URI[,TYPE]] file location (repeatable)")
	fs.StringArrayVarP(&flags.urls, "url", "u", nil,
		"URL[,URI[,TYPE]] network location (repeatable)")
	fs.StringArrayVarP(&flags.directories, "directory", "d", nil,
		"DIR[,URIPREFIX] directory mapping searched by suffix (repeatable)")
	fs.StringArrayVarP(&flags.urlPrefixes, "url-prefix", "p", nil,
		"URLPREFIX[,URIPREFIX] URL prefix mapping searched by suffix (repeatable)")
	fs.StringSliceVarP(&flags.stripSuffixes, "strip-suffixes", "x",
		[]string{".json", ".yaml", ".yml"},
		"suffixes stripped when deriving identifiers from locations")
	fs.StringSliceVarP(&flags.directorySuffixes, "directory-suffixes", "D",
		[]string{".json", ".yaml", ".yml"},
		"suffixes tried when searching directory mappings")
	fs.StringSliceVarP(&flags.urlPrefixSuffixes, "url-prefix-suffixes", "P",
		[]string{".json", ".yaml"},
		"suffixes tried when searching URL prefix mappings")
	fs.BoolVarP(&flags.examples, "examples", "e", true,
		"validate example and default content against governing schemas")
	fs.BoolVarP(&flags.numberLines, "number-lines", "n", false,
		"record source line numbers in the graph")
	fs.BoolVar(&flags.noSourceMaps, "no-source-maps", false,
		"skip sourcemap construction; faster, but no line information")
	fs.StringVarP(&flags.outputFormat, "output-format", "o", "",
		`write the graph to stdout as "nt" or "debug"`)
	fs.BoolVar(&flags.testMode, "test-mode", false,
		"reproducible output: sorted triples, no environment-specific triples")
	fs.CountVarP(&flags.verbosity, "verbose", "v",
		"increase log verbosity (repeatable)")

	return cmd
}

// entryCandidate is one declared document location in declaration
// order.
type entryCandidate struct {
	uri     string
	oasType string
}

func runValidate(cmd *cobra.Command, flags *validateFlags) error {
	if len(flags.files) == 0 && len(flags.urls) == 0 {
		return fmt.Errorf("at least one document location (-f or -u) is required")
	}

	logger := newLogger(flags.verbosity)
	parser := source.NewContentParser(logger)
	parser.DisableSourceMaps = flags.noSourceMaps
	cat := catalog.New(catalog.WithLogger(logger))

	prefixes, err := registerPrefixSources(cat, parser, logger, flags)
	if err != nil {
		return err
	}
	candidates, err := registerDirectLocations(cat, parser, logger, prefixes, flags)
	if err != nil {
		return err
	}

	entry, entryType, err := selectEntry(cat, candidates)
	if err != nil {
		return err
	}
	node, err := cat.GetResource(entry, "")
	if err != nil {
		return err
	}

	gopts := []graph.Option{graph.WithLogger(logger)}
	if flags.testMode {
		gopts = append(gopts, graph.WithTestMode())
	}
	if flags.numberLines {
		gopts = append(gopts, graph.WithLineNumbers())
	}

	dopts := []apidesc.Option{
		apidesc.WithGraph(graph.New(node.Partition(), gopts...)),
		apidesc.WithLogger(logger),
	}
	if !flags.examples {
		dopts = append(dopts, apidesc.WithSkipExamples())
	}
	desc := apidesc.New(cat, node.Partition(), dopts...)

	var errs oaserrors.ErrorList
	errs.Add(desc.Validate(entry, entryType)...)
	errs.Add(desc.ValidateGraph()...)

	if flags.outputFormat != "" {
		if err := desc.Serialize(cmd.OutOrStdout(), flags.outputFormat); err != nil {
			return err
		}
	}

	for _, e := range errs.Errors() {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
	if errs.Len() > 0 {
		return fmt.Errorf("validation failed with %d problems", errs.Len())
	}
	return nil
}

// registerPrefixSources registers every -d and -p mapping and returns
// the declared mappings longest-prefix-first for identifier
// assignment.
func registerPrefixSources(cat *catalog.Catalog, parser *source.ContentParser,
	logger oasgraph.Logger, flags *validateFlags) ([]*urimap.PrefixMapping, error) {

	var prefixes []*urimap.PrefixMapping

	for _, arg := range flags.directories {
		dir, uriPrefix, _ := splitLocationArg(arg)
		opts := []urimap.Option{urimap.AsPrefix()}
		if uriPrefix != "" {
			opts = append(opts, urimap.WithURI(uriPrefix))
		}
		loc, err := urimap.NewPathLocation(dir, opts...)
		if err != nil {
			return nil, err
		}
		mapping, err := urimap.NewPrefixMapping(loc, flags.directorySuffixes)
		if err != nil {
			return nil, err
		}
		src, err := source.NewFileMultiSuffixSource(mapping, parser, source.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := cat.AddSource(loc.URI, src); err != nil {
			return nil, err
		}
		prefixes = append(prefixes, mapping)
	}

	for _, arg := range flags.urlPrefixes {
		urlPrefix, uriPrefix, _ := splitLocationArg(arg)
		opts := []urimap.Option{urimap.AsPrefix()}
		if uriPrefix != "" {
			opts = append(opts, urimap.WithURI(uriPrefix))
		}
		loc, err := urimap.NewURLLocation(urlPrefix, opts...)
		if err != nil {
			return nil, err
		}
		mapping, err := urimap.NewPrefixMapping(loc, flags.urlPrefixSuffixes)
		if err != nil {
			return nil, err
		}
		src, err := source.NewHTTPMultiSuffixSource(mapping, parser, nil, source.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := cat.AddSource(loc.URI, src); err != nil {
			return nil, err
		}
		prefixes = append(prefixes, mapping)
	}

	urimap.SortLongestFirst(prefixes)
	return prefixes, nil
}

// registerDirectLocations registers every -f and -u location in the
// shared direct map and returns the entry candidates in declaration
// order.
func registerDirectLocations(cat *catalog.Catalog, parser *source.ContentParser,
	logger oasgraph.Logger, prefixes []*urimap.PrefixMapping,
	flags *validateFlags) ([]entryCandidate, error) {

	direct := source.NewDirectMapSource(parser, source.WithLogger(logger))
	var candidates []entryCandidate

	register := func(loc *urimap.Location) {
		uri := assignPrefix(loc, prefixes)
		direct.Add(uri, loc.URL)
		for _, extra := range loc.AdditionalURIs {
			direct.Add(extra, loc.URL)
		}
		candidates = append(candidates, entryCandidate{uri: uri, oasType: loc.OASType})
	}

	for _, arg := range flags.files {
		file, uri, oasType := splitLocationArg(arg)
		opts := []urimap.Option{urimap.WithStripSuffixes(flags.stripSuffixes...)}
		if uri != "" {
			opts = append(opts, urimap.WithURI(uri))
		}
		if oasType != "" {
			opts = append(opts, urimap.WithOASType(oasType))
		}
		loc, err := urimap.NewPathLocation(file, opts...)
		if err != nil {
			return nil, err
		}
		register(loc)
	}

	for _, arg := range flags.urls {
		rawURL, uri, oasType := splitLocationArg(arg)
		opts := []urimap.Option{urimap.WithStripSuffixes(flags.stripSuffixes...)}
		if uri != "" {
			opts = append(opts, urimap.WithURI(uri))
		}
		if oasType != "" {
			opts = append(opts, urimap.WithOASType(oasType))
		}
		loc, err := urimap.NewURLLocation(rawURL, opts...)
		if err != nil {
			return nil, err
		}
		register(loc)
	}

	if err := cat.AddSource("", direct); err != nil {
		return nil, err
	}
	return candidates, nil
}

// assignPrefix reassigns a derived identifier under the longest
// declared prefix mapping covering the location, so files inside a
// mapped directory answer to the mapping's identifiers. Explicitly
// declared identifiers are never reassigned.
func assignPrefix(loc *urimap.Location, prefixes []*urimap.PrefixMapping) string {
	if loc.Explicit {
		return loc.URI
	}
	for _, mapping := range prefixes {
		base := mapping.Location.URL
		if strings.HasPrefix(loc.URI, base) {
			return mapping.Location.URI + strings.TrimPrefix(loc.URI, base)
		}
	}
	return loc.URI
}

// selectEntry picks the entry document: the first location declared
// with an explicit root type, otherwise the first whose document has
// an openapi field.
func selectEntry(cat *catalog.Catalog, candidates []entryCandidate) (string, string, error) {
	for _, c := range candidates {
		if c.oasType != "" {
			return c.uri, c.oasType, nil
		}
	}
	uris := make([]string, len(candidates))
	for i, c := range candidates {
		uris[i] = c.uri
	}
	entry, err := apidesc.FindEntry(cat, uris)
	if err != nil {
		return "", "", err
	}
	return entry, "", nil
}

// splitLocationArg splits a LOC[,URI[,TYPE]] flag value.
func splitLocationArg(arg string) (loc, uri, oasType string) {
	parts := strings.SplitN(arg, ",", 3)
	loc = parts[0]
	if len(parts) > 1 {
		uri = parts[1]
	}
	if len(parts) > 2 {
		oasType = parts[2]
	}
	return loc, uri, oasType
}
