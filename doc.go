// Package oasgraph loads multi-document OpenAPI descriptions, resolves
// references across document boundaries, and emits a normalized graph of
// the parsed structure.
//
// An API description rarely lives in a single file: schemas are split out,
// shared components live on internal servers, and references cross document
// boundaries. oasgraph maps logical identifiers (URIs) to physical
// locations (files or URLs), loads and parses content lazily, resolves
// references while tracking source line/column provenance, and walks the
// resulting document tree in a fixed dependency order, converting subtrees
// into semantically typed units on demand.
//
// # Overview
//
// The library consists of the following packages:
//
//   - urimap: derive identifiers from locations and declare prefix mappings
//   - source: loaders, content parsers, sourcemaps, and lookup strategies
//   - catalog: the central registry of loaded resources and schemas
//   - document: the typed document tree with schema reclassification
//   - graph: the triple store built from validation annotations
//   - apidesc: the validation and annotation-processing driver
//   - oaserrors: structured error types shared by all of the above
//
// OpenAPI 3.0.x and 3.1.x descriptions are supported.
//
// # Quick Start
//
// Validate a single-document description:
//
//	loc, err := urimap.NewPathLocation("openapi.yaml",
//	    urimap.WithStripSuffixes(".yaml", ".json"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src := source.NewDirectMapSource(nil)
//	src.AddLocation(loc)
//
//	cat := catalog.New()
//	if err := cat.AddSource("", src); err != nil {
//	    log.Fatal(err)
//	}
//
//	desc := apidesc.New(cat, "3.0")
//	errs := desc.Validate(loc.URI, "")
//	errs = append(errs, desc.ValidateGraph()...)
//	for _, e := range errs {
//	    fmt.Println(e)
//	}
//
// Multi-document descriptions register directories or URL prefixes so that
// references resolve through suffix search:
//
//	dir, err := urimap.NewPathLocation("./schemas", urimap.AsPrefix(),
//	    urimap.WithURI("https://example.com/api/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mapping, err := urimap.NewPrefixMapping(dir, []string{".json", ".yaml"})
//
// # Command-Line Interface
//
// The oasgraph command wraps the library:
//
//	oasgraph validate -f openapi.yaml -d ./schemas,https://example.com/api/
//
// Install the CLI:
//
//	go install github.com/oasgraph/oasgraph/cmd/oasgraph@latest
package oasgraph
