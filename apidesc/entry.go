package apidesc

import (
	"github.com/oasgraph/oasgraph/catalog"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// FindEntry returns the first of the candidate identifiers whose
// resource is an object with an openapi field. Candidates that fail
// to load or that hold other content (standalone schemas, shared
// components) are skipped.
func FindEntry(cat *catalog.Catalog, uris []string) (string, error) {
	for _, uri := range uris {
		node, err := cat.GetResource(uri, "")
		if err != nil {
			continue
		}
		obj, ok := node.Value.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := obj["openapi"]; ok {
			return uri, nil
		}
	}
	return "", &oaserrors.ConfigError{
		Option:  "entry",
		Message: "no declared location holds an OpenAPI document",
	}
}
