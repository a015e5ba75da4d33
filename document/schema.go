package document

import (
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/oasgraph/oasgraph/jsonptr"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// compiledSchema memoizes the resolved jsonschema form of a schema
// node's value.
type compiledSchema struct {
	resolved *jsonschema.Resolved
}

// ValidateInstance validates an instance value against this node's
// schema. Calling it on a node that was never classified or converted
// to a schema is a configuration mistake and fails with a
// NotASchemaError naming both identifier and locator.
func (n *Node) ValidateInstance(instance any) error {
	if n.Kind != KindSchema {
		return &oaserrors.NotASchemaError{
			URI:     n.URI,
			Message: "loaded from " + n.URL,
		}
	}
	resolved, err := n.compileSchema()
	if err != nil {
		return err
	}
	if err := resolved.Validate(instance); err != nil {
		return &oaserrors.ValidationError{
			SchemaURI: n.URI,
			Cause:     err,
		}
	}
	return nil
}

// compileSchema builds and memoizes the resolved schema for this node.
func (n *Node) compileSchema() (*jsonschema.Resolved, error) {
	if n.resolved != nil {
		return n.resolved.resolved, nil
	}
	data, err := json.Marshal(n.Value)
	if err != nil {
		return nil, &oaserrors.NotASchemaError{
			URI:     n.URI,
			Message: "schema value cannot be serialized: " + err.Error(),
		}
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, &oaserrors.NotASchemaError{
			URI:     n.URI,
			Message: "value does not form a schema: " + err.Error(),
		}
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, &oaserrors.NotASchemaError{
			URI:     n.URI,
			Message: "schema does not resolve: " + err.Error(),
		}
	}
	n.resolved = &compiledSchema{resolved: resolved}
	return resolved, nil
}

// ResolveInternalRefs eagerly converts the targets of every
// same-document reference reachable from this schema node. Conversion
// idempotence terminates reference cycles: a target that is already a
// schema is not descended into again.
func (n *Node) ResolveInternalRefs() error {
	refs := collectLocalRefs(n.Value, nil)
	for _, ref := range refs {
		frag := strings.TrimPrefix(ref, "#")
		tokens, err := jsonptr.Parse(frag)
		if err != nil {
			return &oaserrors.ReferenceError{
				Source:  n.URI,
				Target:  ref,
				Message: "invalid pointer fragment",
			}
		}
		if len(tokens) == 0 {
			continue
		}
		parent := n.root
		for _, token := range tokens[:len(tokens)-1] {
			parent, err = parent.Child(token)
			if err != nil {
				return &oaserrors.ReferenceError{
					Source:  n.URI,
					Target:  appendFragment(n.root.URI, token),
					Message: err.Error(),
				}
			}
		}
		if _, err := parent.ConvertToSchema(tokens[len(tokens)-1]); err != nil {
			return err
		}
	}
	return nil
}

// collectLocalRefs gathers every same-document $ref value ("#/...")
// in a subtree.
func collectLocalRefs(value any, refs []string) []string {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok && strings.HasPrefix(ref, "#") {
			refs = append(refs, ref)
		}
		for _, child := range v {
			refs = collectLocalRefs(child, refs)
		}
	case []any:
		for _, child := range v {
			refs = collectLocalRefs(child, refs)
		}
	}
	return refs
}
