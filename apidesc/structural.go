package apidesc

import (
	"fmt"
	"sort"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/document"
	"github.com/oasgraph/oasgraph/jsonptr"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// containerKind describes how a fixed field holds its child objects.
type containerKind int

const (
	// singleChild holds one object directly
	singleChild containerKind = iota
	// mapChildren holds a map of name to object
	mapChildren
	// listChildren holds an array of objects
	listChildren
)

type childSpec struct {
	oasType string
	kind    containerKind
}

// objectSpec is the pattern table entry for one OAS object type.
type objectSpec struct {
	// children maps fixed field names to the type of object they hold
	children map[string]childSpec
	// literals are fixed fields holding literal values
	literals []string
	// refCapable marks objects that may be replaced by a Reference Object
	refCapable bool
	// extensible marks objects accepting specification extensions
	extensible bool
	// apiLinks are fields holding URLs into the running API
	apiLinks []string
	// descriptionLinks are fields holding URLs to human documentation
	descriptionLinks []string
	// examples are fields holding example or default content
	examples []string
}

// StructuralEvaluator evaluates documents against a pattern table of
// the OAS 3.0 and 3.1 object models.
type StructuralEvaluator struct {
	logger oasgraph.Logger
}

// NewStructuralEvaluator creates an evaluator. A nil logger means no
// logging.
func NewStructuralEvaluator(logger oasgraph.Logger) *StructuralEvaluator {
	if logger == nil {
		logger = oasgraph.NopLogger{}
	}
	return &StructuralEvaluator{logger: logger}
}

var _ Evaluator = (*StructuralEvaluator)(nil)

// objectModel30 is the OAS 3.0 object model. Fields absent from the
// table pass through unannotated.
var objectModel30 = map[string]objectSpec{
	"OpenAPI": {
		children: map[string]childSpec{
			"info":         {oasType: "Info"},
			"servers":      {oasType: "Server", kind: listChildren},
			"paths":        {oasType: "PathItem", kind: mapChildren},
			"components":   {oasType: "Components"},
			"tags":         {oasType: "Tag", kind: listChildren},
			"externalDocs": {oasType: "ExternalDocumentation"},
			"security":     {oasType: "SecurityRequirement", kind: listChildren},
		},
		literals:   []string{"openapi"},
		extensible: true,
	},
	"Info": {
		children: map[string]childSpec{
			"contact": {oasType: "Contact"},
			"license": {oasType: "License"},
		},
		literals:         []string{"title", "description", "version"},
		extensible:       true,
		descriptionLinks: []string{"termsOfService"},
	},
	"Contact": {
		literals:         []string{"name", "email"},
		extensible:       true,
		descriptionLinks: []string{"url"},
	},
	"License": {
		literals:         []string{"name"},
		extensible:       true,
		descriptionLinks: []string{"url"},
	},
	"Server": {
		children: map[string]childSpec{
			"variables": {oasType: "ServerVariable", kind: mapChildren},
		},
		literals:   []string{"description"},
		extensible: true,
		apiLinks:   []string{"url"},
	},
	"ServerVariable": {
		literals:   []string{"enum", "default", "description"},
		extensible: true,
	},
	"PathItem": {
		children: map[string]childSpec{
			"get":        {oasType: "Operation"},
			"put":        {oasType: "Operation"},
			"post":       {oasType: "Operation"},
			"delete":     {oasType: "Operation"},
			"options":    {oasType: "Operation"},
			"head":       {oasType: "Operation"},
			"patch":      {oasType: "Operation"},
			"trace":      {oasType: "Operation"},
			"servers":    {oasType: "Server", kind: listChildren},
			"parameters": {oasType: "Parameter", kind: listChildren},
		},
		literals:   []string{"summary", "description"},
		refCapable: true,
		extensible: true,
	},
	"Operation": {
		children: map[string]childSpec{
			"externalDocs": {oasType: "ExternalDocumentation"},
			"parameters":   {oasType: "Parameter", kind: listChildren},
			"requestBody":  {oasType: "RequestBody"},
			"responses":    {oasType: "Response", kind: mapChildren},
			"callbacks":    {oasType: "Callback", kind: mapChildren},
			"security":     {oasType: "SecurityRequirement", kind: listChildren},
			"servers":      {oasType: "Server", kind: listChildren},
		},
		literals:   []string{"tags", "summary", "description", "operationId", "deprecated"},
		extensible: true,
	},
	"ExternalDocumentation": {
		literals:         []string{"description"},
		extensible:       true,
		descriptionLinks: []string{"url"},
	},
	"Parameter": {
		children: map[string]childSpec{
			"schema":   {oasType: "Schema"},
			"content":  {oasType: "MediaType", kind: mapChildren},
			"examples": {oasType: "Example", kind: mapChildren},
		},
		literals:   []string{"name", "in", "description", "required", "deprecated", "allowEmptyValue", "style", "explode", "allowReserved"},
		refCapable: true,
		extensible: true,
		examples:   []string{"example"},
	},
	"RequestBody": {
		children: map[string]childSpec{
			"content": {oasType: "MediaType", kind: mapChildren},
		},
		literals:   []string{"description", "required"},
		refCapable: true,
		extensible: true,
	},
	"MediaType": {
		children: map[string]childSpec{
			"schema":   {oasType: "Schema"},
			"examples": {oasType: "Example", kind: mapChildren},
			"encoding": {oasType: "Encoding", kind: mapChildren},
		},
		extensible: true,
		examples:   []string{"example"},
	},
	"Encoding": {
		children: map[string]childSpec{
			"headers": {oasType: "Header", kind: mapChildren},
		},
		literals:   []string{"contentType", "style", "explode", "allowReserved"},
		extensible: true,
	},
	"Response": {
		children: map[string]childSpec{
			"headers": {oasType: "Header", kind: mapChildren},
			"content": {oasType: "MediaType", kind: mapChildren},
			"links":   {oasType: "Link", kind: mapChildren},
		},
		literals:   []string{"description"},
		refCapable: true,
		extensible: true,
	},
	"Callback": {
		children: map[string]childSpec{
			"*": {oasType: "PathItem", kind: mapChildren},
		},
		refCapable: true,
		extensible: true,
	},
	"Example": {
		literals:         []string{"summary", "description"},
		refCapable:       true,
		extensible:       true,
		descriptionLinks: []string{"externalValue"},
		examples:         []string{"value"},
	},
	"Link": {
		children: map[string]childSpec{
			"server": {oasType: "Server"},
		},
		literals:   []string{"operationRef", "operationId", "description"},
		refCapable: true,
		extensible: true,
	},
	"Header": {
		children: map[string]childSpec{
			"schema":   {oasType: "Schema"},
			"content":  {oasType: "MediaType", kind: mapChildren},
			"examples": {oasType: "Example", kind: mapChildren},
		},
		literals:   []string{"description", "required", "deprecated", "allowEmptyValue", "style", "explode", "allowReserved"},
		refCapable: true,
		extensible: true,
		examples:   []string{"example"},
	},
	"Tag": {
		children: map[string]childSpec{
			"externalDocs": {oasType: "ExternalDocumentation"},
		},
		literals:   []string{"name", "description"},
		extensible: true,
	},
	"Schema": {
		children: map[string]childSpec{
			"properties":           {oasType: "Schema", kind: mapChildren},
			"additionalProperties": {oasType: "Schema"},
			"items":                {oasType: "Schema"},
			"allOf":                {oasType: "Schema", kind: listChildren},
			"anyOf":                {oasType: "Schema", kind: listChildren},
			"oneOf":                {oasType: "Schema", kind: listChildren},
			"not":                  {oasType: "Schema"},
			"discriminator":        {oasType: "Discriminator"},
			"xml":                  {oasType: "XML"},
			"externalDocs":         {oasType: "ExternalDocumentation"},
		},
		literals: []string{"title", "multipleOf", "maximum", "exclusiveMaximum",
			"minimum", "exclusiveMinimum", "maxLength", "minLength", "pattern",
			"maxItems", "minItems", "uniqueItems", "maxProperties", "minProperties",
			"required", "enum", "type", "format", "description", "nullable",
			"readOnly", "writeOnly", "deprecated"},
		refCapable: true,
		extensible: true,
		examples:   []string{"example", "default"},
	},
	"Discriminator": {
		literals: []string{"propertyName", "mapping"},
	},
	"XML": {
		literals:   []string{"name", "namespace", "prefix", "attribute", "wrapped"},
		extensible: true,
	},
	"SecurityScheme": {
		children: map[string]childSpec{
			"flows": {oasType: "OAuthFlows"},
		},
		literals:         []string{"type", "description", "name", "in", "scheme", "bearerFormat"},
		refCapable:       true,
		extensible:       true,
		descriptionLinks: []string{"openIdConnectUrl"},
	},
	"OAuthFlows": {
		children: map[string]childSpec{
			"implicit":          {oasType: "OAuthFlow"},
			"password":          {oasType: "OAuthFlow"},
			"clientCredentials": {oasType: "OAuthFlow"},
			"authorizationCode": {oasType: "OAuthFlow"},
		},
		extensible: true,
	},
	"OAuthFlow": {
		literals:   []string{"scopes"},
		extensible: true,
		apiLinks:   []string{"authorizationUrl", "tokenUrl", "refreshUrl"},
	},
	"SecurityRequirement": {},
	"Components": {
		children: map[string]childSpec{
			"schemas":         {oasType: "Schema", kind: mapChildren},
			"responses":       {oasType: "Response", kind: mapChildren},
			"parameters":      {oasType: "Parameter", kind: mapChildren},
			"examples":        {oasType: "Example", kind: mapChildren},
			"requestBodies":   {oasType: "RequestBody", kind: mapChildren},
			"headers":         {oasType: "Header", kind: mapChildren},
			"securitySchemes": {oasType: "SecurityScheme", kind: mapChildren},
			"links":           {oasType: "Link", kind: mapChildren},
			"callbacks":       {oasType: "Callback", kind: mapChildren},
		},
		extensible: true,
	},
}

// objectModel31 overlays the 3.1 changes on the 3.0 model.
var objectModel31 = buildModel31()

func buildModel31() map[string]objectSpec {
	model := make(map[string]objectSpec, len(objectModel30))
	for name, spec := range objectModel30 {
		model[name] = spec
	}

	openapi := model["OpenAPI"]
	openapi.children = cloneChildren(openapi.children)
	openapi.children["webhooks"] = childSpec{oasType: "PathItem", kind: mapChildren}
	openapi.literals = append([]string{"jsonSchemaDialect"}, openapi.literals...)
	model["OpenAPI"] = openapi

	info := model["Info"]
	info.literals = append([]string{"summary"}, info.literals...)
	model["Info"] = info

	license := model["License"]
	license.literals = append([]string{"identifier"}, license.literals...)
	model["License"] = license

	components := model["Components"]
	components.children = cloneChildren(components.children)
	components.children["pathItems"] = childSpec{oasType: "PathItem", kind: mapChildren}
	model["Components"] = components

	schema := model["Schema"]
	schema.children = cloneChildren(schema.children)
	schema.children["prefixItems"] = childSpec{oasType: "Schema", kind: listChildren}
	schema.children["patternProperties"] = childSpec{oasType: "Schema", kind: mapChildren}
	schema.children["$defs"] = childSpec{oasType: "Schema", kind: mapChildren}
	schema.children["contains"] = childSpec{oasType: "Schema"}
	schema.children["propertyNames"] = childSpec{oasType: "Schema"}
	schema.children["if"] = childSpec{oasType: "Schema"}
	schema.children["then"] = childSpec{oasType: "Schema"}
	schema.children["else"] = childSpec{oasType: "Schema"}
	schema.literals = append([]string{"$id", "$schema", "$anchor", "$comment",
		"const", "contentMediaType", "contentEncoding"}, schema.literals...)
	schema.examples = append([]string{"examples"}, schema.examples...)
	model["Schema"] = schema

	return model
}

func cloneChildren(in map[string]childSpec) map[string]childSpec {
	out := make(map[string]childSpec, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// modelFor returns the object model for a version partition.
func modelFor(partition string) map[string]objectSpec {
	if partition == document.Partition31 {
		return objectModel31
	}
	return objectModel30
}

// Evaluate walks the node's value against the object model for its
// version, producing annotations for every typed location. An oasType
// of "" means OpenAPI for the document root.
func (e *StructuralEvaluator) Evaluate(node *document.Node, oasType string) (*EvalResult, error) {
	if oasType == "" {
		oasType = "OpenAPI"
	}
	model := modelFor(node.Partition())
	if _, ok := model[oasType]; !ok {
		return nil, &oaserrors.AnnotationError{
			Keyword: "oasType",
			Value:   oasType,
			Message: "unknown object type",
		}
	}

	w := &modelWalker{model: model, result: &EvalResult{Valid: true}}
	w.walk(node.Value, "", oasType)
	e.logger.Debug("evaluated resource",
		"uri", node.URI, "type", oasType,
		"annotations", len(w.result.Annotations), "errors", len(w.result.Errors))
	return w.result, nil
}

type modelWalker struct {
	model  map[string]objectSpec
	result *EvalResult
}

func (w *modelWalker) emit(keyword string, ptr string, value any) {
	w.result.Annotations = append(w.result.Annotations, Annotation{
		Keyword:          keyword,
		Value:            value,
		InstanceLocation: ptr,
	})
}

func (w *modelWalker) fail(ptr, msg string) {
	w.result.Valid = false
	w.result.Errors = append(w.result.Errors, &oaserrors.ValidationError{
		Location: ptr,
		Message:  msg,
	})
}

func (w *modelWalker) walk(value any, ptr, oasType string) {
	spec := w.model[oasType]

	// boolean schemas are complete on their own
	if _, isBool := value.(bool); isBool && oasType == "Schema" {
		w.emit("oasType", ptr, oasType)
		return
	}

	obj, ok := value.(map[string]any)
	if !ok {
		w.fail(ptr, fmt.Sprintf("expected %s object content", oasType))
		return
	}

	w.emit("oasType", ptr, oasType)

	// a reference replaces the object it stands in for
	if _, hasRef := obj["$ref"]; hasRef && spec.refCapable {
		w.emit("oasReferences", ptr, map[string]string{"/$ref": oasType})
		return
	}

	w.emitChildren(obj, ptr, spec)
	w.emitPresent(obj, ptr, "oasLiterals", spec.literals)
	if spec.extensible {
		w.emit("oasExtensible", ptr, true)
	}
	w.emitPresent(obj, ptr, "oasApiLinks", spec.apiLinks)
	w.emitPresent(obj, ptr, "oasDescriptionLinks", spec.descriptionLinks)
	w.emitPresent(obj, ptr, "oasExamples", spec.examples)
}

// emitPresent emits one annotation listing the declared fields that
// are actually present, as pointers relative to ptr.
func (w *modelWalker) emitPresent(obj map[string]any, ptr, keyword string, fields []string) {
	var present []string
	for _, field := range fields {
		if _, ok := obj[field]; ok {
			present = append(present, "/"+jsonptr.EscapeToken(field))
		}
	}
	if len(present) > 0 {
		w.emit(keyword, ptr, present)
	}
}

// emitChildren emits the oasChildren annotation and recurses into each
// child with its declared type.
func (w *modelWalker) emitChildren(obj map[string]any, ptr string, spec objectSpec) {
	type pending struct {
		ptr     string
		value   any
		oasType string
	}
	var children []pending

	collect := func(fieldPtr string, value any, cs childSpec) {
		switch cs.kind {
		case singleChild:
			children = append(children, pending{ptr: fieldPtr, value: value, oasType: cs.oasType})
		case mapChildren:
			m, ok := value.(map[string]any)
			if !ok {
				w.fail(fieldPtr, "expected a map of "+cs.oasType+" objects")
				return
			}
			for name, item := range m {
				children = append(children, pending{
					ptr:     jsonptr.Append(fieldPtr, name),
					value:   item,
					oasType: cs.oasType,
				})
			}
		case listChildren:
			list, ok := value.([]any)
			if !ok {
				w.fail(fieldPtr, "expected a list of "+cs.oasType+" objects")
				return
			}
			for i, item := range list {
				children = append(children, pending{
					ptr:     fmt.Sprintf("%s/%d", fieldPtr, i),
					value:   item,
					oasType: cs.oasType,
				})
			}
		}
	}

	wildcard, hasWildcard := spec.children["*"]
	if hasWildcard {
		for name, value := range obj {
			collect(jsonptr.Append(ptr, name), value, childSpec{oasType: wildcard.oasType})
		}
	} else {
		for field, cs := range spec.children {
			value, ok := obj[field]
			if !ok {
				continue
			}
			collect(jsonptr.Append(ptr, field), value, cs)
		}
	}

	if len(children) == 0 {
		return
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ptr < children[j].ptr })

	rels := make([]string, len(children))
	for i, c := range children {
		rels[i] = c.ptr[len(ptr):]
	}
	w.emit("oasChildren", ptr, rels)

	for _, c := range children {
		w.walk(c.value, c.ptr, c.oasType)
	}
}
