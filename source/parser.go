package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// ContentParser deserializes loaded content into a generic tree and a
// best-effort sourcemap.
//
// JSON is parsed strictly. YAML uses the safe (non-code-executing)
// yaml v4 decoder. Unknown content tries JSON first, then YAML, and
// only fails when both fail. Sourcemaps come from a second yaml.Node
// pass over the text; a failure in that pass is logged and the
// sourcemap omitted, never escalated to a document failure.
type ContentParser struct {
	// Logger receives sourcemap warnings. Defaults to NopLogger.
	Logger oasgraph.Logger
	// DisableSourceMaps skips sourcemap construction entirely.
	// Sourcemap computation dominates load time on large documents.
	DisableSourceMaps bool
}

// NewContentParser creates a ContentParser.
// A nil logger defaults to NopLogger.
func NewContentParser(logger oasgraph.Logger) *ContentParser {
	if logger == nil {
		logger = oasgraph.NopLogger{}
	}
	return &ContentParser{Logger: logger}
}

// Parse deserializes lc per its parse type.
func (p *ContentParser) Parse(lc LoadedContent) (ParsedContent, error) {
	var (
		value any
		err   error
	)
	switch lc.ParseType {
	case ParseTypeJSON:
		value, err = parseJSON(lc.Content, lc.URL)
	case ParseTypeYAML:
		value, err = parseYAML(lc.Content, lc.URL)
	default:
		value, err = parseUnknown(lc.Content, lc.URL)
	}
	if err != nil {
		return ParsedContent{}, err
	}
	return ParsedContent{
		Value:     value,
		URL:       lc.URL,
		SourceMap: p.buildSourceMap(lc),
	}, nil
}

// buildSourceMap best-effort maps pointers to line/column. YAML is a
// superset of JSON, so the yaml.Node pass covers both formats.
func (p *ContentParser) buildSourceMap(lc LoadedContent) *SourceMap {
	if p.DisableSourceMaps {
		return nil
	}
	logger := p.Logger
	if logger == nil {
		logger = oasgraph.NopLogger{}
	}
	var node yaml.Node
	if err := yaml.Unmarshal(lc.Content, &node); err != nil {
		logger.Warn("sourcemap construction failed; continuing without line information",
			"url", lc.URL, "error", err)
		return nil
	}
	return BuildSourceMap(&node)
}

// parseJSON strictly decodes a single JSON value.
func parseJSON(data []byte, url string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var value any
	if err := dec.Decode(&value); err != nil {
		line, col := lineColumn(data, jsonErrorOffset(err))
		return nil, &oaserrors.ParseError{
			URL:    url,
			Format: "json",
			Line:   line,
			Column: col,
			Cause:  err,
		}
	}
	if dec.More() {
		return nil, &oaserrors.ParseError{
			URL:     url,
			Format:  "json",
			Message: "trailing content after JSON value",
		}
	}
	return value, nil
}

// parseYAML safely decodes a single YAML document.
func parseYAML(data []byte, url string) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, &oaserrors.ParseError{
			URL:    url,
			Format: "yaml",
			Cause:  err,
		}
	}
	return normalizeKeys(value), nil
}

// normalizeKeys rewrites mappings with non-string keys into
// string-keyed maps. YAML permits bare scalar keys such as response
// codes (200:), which decode as map[any]any; the rest of the system
// works on map[string]any.
func normalizeKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeKeys(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeKeys(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalizeKeys(item)
		}
		return v
	}
	return value
}

// parseUnknown tries JSON first, then YAML, composing both failures.
func parseUnknown(data []byte, url string) (any, error) {
	value, jsonErr := parseJSON(data, url)
	if jsonErr == nil {
		return value, nil
	}
	value, yamlErr := parseYAML(data, url)
	if yamlErr == nil {
		return value, nil
	}
	return nil, &oaserrors.ParseError{
		URL:     url,
		Message: fmt.Sprintf("content is neither JSON nor YAML: as JSON: %v; as YAML: %v", jsonErr, yamlErr),
	}
}

// jsonErrorOffset extracts the byte offset from a JSON decode error.
func jsonErrorOffset(err error) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return 0
}

// lineColumn converts a byte offset into 1-based line and column.
// A zero offset yields unknown (0, 0).
func lineColumn(data []byte, offset int64) (line, col int) {
	if offset <= 0 || offset > int64(len(data)) {
		return 0, 0
	}
	line, col = 1, 1
	for _, b := range data[:offset-1] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
