package source

import (
	"fmt"
	"sort"

	"go.yaml.in/yaml/v4"

	"github.com/oasgraph/oasgraph/jsonptr"
)

// SourceLocation is a position in a source document.
// Line and Column are 1-based (matching editor conventions).
// A zero Line value indicates the location is unknown.
type SourceLocation struct {
	// Line is the 1-based line number (0 if unknown)
	Line int
	// Column is the 1-based column number (0 if unknown)
	Column int
}

// IsKnown returns true if this location has valid line information.
func (s SourceLocation) IsKnown() bool {
	return s.Line > 0
}

// String returns "line:column", or "<unknown>" if not known.
func (s SourceLocation) String() string {
	if !s.IsKnown() {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// SourceMap maps JSON Pointers to source locations, enabling the
// original line/column of any element in a parsed document to be
// recovered for diagnostics.
//
// Construction is best-effort: a document that parses but defeats
// sourcemap construction simply has no map.
type SourceMap struct {
	// locations maps JSON Pointers to value positions
	locations map[string]SourceLocation
	// keyLocations maps JSON Pointers to key positions (for map keys)
	keyLocations map[string]SourceLocation
}

// NewSourceMap creates an empty SourceMap.
func NewSourceMap() *SourceMap {
	return &SourceMap{
		locations:    make(map[string]SourceLocation),
		keyLocations: make(map[string]SourceLocation),
	}
}

// Get returns the source location for a JSON Pointer.
// Returns a zero SourceLocation if the pointer is not found.
func (sm *SourceMap) Get(ptr string) SourceLocation {
	if sm == nil {
		return SourceLocation{}
	}
	return sm.locations[ptr]
}

// GetKey returns the source location of a map key at the given pointer.
// This is useful for errors about the key itself.
func (sm *SourceMap) GetKey(ptr string) SourceLocation {
	if sm == nil {
		return SourceLocation{}
	}
	return sm.keyLocations[ptr]
}

// Has returns true if the pointer exists in the source map.
func (sm *SourceMap) Has(ptr string) bool {
	if sm == nil {
		return false
	}
	_, ok := sm.locations[ptr]
	return ok
}

// Len returns the number of pointers in the source map.
func (sm *SourceMap) Len() int {
	if sm == nil {
		return 0
	}
	return len(sm.locations)
}

// Pointers returns all JSON Pointers in the source map, sorted.
// Returns nil if the receiver is nil.
func (sm *SourceMap) Pointers() []string {
	if sm == nil {
		return nil
	}
	ptrs := make([]string, 0, len(sm.locations))
	for ptr := range sm.locations {
		ptrs = append(ptrs, ptr)
	}
	sort.Strings(ptrs)
	return ptrs
}

// Copy creates a deep copy of the SourceMap.
// Returns nil if the receiver is nil.
func (sm *SourceMap) Copy() *SourceMap {
	if sm == nil {
		return nil
	}
	result := NewSourceMap()
	for ptr, loc := range sm.locations {
		result.locations[ptr] = loc
	}
	for ptr, loc := range sm.keyLocations {
		result.keyLocations[ptr] = loc
	}
	return result
}

// Merge combines another SourceMap into this one. Locations from the
// other map overwrite existing locations with the same pointer.
// Does nothing if either receiver or other is nil.
func (sm *SourceMap) Merge(other *SourceMap) {
	if sm == nil || other == nil {
		return
	}
	for ptr, loc := range other.locations {
		sm.set(ptr, loc)
	}
	for ptr, loc := range other.keyLocations {
		sm.setKey(ptr, loc)
	}
}

func (sm *SourceMap) set(ptr string, loc SourceLocation) {
	if sm.locations == nil {
		sm.locations = make(map[string]SourceLocation)
	}
	sm.locations[ptr] = loc
}

func (sm *SourceMap) setKey(ptr string, loc SourceLocation) {
	if sm.keyLocations == nil {
		sm.keyLocations = make(map[string]SourceLocation)
	}
	sm.keyLocations[ptr] = loc
}

// BuildSourceMap walks a yaml.Node tree and builds a SourceMap
// correlating JSON Pointers to source locations.
func BuildSourceMap(root *yaml.Node) *SourceMap {
	sm := NewSourceMap()
	if root == nil {
		return sm
	}
	walkNode(root, "", sm)
	return sm
}

// walkNode recursively walks a yaml.Node tree, recording locations.
func walkNode(node *yaml.Node, ptr string, sm *SourceMap) {
	if node == nil {
		return
	}

	sm.set(ptr, SourceLocation{Line: node.Line, Column: node.Column})

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			walkNode(node.Content[0], ptr, sm)
		}

	case yaml.MappingNode:
		// Content alternates: key, value, key, value...
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			childPtr := jsonptr.Append(ptr, keyNode.Value)
			sm.setKey(childPtr, SourceLocation{Line: keyNode.Line, Column: keyNode.Column})
			walkNode(valNode, childPtr, sm)
		}

	case yaml.SequenceNode:
		for i, item := range node.Content {
			walkNode(item, jsonptr.Append(ptr, fmt.Sprintf("%d", i)), sm)
		}

	case yaml.AliasNode:
		// Record where the alias is used; the anchor's own subtree is
		// mapped where it is defined.
	}
}
