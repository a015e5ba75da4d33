package document

import (
	"strings"

	"github.com/oasgraph/oasgraph/oaserrors"
)

// Supported OAS version partitions. Every cache and dialect decision
// downstream is keyed by one of these.
const (
	Partition30 = "3.0"
	Partition31 = "3.1"
)

// Default dialect identifiers per partition. A 3.1 document may
// override its dialect with the jsonSchemaDialect field.
const (
	Dialect30 = "https://spec.openapis.org/oas/v3.0/dialect/base"
	Dialect31 = "https://spec.openapis.org/oas/3.1/dialect/base"
)

// ParsePartition reduces a declared openapi version string such as
// "3.0.3" to its cache partition "3.0". Unsupported series fail with
// a VersionError.
func ParsePartition(declared string) (string, error) {
	switch {
	case strings.HasPrefix(declared, "3.0."), declared == "3.0":
		return Partition30, nil
	case strings.HasPrefix(declared, "3.1."), declared == "3.1":
		return Partition31, nil
	}
	return "", &oaserrors.VersionError{
		Declared: declared,
		Message:  "only the 3.0 and 3.1 series are supported",
	}
}

// DefaultDialect returns the dialect identifier for a partition.
func DefaultDialect(partition string) string {
	if partition == Partition31 {
		return Dialect31
	}
	return Dialect30
}
