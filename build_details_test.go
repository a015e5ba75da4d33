package oasgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestVersion verifies that Version() returns the version variable.
// In normal builds, this is set via ldflags; in development it
// defaults to "dev".
func TestVersion(t *testing.T) {
	result := Version()

	assert.NotEmpty(t, result, "Version() should not return empty string")
	assert.True(t,
		result == "dev" || strings.HasPrefix(result, "v"),
		"Version() should be 'dev' or start with 'v', got: %s", result)
}

// TestUserAgent verifies that UserAgent() embeds the version and is
// safe for an HTTP header.
func TestUserAgent(t *testing.T) {
	result := UserAgent()

	assert.Equal(t, "oasgraph/"+Version(), result)
	assert.NotContains(t, result, " ", "UserAgent() should not contain spaces")
	assert.NotContains(t, result, "\n", "UserAgent() should not contain newlines")
}
