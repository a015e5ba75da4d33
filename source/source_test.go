package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasgraph/oasgraph/oaserrors"
	"github.com/oasgraph/oasgraph/urimap"
)

// recordingSink captures provenance writes for assertions.
type recordingSink struct {
	urls       map[string]string
	sourcemaps map[string]*SourceMap
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		urls:       make(map[string]string),
		sourcemaps: make(map[string]*SourceMap),
	}
}

func (r *recordingSink) RecordURL(uri, url string) { r.urls[uri] = url }

func (r *recordingSink) RecordSourceMap(uri string, sm *SourceMap) { r.sourcemaps[uri] = sm }

// TestDirectMapSource tests exact identifier lookup
func TestDirectMapSource(t *testing.T) {
	tmpDir := t.TempDir()
	specPath := filepath.Join(tmpDir, "openapi.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte("openapi: 3.0.3\n"), 0o644))

	t.Run("resolves a mapped identifier and records provenance", func(t *testing.T) {
		sink := newRecordingSink()
		src := NewDirectMapSource(nil)
		src.SetPrefix("")
		src.SetSink(sink)
		src.Add("https://example.com/api/openapi", specPath)

		parsed, err := src.Resolve("https://example.com/api/openapi")
		require.NoError(t, err)
		doc, ok := parsed.Value.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "3.0.3", doc["openapi"])

		assert.Contains(t, sink.urls["https://example.com/api/openapi"], "openapi.yaml")
		assert.NotNil(t, sink.sourcemaps["https://example.com/api/openapi"])
	})

	t.Run("later declarations override earlier ones", func(t *testing.T) {
		otherPath := filepath.Join(tmpDir, "other.yaml")
		require.NoError(t, os.WriteFile(otherPath, []byte("openapi: 3.1.0\n"), 0o644))

		src := NewDirectMapSource(nil)
		src.Add("https://example.com/api/openapi", specPath)
		src.Add("https://example.com/api/openapi", otherPath)

		parsed, err := src.Resolve("https://example.com/api/openapi")
		require.NoError(t, err)
		doc := parsed.Value.(map[string]any)
		assert.Equal(t, "3.1.0", doc["openapi"])
	})

	t.Run("additional URIs map to the same locator", func(t *testing.T) {
		loc, err := urimap.NewPathLocation(specPath,
			urimap.WithURI("https://example.com/api/openapi"),
			urimap.WithAdditionalURIs("https://example.com/api/alias"))
		require.NoError(t, err)

		src := NewDirectMapSource(nil)
		src.AddLocation(loc)
		assert.Equal(t, 2, src.Len())

		parsed, err := src.Resolve("https://example.com/api/alias")
		require.NoError(t, err)
		assert.NotNil(t, parsed.Value)
	})

	t.Run("unmapped identifier fails with ErrUnknownResource", func(t *testing.T) {
		src := NewDirectMapSource(nil)
		_, err := src.Resolve("https://example.com/api/absent")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownResource))
	})
}

// TestMultiSuffixSource tests ordered suffix search
func TestMultiSuffixSource(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bar.yaml"),
		[]byte("type: object\n"), 0o644))

	newSource := func(t *testing.T, suffixes ...string) (*MultiSuffixSource, *recordingSink) {
		t.Helper()
		loc, err := urimap.NewPathLocation(tmpDir, urimap.AsPrefix())
		require.NoError(t, err)
		mapping, err := urimap.NewPrefixMapping(loc, suffixes)
		require.NoError(t, err)
		src, err := NewFileMultiSuffixSource(mapping, nil)
		require.NoError(t, err)
		sink := newRecordingSink()
		src.SetPrefix("https://example.com/")
		src.SetSink(sink)
		return src, sink
	}

	t.Run("first matching suffix wins and the locator is recorded", func(t *testing.T) {
		src, sink := newSource(t, ".json", ".yaml")

		parsed, err := src.Resolve("bar")
		require.NoError(t, err)
		doc := parsed.Value.(map[string]any)
		assert.Equal(t, "object", doc["type"])
		assert.True(t, strings.HasSuffix(parsed.URL, "bar.yaml"))
		assert.True(t, strings.HasSuffix(sink.urls["https://example.com/bar"], "bar.yaml"))
	})

	t.Run("failure enumerates every suffix attempted", func(t *testing.T) {
		src, _ := newSource(t, ".json", ".yaml")

		_, err := src.Resolve("missing")
		require.Error(t, err)
		var catErr *oaserrors.CatalogError
		require.True(t, errors.As(err, &catErr))
		assert.Equal(t, "https://example.com/missing", catErr.URI)
		require.Len(t, catErr.Attempts, 2)
		assert.True(t, strings.HasSuffix(catErr.Attempts[0].URL, "missing.json"))
		assert.True(t, strings.HasSuffix(catErr.Attempts[1].URL, "missing.yaml"))
		assert.Contains(t, err.Error(), "missing.json")
		assert.Contains(t, err.Error(), "missing.yaml")
	})

	t.Run("empty suffix tries the bare candidate", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bare"),
			[]byte("openapi: 3.1.0\n"), 0o644))
		src, _ := newSource(t, "", ".yaml")

		parsed, err := src.Resolve("bare")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(parsed.URL, "bare"))
	})

	t.Run("unparseable candidate counts as a failed attempt", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "broken.json"),
			[]byte("{not json"), 0o644))
		src, _ := newSource(t, ".json", ".yaml")

		// broken.json exists but fails to parse; broken.yaml does not exist
		_, err := src.Resolve("broken")
		require.Error(t, err)
		var catErr *oaserrors.CatalogError
		require.True(t, errors.As(err, &catErr))
		require.Len(t, catErr.Attempts, 2)
		assert.True(t, errors.Is(catErr.Attempts[0].Err, oaserrors.ErrParse))
	})

	t.Run("no declared suffixes means the bare candidate only", func(t *testing.T) {
		src, _ := newSource(t)
		assert.Equal(t, []string{""}, src.Suffixes())
	})
}
