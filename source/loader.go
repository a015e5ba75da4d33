package source

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oasgraph/oasgraph"
	"github.com/oasgraph/oasgraph/oaserrors"
)

// ParseType identifies the deserialization strategy for loaded content.
type ParseType int

const (
	// ParseTypeUnknown means the format could not be determined;
	// parsing tries JSON first, then YAML.
	ParseTypeUnknown ParseType = iota
	// ParseTypeJSON selects strict JSON parsing.
	ParseTypeJSON
	// ParseTypeYAML selects safe YAML parsing.
	ParseTypeYAML
)

// String returns the lowercase name of the parse type.
func (pt ParseType) String() string {
	switch pt {
	case ParseTypeJSON:
		return "json"
	case ParseTypeYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// LoadedContent is raw retrieved content plus the locator it actually
// came from and a best-guess parse type.
type LoadedContent struct {
	Content   []byte
	URL       string
	ParseType ParseType
}

// ParsedContent is a deserialized generic tree plus its locator and
// an optional sourcemap.
type ParsedContent struct {
	Value     any
	URL       string
	SourceMap *SourceMap
}

// Loader retrieves raw content from a concrete locator.
type Loader interface {
	Load(location string) (LoadedContent, error)
}

// FileLoader reads content from the local filesystem. Locations may be
// plain paths or file: URLs.
type FileLoader struct {
	Logger oasgraph.Logger
}

// NewFileLoader creates a FileLoader. A nil logger defaults to NopLogger.
func NewFileLoader(logger oasgraph.Logger) *FileLoader {
	if logger == nil {
		logger = oasgraph.NopLogger{}
	}
	return &FileLoader{Logger: logger}
}

// Load reads the file at location in full.
func (l *FileLoader) Load(location string) (LoadedContent, error) {
	path, fileURL, err := splitFileLocation(location)
	if err != nil {
		return LoadedContent{}, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is user-declared input
	if err != nil {
		return LoadedContent{}, &oaserrors.IOError{
			URL:   fileURL,
			Cause: err,
		}
	}
	l.Logger.Debug("loaded file", "url", fileURL, "bytes", len(data))
	return LoadedContent{
		Content:   data,
		URL:       fileURL,
		ParseType: parseTypeFromPath(path),
	}, nil
}

// splitFileLocation normalizes a path or file: URL into both forms.
func splitFileLocation(location string) (path, fileURL string, err error) {
	if strings.HasPrefix(location, "file:") {
		u, parseErr := url.Parse(location)
		if parseErr != nil {
			return "", "", &oaserrors.IOError{
				URL:     location,
				Message: "invalid file URL",
				Cause:   parseErr,
			}
		}
		return filepath.FromSlash(u.Path), location, nil
	}
	abs, absErr := filepath.Abs(location)
	if absErr != nil {
		return "", "", &oaserrors.IOError{
			URL:     location,
			Message: "cannot resolve to an absolute path",
			Cause:   absErr,
		}
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return abs, u.String(), nil
}

// Fetcher performs a single synchronous GET, returning the body and
// the Content-Type header. Injecting a Fetcher lets tests and callers
// control transport without this package owning an HTTP client policy.
type Fetcher func(url string) ([]byte, string, error)

// DefaultFetcher fetches over HTTP with a 30 second timeout.
// Non-2xx responses are errors; there are no retries.
func DefaultFetcher(rawURL string) ([]byte, string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", oasgraph.UserAgent())
	resp, err := client.Do(req) //nolint:gosec // URL is user-declared input
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// HTTPLoader retrieves content over HTTP through an injected Fetcher.
type HTTPLoader struct {
	Fetch  Fetcher
	Logger oasgraph.Logger
}

// NewHTTPLoader creates an HTTPLoader. A nil fetch defaults to
// DefaultFetcher, a nil logger to NopLogger.
func NewHTTPLoader(fetch Fetcher, logger oasgraph.Logger) *HTTPLoader {
	if fetch == nil {
		fetch = DefaultFetcher
	}
	if logger == nil {
		logger = oasgraph.NopLogger{}
	}
	return &HTTPLoader{Fetch: fetch, Logger: logger}
}

// Load fetches the URL once. The Content-Type header selects the parse
// type when present; otherwise the URL path suffix is used.
func (l *HTTPLoader) Load(location string) (LoadedContent, error) {
	data, contentType, err := l.Fetch(location)
	if err != nil {
		return LoadedContent{}, &oaserrors.IOError{
			URL:   location,
			Cause: err,
		}
	}
	pt := parseTypeFromContentType(contentType)
	if pt == ParseTypeUnknown {
		if u, parseErr := url.Parse(location); parseErr == nil {
			pt = parseTypeFromPath(u.Path)
		}
	}
	l.Logger.Debug("fetched URL", "url", location, "bytes", len(data), "parseType", pt.String())
	return LoadedContent{
		Content:   data,
		URL:       location,
		ParseType: pt,
	}, nil
}

// parseTypeFromPath detects the parse type from a path extension.
func parseTypeFromPath(path string) ParseType {
	switch filepath.Ext(path) {
	case ".json":
		return ParseTypeJSON
	case ".yaml", ".yml":
		return ParseTypeYAML
	default:
		return ParseTypeUnknown
	}
}

// parseTypeFromContentType detects the parse type from a Content-Type
// header value, ignoring parameters such as charset.
func parseTypeFromContentType(contentType string) ParseType {
	if contentType == "" {
		return ParseTypeUnknown
	}
	contentType = strings.ToLower(contentType)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(contentType)
	switch contentType {
	case "application/json", "application/openapi+json", "application/schema+json":
		return ParseTypeJSON
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml",
		"application/openapi+yaml":
		return ParseTypeYAML
	}
	return ParseTypeUnknown
}
