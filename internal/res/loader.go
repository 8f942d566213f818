// Package res loads logos and stylesheets referenced by the export
// configuration.
package res

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
)

// ResourceType represents the type of resource
type ResourceType int

const (
	// ResourceTypeUnknown is an unknown resource type
	ResourceTypeUnknown ResourceType = iota
	// ResourceTypeImage is an image resource
	ResourceTypeImage
	// ResourceTypeCSS is a CSS resource
	ResourceTypeCSS
	// ResourceTypeOther is any other resource
	ResourceTypeOther
)

// MaxSize limits the size of a single resource.
const MaxSize = 16 << 20

// ErrNotFound is returned when a local resource cannot be found in any of the
// search paths.
var ErrNotFound = errors.New("resource not found")

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Loader handles loading resources
type Loader struct {
	// Base URL or file path for resolving relative URLs
	BaseURL string

	cache     map[string]*Resource
	cacheLock sync.RWMutex

	searchPaths []string
	client      *http.Client
	logger      *zap.Logger
}

// NewLoader creates a new resource loader
func NewLoader(baseURL string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		BaseURL: baseURL,
		cache:   make(map[string]*Resource),
		client:  &http.Client{},
		logger:  logger,
	}
}

// SetHTTPClient replaces the client used for remote resources.
func (l *Loader) SetHTTPClient(c *http.Client) {
	if c != nil {
		l.client = c
	}
}

// AddSearchPath adds a directory to search for local resources
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads a resource from a URL, a data URL or a file path.
func (l *Loader) Load(ctx context.Context, urlStr string) (*Resource, error) {
	l.cacheLock.RLock()
	if res, ok := l.cache[urlStr]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	var (
		res *Resource
		err error
	)
	if strings.HasPrefix(urlStr, "data:") {
		res, err = parseDataURL(urlStr)
	} else {
		var resolved string
		if resolved, err = l.resolveURL(urlStr); err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", urlStr, err)
		}
		if isRemote(resolved) {
			res, err = l.loadRemote(ctx, resolved)
		} else {
			res, err = l.loadLocal(resolved)
		}
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Loaded resource",
		zap.String("url", res.URL),
		zap.String("mime", res.MimeType),
		zap.Int("size", len(res.Data)))

	l.cacheLock.Lock()
	l.cache[urlStr] = res
	l.cacheLock.Unlock()
	return res, nil
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseDataURL parses a data URL (RFC 2397) and returns a Resource.
// Examples:
//
//	data:image/png;base64,<base64>
//	data:text/css,body%20%7B%7D
func parseDataURL(u string) (*Resource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}

	mimeType := "text/plain"
	isBase64 := false
	comps := strings.Split(meta, ";")
	if comps[0] != "" {
		mimeType = strings.ToLower(comps[0])
	}
	for _, c := range comps[1:] {
		if strings.EqualFold(strings.TrimSpace(c), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
		data = d
	} else if d, err := url.PathUnescape(payload); err == nil {
		data = []byte(d)
	} else {
		data = []byte(payload)
	}

	r := &Resource{URL: u, Data: data, MimeType: mimeType}
	r.Type = determineResourceType(mimeType, "")
	return r, nil
}

// resolveURL resolves a URL relative to the base URL
func (l *Loader) resolveURL(urlStr string) (string, error) {
	if isRemote(urlStr) || filepath.IsAbs(urlStr) {
		return urlStr, nil
	}

	if !isRemote(l.BaseURL) {
		base := l.BaseURL
		if base == "" {
			base = "."
		} else if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
			base = filepath.Dir(base)
		}
		return filepath.Join(base, urlStr), nil
	}

	baseURL, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", err
	}
	relURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(relURL).String(), nil
}

func (l *Loader) loadRemote(ctx context.Context, urlStr string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: HTTP error: %s", urlStr, resp.Status)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", urlStr, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	res := &Resource{URL: urlStr, Data: data}
	res.MimeType = determineMimeType(data, urlStr, mimeType)
	res.Type = determineResourceType(res.MimeType, urlStr)
	return res, nil
}

func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := readFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l.loadFromSearchPaths(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	res := &Resource{URL: path, Data: data}
	res.MimeType = determineMimeType(data, path, "")
	res.Type = determineResourceType(res.MimeType, path)
	return res, nil
}

func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	base := filepath.Base(filename)
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, base)
		data, err := readFile(path)
		if err != nil {
			continue
		}
		res := &Resource{URL: path, Data: data}
		res.MimeType = determineMimeType(data, path, "")
		res.Type = determineResourceType(res.MimeType, path)
		return res, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("resource exceeds %d bytes", MaxSize)
	}
	return data, nil
}

// determineMimeType sniffs the content first and falls back to the declared
// type and then to the file extension.
func determineMimeType(data []byte, path, declared string) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if bytes.Contains(bytes.ToLower(data[:min(len(data), 1024)]), []byte("<svg")) {
		return "image/svg+xml"
	}
	if declared != "" && declared != "application/octet-stream" && declared != "text/plain" {
		return declared
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return "image/svg+xml"
	case ".css":
		return "text/css"
	case ".html", ".htm":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

func determineResourceType(mimeType, path string) ResourceType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceTypeImage
	case mimeType == "text/css":
		return ResourceTypeCSS
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".tiff", ".tif", ".bmp":
		return ResourceTypeImage
	case ".css":
		return ResourceTypeCSS
	}
	return ResourceTypeOther
}

// LoadImage loads an image resource
func (l *Loader) LoadImage(ctx context.Context, urlStr string) (*Resource, error) {
	res, err := l.Load(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeImage {
		return nil, fmt.Errorf("resource is not an image: %s", urlStr)
	}
	return res, nil
}

// LoadCSS loads a CSS resource
func (l *Loader) LoadCSS(ctx context.Context, urlStr string) (*Resource, error) {
	res, err := l.Load(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeCSS {
		return nil, fmt.Errorf("resource is not CSS: %s", urlStr)
	}
	return res, nil
}

// GetString returns the resource data as a string
func (r *Resource) GetString() string {
	return string(r.Data)
}
