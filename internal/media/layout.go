package media

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	AssetsURLPrefix  = "/assets/"
	UploadsURLPrefix = "/uploads/"
)

// Layout maps categories to directories and public URLs to files on disk.
type Layout struct {
	uploadsRoot string
	assetsRoot  string
}

// NewLayout resolves both roots to absolute paths.
func NewLayout(uploadsRoot, assetsRoot string) (*Layout, error) {
	if strings.TrimSpace(uploadsRoot) == "" {
		return nil, fmt.Errorf("uploads root is required")
	}
	if strings.TrimSpace(assetsRoot) == "" {
		return nil, fmt.Errorf("assets root is required")
	}
	up, err := filepath.Abs(uploadsRoot)
	if err != nil {
		return nil, err
	}
	as, err := filepath.Abs(assetsRoot)
	if err != nil {
		return nil, err
	}
	return &Layout{uploadsRoot: up, assetsRoot: as}, nil
}

func (l *Layout) UploadsRoot() string { return l.uploadsRoot }
func (l *Layout) AssetsRoot() string  { return l.assetsRoot }

// EnsureDirs creates every upload category directory.
func (l *Layout) EnsureDirs() error {
	for _, c := range uploadOrder {
		dir, err := l.StoragePath(c)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", c, err)
		}
	}
	return nil
}

// StoragePath returns the directory originals of category c are written to.
func (l *Layout) StoragePath(c Category) (string, error) {
	p, ok := policies[c]
	if !ok || !p.Uploadable() {
		return "", fmt.Errorf("category %q does not accept uploads", c)
	}
	return filepath.Join(l.uploadsRoot, p.Dir), nil
}

// PublicURL returns the URL path under which a stored original is served.
func (l *Layout) PublicURL(c Category, filename string) string {
	return UploadsURLPrefix + MustLookup(c).Dir + "/" + filename
}

// ResolvePublicPath maps a request path under /assets/ or /uploads/ to a
// file path inside the matching root. Any other path, or one that would
// escape its root, is not resolvable.
func (l *Layout) ResolvePublicPath(urlPath string) (string, bool) {
	var root, rest string
	switch {
	case strings.HasPrefix(urlPath, AssetsURLPrefix):
		root, rest = l.assetsRoot, strings.TrimPrefix(urlPath, AssetsURLPrefix)
	case strings.HasPrefix(urlPath, UploadsURLPrefix):
		root, rest = l.uploadsRoot, strings.TrimPrefix(urlPath, UploadsURLPrefix)
	default:
		return "", false
	}
	clean := path.Clean("/" + rest)
	if clean == "/" {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(clean)), true
}

// PolicyForURL returns the cache policy that applies to a request path.
// It reports false for paths outside both prefixes.
func (l *Layout) PolicyForURL(urlPath string) (Policy, bool) {
	if strings.HasPrefix(urlPath, AssetsURLPrefix) {
		return policies[CategoryAssets], true
	}
	if !strings.HasPrefix(urlPath, UploadsURLPrefix) {
		return Policy{}, false
	}
	dir, _, _ := strings.Cut(strings.TrimPrefix(urlPath, UploadsURLPrefix), "/")
	for _, c := range uploadOrder {
		if p := policies[c]; p.Dir == dir {
			return p, true
		}
	}
	return uploadsDefault, true
}

// PlaceholderPath returns the file that stands in for a missing file of
// the given policy, in WebP or JPEG form.
func (l *Layout) PlaceholderPath(p Policy, webp bool) (string, bool) {
	if p.Placeholder == "" {
		return "", false
	}
	ext := ".jpg"
	if webp {
		ext = ".webp"
	}
	return filepath.Join(l.assetsRoot, filepath.FromSlash(p.Placeholder)+ext), true
}
