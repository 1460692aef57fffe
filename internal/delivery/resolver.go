// Package delivery serves files under /assets/ and /uploads/, preferring
// WebP derivatives when the client accepts them and degrading to a
// smaller guarantee (base WebP, original, placeholder) instead of a 404
// where it can.
package delivery

import (
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"schoolsite/internal/media"
)

const newsPrefix = media.UploadsURLPrefix + "news/"

var sizedWebP = regexp.MustCompile(`^(.*)-(\d+)\.webp$`)

var webpSources = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Resolver decides which file answers an image or static request.
type Resolver struct {
	layout     *media.Layout
	production bool
}

func NewResolver(layout *media.Layout, production bool) *Resolver {
	return &Resolver{layout: layout, production: production}
}

// AcceptsWebP is a plain substring check on the Accept header.
func AcceptsWebP(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "image/webp")
}

// Serve resolves the request path, in order: news placeholder bypass,
// WebP substitution, sized variant fallback, plain static file.
func (r *Resolver) Serve(c *gin.Context) {
	urlPath := c.Request.URL.Path
	policy, ok := r.layout.PolicyForURL(urlPath)
	if !ok {
		notFound(c)
		return
	}

	if strings.HasPrefix(urlPath, newsPrefix) {
		r.serveNews(c, urlPath, policy)
		return
	}

	if r.substituteWebP(c, urlPath, policy) {
		return
	}

	if r.fallbackToBase(c, urlPath, policy) {
		return
	}

	r.serveStatic(c, urlPath, policy)
}

// serveNews never answers 404: a missing news image is replaced with the
// placeholder in the format the client prefers.
func (r *Resolver) serveNews(c *gin.Context, urlPath string, policy media.Policy) {
	if abs, ok := r.layout.ResolvePublicPath(urlPath); ok && isFile(abs) {
		r.sendFile(c, abs, "", policy)
		return
	}

	webp := AcceptsWebP(c.Request)
	placeholder, ok := r.layout.PlaceholderPath(policy, webp)
	if !ok || !isFile(placeholder) {
		notFound(c)
		return
	}
	contentType := "image/jpeg"
	if webp {
		contentType = "image/webp"
	}
	c.Header("Vary", "Accept")
	r.sendFile(c, placeholder, contentType, policy)
}

func (r *Resolver) substituteWebP(c *gin.Context, urlPath string, policy media.Policy) bool {
	if !AcceptsWebP(c.Request) {
		return false
	}
	ext := path.Ext(urlPath)
	if !webpSources[strings.ToLower(ext)] {
		return false
	}

	webpPath := strings.TrimSuffix(urlPath, ext) + ".webp"
	abs, ok := r.layout.ResolvePublicPath(webpPath)
	if !ok || !isFile(abs) {
		return false
	}
	c.Header("Vary", "Accept")
	r.sendFile(c, abs, "image/webp", policy)
	return true
}

// fallbackToBase answers a missing name-{width}.webp with name.webp so a
// srcset entry never breaks because one width was not generated.
func (r *Resolver) fallbackToBase(c *gin.Context, urlPath string, policy media.Policy) bool {
	m := sizedWebP.FindStringSubmatch(urlPath)
	if m == nil {
		return false
	}
	if abs, ok := r.layout.ResolvePublicPath(urlPath); ok && isFile(abs) {
		return false
	}

	abs, ok := r.layout.ResolvePublicPath(m[1] + ".webp")
	if !ok || !isFile(abs) {
		return false
	}
	r.sendFile(c, abs, "image/webp", policy)
	return true
}

func (r *Resolver) serveStatic(c *gin.Context, urlPath string, policy media.Policy) {
	abs, ok := r.layout.ResolvePublicPath(urlPath)
	if !ok || !isFile(abs) {
		notFound(c)
		return
	}
	r.sendFile(c, abs, "", policy)
}

func (r *Resolver) sendFile(c *gin.Context, abs, contentType string, policy media.Policy) {
	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Header("Cache-Control", policy.CacheControl(r.production))
	http.ServeFile(c.Writer, c.Request, abs)
}

func notFound(c *gin.Context) {
	c.AbortWithStatus(http.StatusNotFound)
}

// isFile treats every stat error as absence.
func isFile(abs string) bool {
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}
