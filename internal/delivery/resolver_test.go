package delivery

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolsite/internal/media"
)

const (
	oneDay     = "public, max-age=86400"
	sevenDays  = "public, max-age=604800"
	thirtyDays = "public, max-age=2592000"
)

type fixture struct {
	layout *media.Layout
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	layout, err := media.NewLayout(filepath.Join(root, "uploads"), filepath.Join(root, "public", "assets"))
	require.NoError(t, err)
	require.NoError(t, layout.EnsureDirs())

	f := &fixture{layout: layout}
	f.asset(t, "img/blog/blog-31.jpg", "jpeg placeholder")
	f.asset(t, "img/blog/blog-31.webp", "webp placeholder")
	return f
}

func (f *fixture) write(t *testing.T, abs, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(body), 0o644))
}

func (f *fixture) asset(t *testing.T, rel, body string) {
	f.write(t, filepath.Join(f.layout.AssetsRoot(), filepath.FromSlash(rel)), body)
}

func (f *fixture) upload(t *testing.T, rel, body string) {
	f.write(t, filepath.Join(f.layout.UploadsRoot(), filepath.FromSlash(rel)), body)
}

func (f *fixture) router(production bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewResolver(f.layout, production))
	return r
}

func get(r http.Handler, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestNewsPlaceholder_NegotiatesFormat(t *testing.T) {
	f := newFixture(t)
	r := f.router(true)

	rr := get(r, "/uploads/news/ghost.jpg", "image/avif,image/webp,*/*")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "webp placeholder", rr.Body.String())
	assert.Equal(t, "image/webp", rr.Header().Get("Content-Type"))
	assert.Equal(t, sevenDays, rr.Header().Get("Cache-Control"))

	rr = get(r, "/uploads/news/ghost.jpg", "text/html")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "jpeg placeholder", rr.Body.String())
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
}

func TestNewsExistingFile_ServedAsIs(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "news/news-1-1.jpg", "real news jpeg")
	f.upload(t, "news/news-1-1.webp", "real news webp")
	r := f.router(false)

	rr := get(r, "/uploads/news/news-1-1.jpg", "image/webp")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "real news jpeg", rr.Body.String())
	assert.Equal(t, oneDay, rr.Header().Get("Cache-Control"))
}

func TestNewsMissingSizedVariant_GetsPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "news/news-1-1.webp", "real news webp")
	r := f.router(false)

	rr := get(r, "/uploads/news/news-1-1-640.webp", "text/html")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "jpeg placeholder", rr.Body.String())
}

func TestWebPSubstitution(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "gallery/gallery-1-1.jpg", "gallery jpeg")
	f.upload(t, "gallery/gallery-1-1.webp", "gallery webp")
	f.asset(t, "img/hero.PNG", "hero png")
	f.asset(t, "img/hero.webp", "hero webp")
	r := f.router(true)

	rr := get(r, "/uploads/gallery/gallery-1-1.jpg", "image/webp,*/*")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gallery webp", rr.Body.String())
	assert.Equal(t, "image/webp", rr.Header().Get("Content-Type"))
	assert.Equal(t, sevenDays, rr.Header().Get("Cache-Control"))
	assert.Equal(t, "Accept", rr.Header().Get("Vary"))

	rr = get(r, "/assets/img/hero.PNG", "image/webp")
	assert.Equal(t, "hero webp", rr.Body.String())
	assert.Equal(t, thirtyDays+", immutable", rr.Header().Get("Cache-Control"))

	rr = get(r, "/uploads/gallery/gallery-1-1.jpg", "text/html")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gallery jpeg", rr.Body.String())
}

func TestWebPSubstitution_FallsThroughWithoutDerivative(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "events/event-1-1.png", "event png")
	r := f.router(false)

	rr := get(r, "/uploads/events/event-1-1.png", "image/webp")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "event png", rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
}

func TestSizedVariantFallback(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "gallery/base.webp", "base webp")
	f.upload(t, "gallery/base-320.webp", "small webp")
	r := f.router(false)

	rr := get(r, "/uploads/gallery/base-640.webp", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "base webp", rr.Body.String())
	assert.Equal(t, "image/webp", rr.Header().Get("Content-Type"))

	rr = get(r, "/uploads/gallery/base-320.webp", "")
	assert.Equal(t, "small webp", rr.Body.String())

	rr = get(r, "/uploads/gallery/other-640.webp", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatic_CacheHeadersByEnvironment(t *testing.T) {
	f := newFixture(t)
	f.asset(t, "css/site.css", "body{}")

	rr := get(f.router(true), "/assets/css/site.css", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=2592000")

	rr = get(f.router(false), "/assets/css/site.css", "")
	assert.Equal(t, oneDay, rr.Header().Get("Cache-Control"))
}

func TestStatic_MissingIsNotFound(t *testing.T) {
	f := newFixture(t)
	r := f.router(false)

	assert.Equal(t, http.StatusNotFound, get(r, "/uploads/gallery/ghost.jpg", "image/webp").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/uploads/gallery/", "").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/assets/nope.js", "").Code)
}

func TestHeadRequest(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "banners/banner-1-1.jpg", "banner")
	r := f.router(false)

	req := httptest.NewRequest(http.MethodHead, "/uploads/banners/banner-1-1.jpg", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, oneDay, rr.Header().Get("Cache-Control"))
}

func TestAcceptsWebP_IsSubstringMatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "image/webpx")
	assert.True(t, AcceptsWebP(req))

	req.Header.Set("Accept", "image/*")
	assert.False(t, AcceptsWebP(req))
}
