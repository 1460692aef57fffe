package derivative

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, testImage(w, h)))
	return p
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, testImage(w, h), nil))
	return p
}

func webpFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".webp") {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestGenerate_LadderRespectsOriginalWidth(t *testing.T) {
	dir := t.TempDir()
	original := writeJPEG(t, dir, "news-1-1.jpg", 500, 20)

	res := NewGenerator(2).Generate(context.Background(), original)

	assert.Equal(t, StatusComplete, res.Status, res.LogLine())
	assert.Equal(t, 500, res.Width)
	assert.ElementsMatch(t, []string{"news-1-1.webp", "news-1-1-320.webp"}, webpFiles(t, dir))
}

func TestGenerate_WideOriginalProducesFiveFiles(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, dir, "gallery-1-1.png", 1700, 10)

	res := NewGenerator(2).Generate(context.Background(), original)

	require.True(t, res.OK(), res.LogLine())
	assert.Len(t, res.Written, 5)
	assert.ElementsMatch(t, []string{
		"gallery-1-1.webp",
		"gallery-1-1-320.webp",
		"gallery-1-1-640.webp",
		"gallery-1-1-1024.webp",
		"gallery-1-1-1600.webp",
	}, webpFiles(t, dir))
}

func TestGenerate_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, dir, "event-1-1.png", 700, 10)
	g := NewGenerator(1)

	first := g.Generate(context.Background(), original)
	require.True(t, first.OK(), first.LogLine())
	filesAfterFirst := webpFiles(t, dir)

	second := g.Generate(context.Background(), original)
	assert.Equal(t, StatusComplete, second.Status)
	assert.Empty(t, second.Written)
	assert.Len(t, second.Existing, len(first.Written))
	assert.Equal(t, filesAfterFirst, webpFiles(t, dir))
}

func TestGenerate_ExistingBaseIsNotRewritten(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, dir, "banner-1-1.png", 400, 10)
	base := BasePath(original)
	require.NoError(t, os.WriteFile(base, []byte("stale base"), 0o644))

	res := NewGenerator(1).Generate(context.Background(), original)

	require.True(t, res.OK(), res.LogLine())
	assert.Equal(t, []string{base}, res.Existing)
	assert.Equal(t, []string{SizedPath(original, 320)}, res.Written)

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Equal(t, "stale base", string(data))
}

func TestGenerate_SkipsIneligibleFormats(t *testing.T) {
	dir := t.TempDir()

	gifPath := filepath.Join(dir, "news-1-1.gif")
	f, err := os.Create(gifPath)
	require.NoError(t, err)
	require.NoError(t, gif.Encode(f, testImage(800, 10), nil))
	require.NoError(t, f.Close())

	svgPath := filepath.Join(dir, "news-1-2.svg")
	require.NoError(t, os.WriteFile(svgPath, []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0o644))

	g := NewGenerator(1)
	assert.Equal(t, StatusSkipped, g.Generate(context.Background(), gifPath).Status)
	assert.Equal(t, StatusSkipped, g.Generate(context.Background(), svgPath).Status)
	assert.Empty(t, webpFiles(t, dir))
}

func TestGenerate_CorruptImageFailsQuietly(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "news-1-1.jpg")
	require.NoError(t, os.WriteFile(original, []byte("definitely not a jpeg"), 0o644))

	res := NewGenerator(1).Generate(context.Background(), original)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err())
	assert.Empty(t, webpFiles(t, dir))
}

func TestGenerate_OneFailingWidthDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, dir, "achievement-1-1.png", 1100, 10)

	g := NewGenerator(1)
	g.encode = func(w io.Writer, img image.Image) error {
		if img.Bounds().Dx() == 640 {
			return errors.New("encoder exploded")
		}
		return encodeWebP(w, img)
	}

	res := g.Generate(context.Background(), original)

	assert.Equal(t, StatusPartial, res.Status)
	assert.Len(t, res.Errors, 1)
	assert.ElementsMatch(t, []string{
		"achievement-1-1.webp",
		"achievement-1-1-320.webp",
		"achievement-1-1-1024.webp",
	}, webpFiles(t, dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}

	// a later run backfills only the missing width
	g.encode = encodeWebP
	again := g.Generate(context.Background(), original)
	assert.Equal(t, []string{SizedPath(original, 640)}, again.Written)
}

func TestGenerate_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, dir, "news-1-1.png", 400, 10)

	g := NewGenerator(1)
	require.NoError(t, g.sem.Acquire(context.Background(), 1))
	defer g.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := g.Generate(ctx, original)

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err(), context.Canceled)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, dir, "news-1-1.png", 700, 10)
	require.True(t, NewGenerator(1).Generate(context.Background(), original).OK())

	n, err := Remove(original)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, webpFiles(t, dir))

	_, err = os.Stat(original)
	assert.NoError(t, err, "original must survive derivative removal")
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/u/news/a.webp", BasePath("/u/news/a.JPG"))
	assert.Equal(t, "/u/news/a-640.webp", SizedPath("/u/news/a.png", 640))
	assert.Len(t, Paths("/u/news/a.png"), 5)
	assert.True(t, Eligible("x.JPEG"))
	assert.False(t, Eligible("x.webp"))
}
