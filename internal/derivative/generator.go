// Package derivative produces the WebP companions of an uploaded image: a
// full size base (name.webp) and a fixed ladder of down-scaled variants
// (name-{width}.webp) written next to the original.
//
// Generation is best effort. Nothing here returns an error to the caller;
// failures are collected in a Result that the caller logs.
package derivative

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Quality is the lossy WebP quality used for every derivative.
const Quality = 82

var ladder = []int{320, 640, 1024, 1600}

var eligible = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Widths returns the fixed width ladder, ascending.
func Widths() []int {
	out := make([]int, len(ladder))
	copy(out, ladder)
	return out
}

// Eligible reports whether derivatives are generated for the file.
func Eligible(original string) bool {
	return eligible[strings.ToLower(filepath.Ext(original))]
}

func stem(original string) string {
	return strings.TrimSuffix(original, filepath.Ext(original))
}

// BasePath returns the path of the full size WebP derivative.
func BasePath(original string) string {
	return stem(original) + ".webp"
}

// SizedPath returns the path of the WebP derivative scaled to width.
func SizedPath(original string, width int) string {
	return stem(original) + "-" + strconv.Itoa(width) + ".webp"
}

// Paths lists every derivative path an original can have, base first.
func Paths(original string) []string {
	out := []string{BasePath(original)}
	for _, w := range ladder {
		out = append(out, SizedPath(original, w))
	}
	return out
}

type encodeFunc func(w io.Writer, img image.Image) error

func encodeWebP(w io.Writer, img image.Image) error {
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, Quality)
	if err != nil {
		return fmt.Errorf("webp encoder options: %w", err)
	}
	return webp.Encode(w, img, opts)
}

// Generator runs derivative generation with a process wide bound on the
// number of originals being transcoded at once.
type Generator struct {
	sem    *semaphore.Weighted
	encode encodeFunc
}

// NewGenerator returns a Generator allowing workers concurrent originals.
func NewGenerator(workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{
		sem:    semaphore.NewWeighted(int64(workers)),
		encode: encodeWebP,
	}
}

type target struct {
	path  string
	width int // 0 for the base derivative
}

// Generate creates the missing derivatives of original. Existing files are
// never rewritten, so running it twice performs no writes the second time.
func (g *Generator) Generate(ctx context.Context, original string) Result {
	res := Result{Original: original}
	if !Eligible(original) {
		res.Status = StatusSkipped
		return res
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		res.fail(err)
		return res
	}
	defer g.sem.Release(1)

	cfg, err := readConfig(original)
	if err != nil {
		res.fail(fmt.Errorf("read image metadata: %w", err))
		return res
	}
	res.Width = cfg.Width

	targets := []target{{path: BasePath(original)}}
	for _, w := range ladder {
		if w <= cfg.Width {
			targets = append(targets, target{path: SizedPath(original, w), width: w})
		}
	}

	var missing []target
	for _, t := range targets {
		if fileExists(t.path) {
			res.Existing = append(res.Existing, t.path)
			continue
		}
		missing = append(missing, t)
	}
	if len(missing) == 0 {
		res.Status = StatusComplete
		return res
	}

	src, err := imaging.Open(original)
	if err != nil {
		res.fail(fmt.Errorf("decode image: %w", err))
		return res
	}

	errs := make([]error, len(missing))
	var eg errgroup.Group
	for i, t := range missing {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			img := src
			if t.width > 0 {
				img = imaging.Resize(src, t.width, 0, imaging.Lanczos)
			}
			if err := g.write(img, t.path); err != nil {
				errs[i] = fmt.Errorf("%s: %w", filepath.Base(t.path), err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	for i, t := range missing {
		if errs[i] != nil {
			res.Errors = append(res.Errors, errs[i])
			continue
		}
		res.Written = append(res.Written, t.path)
	}
	res.settle()
	return res
}

// write encodes img into a temp file beside dst and renames it into place,
// so a reader never observes a half written derivative.
func (g *Generator) write(img image.Image, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".derivative-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := g.encode(tmp, img); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Remove deletes every derivative of original and returns how many files
// were removed. Missing files are ignored.
func Remove(original string) (int, error) {
	var removed int
	var errs []error
	for _, p := range Paths(original) {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, os.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

func readConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
