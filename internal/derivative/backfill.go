package derivative

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Report counts the outcome of a Backfill run. An original is "created"
// when at least one derivative was written, "skipped" when every
// derivative already existed.
type Report struct {
	Scanned int
	Created int
	Skipped int
	Failed  int
}

// Backfill walks every root and generates the missing derivatives of each
// eligible original. Missing roots are ignored. Per-file failures are
// counted and logged; only walk errors and cancellation are returned.
func (g *Generator) Backfill(ctx context.Context, roots []string, workers int) (Report, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		rep Report
	)
	var eg errgroup.Group
	eg.SetLimit(workers)

	for _, root := range roots {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			log.Printf("backfill root missing, skipping root=%s", root)
			continue
		}

		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !d.Type().IsRegular() || !Eligible(p) {
				return nil
			}

			eg.Go(func() error {
				res := g.Generate(ctx, p)

				mu.Lock()
				defer mu.Unlock()
				rep.Scanned++
				switch {
				case res.Status == StatusFailed, res.Status == StatusPartial && len(res.Written) == 0:
					rep.Failed++
					log.Print(res.LogLine())
				case len(res.Written) > 0:
					rep.Created++
					if res.Status == StatusPartial {
						log.Print(res.LogLine())
					}
				default:
					rep.Skipped++
				}
				return nil
			})
			return nil
		})
		if err != nil {
			_ = eg.Wait()
			return rep, err
		}
	}

	_ = eg.Wait()
	return rep, ctx.Err()
}
