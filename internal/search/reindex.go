package search

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/similarity"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// Reindex rebuilds the search document of every provider in the corpus.
// Recomputation is idempotent per provider and writes row by row, so it
// runs safely next to concurrent queries; unchanged documents are skipped.
// Returns the number of providers whose document was rewritten.
func Reindex(ctx context.Context, st store.Store, workers int) (int, error) {
	if workers <= 0 {
		workers = 4
	}

	snapshot, err := st.Snapshot(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "search: reindex snapshot")
	}

	jobs := make(chan *model.Provider)
	var updated atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for p := range jobs {
				doc := similarity.BuildDocument(p)
				if doc == p.SearchVector {
					continue
				}
				if err := st.SaveSearchVector(ctx, p.ID, doc); err != nil {
					return err
				}
				updated.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range snapshot {
			select {
			case jobs <- &snapshot[i]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, eris.Wrap(err, "search: reindex")
	}

	n := int(updated.Load())
	zap.L().Info("search: reindex complete",
		zap.Int("providers", len(snapshot)),
		zap.Int("updated", n),
	)
	return n, nil
}
