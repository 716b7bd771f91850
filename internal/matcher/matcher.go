// Package matcher implements the inverse of the search flow: given one
// published request, find every provider compatible with it. It reuses the
// coverage resolver and the sector/kind/service-type predicates, applies no
// ranking, and returns ids in stable ascending order for the notification
// dispatcher.
package matcher

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gip-inclusion/directory-cli/internal/geo"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/predicate"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// shardSize bounds the per-goroutine slice of the corpus scan. Predicate
// evaluation is pure, so shards share nothing but the read-only snapshot.
const shardSize = 2048

// Matcher resolves request-to-provider compatibility over a store snapshot.
type Matcher struct {
	store store.Store
}

func New(st store.Store) *Matcher {
	return &Matcher{store: st}
}

// MatchingProviders returns the ids of all providers compatible with the
// request: required sectors intersect, kind and service type are allowed
// (empty allowance means no restriction), and the provider's coverage policy
// reaches the request's geographic target.
func (m *Matcher) MatchingProviders(ctx context.Context, r *model.Request) ([]string, error) {
	mode, err := r.TargetMode()
	if err != nil {
		// Requests are validated at creation time; an ambiguous target
		// here is a logic error and fails fast.
		return nil, eris.Wrap(err, "matcher: resolve target")
	}

	var zones []model.Zone
	if mode != model.TargetCountry {
		byID, err := m.store.ZonesByID(ctx, r.ZoneIDs)
		if err != nil {
			return nil, eris.Wrap(err, "matcher: resolve zones")
		}
		zones = make([]model.Zone, 0, len(r.ZoneIDs))
		for _, id := range r.ZoneIDs {
			zones = append(zones, byID[id])
		}
	}

	snapshot, err := m.store.Snapshot(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: snapshot")
	}

	compatible := func(p *model.Provider) bool {
		if !predicate.Sectors(p, r.RequiredSectors) {
			return false
		}
		if !predicate.Kind(p, r.AllowedProviderKinds) {
			return false
		}
		if !predicate.ServiceTypes(p, r.AllowedServiceTypes) {
			return false
		}
		return coversTarget(p, mode, zones, r.DistanceKm)
	}

	shards := make([][]string, (len(snapshot)+shardSize-1)/shardSize)
	g, _ := errgroup.WithContext(ctx)
	for i := range shards {
		i := i
		lo, hi := i*shardSize, min((i+1)*shardSize, len(snapshot))
		g.Go(func() error {
			var ids []string
			for j := lo; j < hi; j++ {
				if compatible(&snapshot[j]) {
					ids = append(ids, snapshot[j].ID)
				}
			}
			shards[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "matcher: scan")
	}

	var ids []string
	for _, shard := range shards {
		ids = append(ids, shard...)
	}
	sort.Strings(ids)

	zap.L().Debug("matcher: request matched",
		zap.String("request", r.ID),
		zap.Int("corpus", len(snapshot)),
		zap.Int("matched", len(ids)),
	)
	return ids, nil
}

// coversTarget evaluates the request's geographic target against one
// provider.
func coversTarget(p *model.Provider, mode model.TargetMode, zones []model.Zone, distanceKm *float64) bool {
	switch mode {
	case model.TargetCountry:
		// Nationwide requests only reach providers that declared
		// country-wide coverage.
		return p.CoveragePolicy == model.CoverageCountry
	case model.TargetRadius:
		z := &zones[0]
		// Point-radius needs a point-like anchor; department and region
		// zones degrade to plain zone coverage.
		if z.Kind != model.ZoneKindCity {
			return geo.CoversZone(p, z)
		}
		return geo.CoversRadius(p, z, *distanceKm)
	default:
		for i := range zones {
			if geo.CoversZone(p, &zones[i]) {
				return true
			}
		}
		return false
	}
}
