package search

import (
	"github.com/gip-inclusion/directory-cli/internal/geo"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/predicate"
)

// filterEnv carries the store-resolved restrictions of one query. A nil set
// means the corresponding criterion was absent.
type filterEnv struct {
	zones []model.Zone

	// textAllow is the free-text/identifier candidate set; scored is true
	// when textScores holds similarity scores for it.
	textAllow  map[string]struct{}
	textScores map[string]float64
	scored     bool

	requestAllow map[string]struct{}
	savedAllow   map[string]struct{}
}

// distance returns the ranking distance to the single city zone of a
// distance-mode query.
func (env *filterEnv) distance(p model.Provider) (float64, bool) {
	return geo.DistanceKM(&p, &env.zones[0])
}

// filter applies every criterion conjunctively and deduplicates by id.
// Predicate order does not matter; all are independent.
func filter(snapshot []model.Provider, q *model.SearchQuery, env *filterEnv) []model.Provider {
	var out []model.Provider
	seen := make(map[string]struct{}, len(snapshot))

	for i := range snapshot {
		p := &snapshot[i]
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if !matches(p, q, env) {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, snapshot[i])
	}
	return out
}

func matches(p *model.Provider, q *model.SearchQuery, env *filterEnv) bool {
	if env.textAllow != nil {
		if _, ok := env.textAllow[p.ID]; !ok {
			return false
		}
	}
	if env.requestAllow != nil {
		if _, ok := env.requestAllow[p.ID]; !ok {
			return false
		}
	}
	if env.savedAllow != nil {
		if _, ok := env.savedAllow[p.ID]; !ok {
			return false
		}
	}

	if !predicate.Sectors(p, q.SectorIDs) ||
		!predicate.Kind(p, q.Kinds) ||
		!predicate.ServiceTypes(p, q.ServiceTypes) ||
		!predicate.Territories(p, q.Territories) ||
		!predicate.Networks(p, q.NetworkIDs) ||
		!predicate.LegalForms(p, q.LegalForms) ||
		!predicate.Presence(p.ClientReferenceCount, q.HasClientReferences) ||
		!predicate.Presence(p.GroupCount, q.HasGroups) ||
		!predicate.Revenue(p, q.Revenue) ||
		!predicate.ClientReferenceName(p, q.ClientReferenceName) {
		return false
	}

	return coversAnyZone(p, q, env)
}

// coversAnyZone applies the geography criterion: at least one queried zone
// must be covered. Point-radius mode (single city zone plus radius) uses
// the caller's radius; the radius is ignored for non-point zones.
func coversAnyZone(p *model.Provider, q *model.SearchQuery, env *filterEnv) bool {
	if len(env.zones) == 0 {
		return true
	}
	if q.RadiusKm > 0 && len(env.zones) == 1 && env.zones[0].Kind == model.ZoneKindCity {
		return geo.CoversRadius(p, &env.zones[0], q.RadiusKm)
	}
	for i := range env.zones {
		if geo.CoversZone(p, &env.zones[i]) {
			return true
		}
	}
	return false
}
