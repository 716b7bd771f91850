package search

import (
	"sort"

	"github.com/gip-inclusion/directory-cli/internal/model"
)

// orderMode selects the ordering key of a query. The three modes are
// mutually exclusive and resolved once per query from its populated
// fields, not chained as nullable sort columns.
type orderMode int

const (
	// byRelevance orders by text-similarity score, descending. Relevance is
	// authoritative when a free-text query is present: no boost or recency
	// key applies after it.
	byRelevance orderMode = iota
	// byDistance orders by distance from a single city zone's reference
	// point, ascending, then boosts, then recency.
	byDistance
	// byBoost orders by profile completeness, then recency. The default.
	// Completeness first rewards providers who maintain their listing;
	// updated_at descending keeps freshly edited profiles visible. Random
	// ordering was rejected: it breaks pagination.
	byBoost
)

type ordering struct {
	mode orderMode
}

// resolveOrdering picks the ordering key, highest priority first: scored
// free-text, then single-city-zone distance, then boosts. An identifier
// (all-digit) query carries no similarity score and falls through to
// boosts.
func resolveOrdering(q *model.SearchQuery, env *filterEnv) ordering {
	if env.scored {
		return ordering{mode: byRelevance}
	}
	if len(env.zones) == 1 && env.zones[0].Kind == model.ZoneKindCity {
		return ordering{mode: byDistance}
	}
	return ordering{mode: byBoost}
}

// sort orders candidates with the mode's comparator. Every mode ends with
// provider id ascending so repeated calls on the same snapshot return the
// same order.
func (o ordering) sort(candidates []model.Provider, env *filterEnv) []model.Provider {
	less := o.less(env)
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(&candidates[i], &candidates[j])
	})
	return candidates
}

func (o ordering) less(env *filterEnv) func(a, b *model.Provider) bool {
	switch o.mode {
	case byRelevance:
		return func(a, b *model.Provider) bool {
			sa, sb := env.textScores[a.ID], env.textScores[b.ID]
			if sa != sb {
				return sa > sb
			}
			return a.ID < b.ID
		}
	case byDistance:
		return func(a, b *model.Provider) bool {
			da, okA := env.distance(*a)
			db, okB := env.distance(*b)
			switch {
			case okA && !okB:
				return true
			case !okA && okB:
				return false
			case okA && okB && da != db:
				return da < db
			}
			return boostLess(a, b)
		}
	default:
		return boostLess
	}
}

// boostLess compares by profile completeness: has an offer, has a
// description, has a linked user, then updated_at descending, then id.
func boostLess(a, b *model.Provider) bool {
	if a.HasOffer() != b.HasOffer() {
		return a.HasOffer()
	}
	if a.HasDescription() != b.HasDescription() {
		return a.HasDescription()
	}
	if a.HasUser() != b.HasUser() {
		return a.HasUser()
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}
