// Package search composes the predicate, geography and text criteria of a
// SearchQuery into a filtered, ranked provider list. Filtering is
// conjunctive over independent predicates; ordering is one of three
// mutually exclusive modes resolved once per query (see order.go).
package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// ErrInvalidQuery is returned for incoherent criteria (revenue bracket with
// lower > upper, unknown zone id, interest status without a request, ...).
// Rejected before any corpus scan, never partially applied.
var ErrInvalidQuery = eris.New("search: invalid query")

// Match is one ranked search result.
type Match struct {
	ProviderID string `json:"provider_id"`
	// Score is the text-similarity score in relevance mode, zero otherwise.
	Score float64 `json:"score,omitempty"`
	// DistanceKm is set in distance mode when measurable.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Result is a page of ranked matches plus the total before pagination.
type Result struct {
	Matches []Match `json:"matches"`
	Total   int     `json:"total"`
}

// Options tunes pagination bounds.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// Engine runs searches over snapshots of the provider corpus. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	store store.Store
	opts  Options
}

// New creates an Engine over the given store.
func New(st store.Store, opts Options) *Engine {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 1000
	}
	return &Engine{store: st, opts: opts}
}

// Search validates the query, filters the corpus and returns one ranked
// page.
func (e *Engine) Search(ctx context.Context, q *model.SearchQuery) (*Result, error) {
	if err := validate(q); err != nil {
		return nil, err
	}

	env, err := e.buildEnv(ctx, q)
	if err != nil {
		return nil, err
	}

	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "search: load snapshot")
	}

	candidates := filter(snapshot, q, env)
	ord := resolveOrdering(q, env)
	ranked := ord.sort(candidates, env)

	total := len(ranked)
	page := paginate(ranked, q.Offset, e.limit(q.Limit))

	matches := make([]Match, 0, len(page))
	for _, p := range page {
		m := Match{ProviderID: p.ID}
		if ord.mode == byRelevance {
			m.Score = env.textScores[p.ID]
		}
		if ord.mode == byDistance {
			if d, ok := env.distance(p); ok {
				m.DistanceKm = &d
			}
		}
		matches = append(matches, m)
	}

	zap.L().Debug("search: query complete",
		zap.Int("corpus", len(snapshot)),
		zap.Int("matched", total),
		zap.Int("returned", len(matches)),
	)

	return &Result{Matches: matches, Total: total}, nil
}

func (e *Engine) limit(requested int) int {
	switch {
	case requested <= 0:
		return e.opts.DefaultLimit
	case requested > e.opts.MaxLimit:
		return e.opts.MaxLimit
	default:
		return requested
	}
}

// validate rejects incoherent queries before touching the corpus.
func validate(q *model.SearchQuery) error {
	if q.Revenue != nil && !q.Revenue.Valid() {
		return eris.Wrapf(ErrInvalidQuery, "revenue bracket lower %d > upper %d", *q.Revenue.Lower, *q.Revenue.Upper)
	}
	if q.RadiusKm < 0 {
		return eris.Wrapf(ErrInvalidQuery, "negative radius %f", q.RadiusKm)
	}
	if q.RadiusKm > 0 && len(q.ZoneIDs) != 1 {
		return eris.Wrapf(ErrInvalidQuery, "radius requires exactly one zone, got %d", len(q.ZoneIDs))
	}
	if q.InterestStatus != "" && q.RequestID == "" {
		return eris.Wrap(ErrInvalidQuery, "interest status without a request id")
	}
	if q.Offset < 0 {
		return eris.Wrapf(ErrInvalidQuery, "negative offset %d", q.Offset)
	}
	return nil
}

// buildEnv resolves the store-backed restrictions of a query: zones, text
// scores or identifier matches, request links and saved-list membership.
func (e *Engine) buildEnv(ctx context.Context, q *model.SearchQuery) (*filterEnv, error) {
	env := &filterEnv{}

	if len(q.ZoneIDs) > 0 {
		zones, err := e.store.ZonesByID(ctx, q.ZoneIDs)
		if err != nil {
			if eris.Is(err, store.ErrZoneNotFound) {
				return nil, eris.Wrapf(ErrInvalidQuery, "%s", err.Error())
			}
			return nil, eris.Wrap(err, "search: resolve zones")
		}
		env.zones = make([]model.Zone, 0, len(q.ZoneIDs))
		for _, id := range q.ZoneIDs {
			env.zones = append(env.zones, zones[id])
		}
	}

	if q.HasText() {
		if digits, ok := q.IdentifierQuery(); ok {
			ids, err := e.store.IdentifierPrefix(ctx, digits)
			if err != nil {
				return nil, eris.Wrap(err, "search: identifier match")
			}
			env.textAllow = idSet(ids)
		} else {
			scores, err := e.store.TextScores(ctx, q.Text)
			if err != nil {
				return nil, eris.Wrap(err, "search: text scores")
			}
			env.textScores = scores
			allow := make(map[string]struct{}, len(scores))
			for id := range scores {
				allow[id] = struct{}{}
			}
			env.textAllow = allow
			env.scored = true
		}
	}

	if q.RequestID != "" {
		links, err := e.store.RequestLinks(ctx, q.RequestID)
		if err != nil {
			return nil, eris.Wrap(err, "search: request links")
		}
		allow := make(map[string]struct{}, len(links))
		for i := range links {
			l := &links[i]
			if !l.Notified() {
				continue
			}
			if q.InterestStatus == model.InterestInterested && !l.Interested() {
				continue
			}
			allow[l.ProviderID] = struct{}{}
		}
		env.requestAllow = allow
	}

	if q.SavedListID != "" {
		ids, err := e.store.SavedListMembers(ctx, q.SavedListID)
		if err != nil {
			return nil, eris.Wrap(err, "search: saved list members")
		}
		env.savedAllow = idSet(ids)
	}

	return env, nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func paginate(providers []model.Provider, offset, limit int) []model.Provider {
	if offset >= len(providers) {
		return nil
	}
	end := offset + limit
	if end > len(providers) {
		end = len(providers)
	}
	return providers[offset:end]
}
