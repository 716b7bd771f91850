// Package storetest provides an in-memory Store for tests of packages
// that compose store operations.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/similarity"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// Fake is a memory-backed store.Store. Zero value is usable; populate the
// exported fields directly.
type Fake struct {
	mu sync.Mutex

	Providers []model.Provider
	Zones     map[string]model.Zone
	Links     map[string][]model.RequestLink
	Lists     map[string][]string
	Requests  map[string]*model.Request

	// TakenSlugs simulates slug collisions on SaveRequest.
	TakenSlugs map[string]bool
}

var _ store.Store = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Zones:      map[string]model.Zone{},
		Links:      map[string][]model.RequestLink{},
		Lists:      map[string][]string{},
		Requests:   map[string]*model.Request{},
		TakenSlugs: map[string]bool{},
	}
}

func (f *Fake) Snapshot(context.Context) ([]model.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Provider, len(f.Providers))
	copy(out, f.Providers)
	return out, nil
}

func (f *Fake) ZonesByID(_ context.Context, ids []string) (map[string]model.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]model.Zone, len(ids))
	for _, id := range ids {
		z, ok := f.Zones[id]
		if !ok {
			return nil, store.ErrZoneNotFound
		}
		out[id] = z
	}
	return out, nil
}

func (f *Fake) TextScores(_ context.Context, query string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scores := make(map[string]float64)
	for i := range f.Providers {
		if s := similarity.Score(&f.Providers[i], query); s >= similarity.MatchThreshold {
			scores[f.Providers[i].ID] = s
		}
	}
	return scores, nil
}

func (f *Fake) IdentifierPrefix(_ context.Context, digits string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for i := range f.Providers {
		if strings.HasPrefix(f.Providers[i].SIRET, digits) {
			ids = append(ids, f.Providers[i].ID)
		}
	}
	return ids, nil
}

func (f *Fake) RequestLinks(_ context.Context, requestID string) ([]model.RequestLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RequestLink(nil), f.Links[requestID]...), nil
}

func (f *Fake) SavedListMembers(_ context.Context, listID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Lists[listID], nil
}

func (f *Fake) GetRequest(_ context.Context, id string) (*model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Requests[id]
	if !ok {
		return nil, store.ErrRequestNotFound
	}
	return r, nil
}

func (f *Fake) SaveRequest(_ context.Context, r *model.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TakenSlugs[r.Slug] {
		return store.ErrDuplicateSlug
	}
	for _, other := range f.Requests {
		if other.ID != r.ID && other.Slug == r.Slug {
			return store.ErrDuplicateSlug
		}
	}
	if r.ID == "" {
		r.ID = "req-" + r.Slug
	}
	saved := *r
	f.Requests[r.ID] = &saved
	return nil
}

func (f *Fake) UpsertProviders(_ context.Context, providers []model.Provider) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range providers {
		replaced := false
		for i := range f.Providers {
			if f.Providers[i].ID == p.ID {
				f.Providers[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			f.Providers = append(f.Providers, p)
		}
	}
	return int64(len(providers)), nil
}

func (f *Fake) UpsertZones(_ context.Context, zones []model.Zone) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, z := range zones {
		f.Zones[z.ID] = z
	}
	return int64(len(zones)), nil
}

func (f *Fake) SaveSearchVector(_ context.Context, providerID, document string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Providers {
		if f.Providers[i].ID == providerID {
			f.Providers[i].SearchVector = document
		}
	}
	return nil
}

func (f *Fake) MarkNotified(_ context.Context, requestID string, providerIDs []string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range providerIDs {
		found := false
		links := f.Links[requestID]
		for i := range links {
			if links[i].ProviderID == id {
				found = true
				if links[i].NotifiedAt == nil {
					links[i].NotifiedAt = &at
					n++
				}
			}
		}
		if !found {
			f.Links[requestID] = append(f.Links[requestID], model.RequestLink{
				RequestID: requestID, ProviderID: id, NotifiedAt: &at, CreatedAt: at,
			})
			n++
		}
	}
	sort.Slice(f.Links[requestID], func(i, j int) bool {
		return f.Links[requestID][i].ProviderID < f.Links[requestID][j].ProviderID
	})
	return n, nil
}

func (f *Fake) MarkInterested(_ context.Context, requestID, providerID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	links := f.Links[requestID]
	for i := range links {
		if links[i].ProviderID == providerID {
			links[i].InterestedAt = &at
			return nil
		}
	}
	return store.ErrRequestNotFound
}

func (f *Fake) Migrate(context.Context) error { return nil }
func (f *Fake) Close() error                  { return nil }
