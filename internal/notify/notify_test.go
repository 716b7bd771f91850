package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/store"
	"github.com/gip-inclusion/directory-cli/internal/store/storetest"
)

func fixture() *storetest.Fake {
	st := storetest.New()
	st.Providers = []model.Provider{
		{ID: "p1", Sectors: []string{"cleaning"}, CoveragePolicy: model.CoverageCountry},
		{ID: "p2", Sectors: []string{"cleaning"}, CoveragePolicy: model.CoverageCountry},
		{ID: "p3", Sectors: []string{"gardening"}, CoveragePolicy: model.CoverageCountry},
	}
	st.Requests["req-1"] = &model.Request{
		ID: "req-1", Title: "Nettoyage de bureaux",
		RequiredSectors: []string{"cleaning"},
		IsCountryArea:   true,
	}
	return st
}

type recordingSender struct {
	sent []string
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, _ *model.Request, providerID string) error {
	if r.fail[providerID] {
		return eris.New("smtp unavailable")
	}
	r.sent = append(r.sent, providerID)
	return nil
}

func TestDispatchNotifiesMatchingProviders(t *testing.T) {
	st := fixture()
	sender := &recordingSender{}
	d := NewDispatcher(st, sender, 1000, 10)

	n, err := d.Dispatch(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"p1", "p2"}, sender.sent)

	links, err := st.RequestLinks(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.True(t, l.Notified())
	}
}

func TestDispatchSkipsAlreadyNotified(t *testing.T) {
	st := fixture()
	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	st.Links["req-1"] = []model.RequestLink{
		{RequestID: "req-1", ProviderID: "p1", NotifiedAt: &past},
	}
	sender := &recordingSender{}
	d := NewDispatcher(st, sender, 1000, 10)

	n, err := d.Dispatch(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"p2"}, sender.sent)

	// The original timestamp survives.
	links, err := st.RequestLinks(context.Background(), "req-1")
	require.NoError(t, err)
	for _, l := range links {
		if l.ProviderID == "p1" {
			assert.Equal(t, past, *l.NotifiedAt)
		}
	}
}

func TestDispatchIdempotent(t *testing.T) {
	st := fixture()
	sender := &recordingSender{}
	d := NewDispatcher(st, sender, 1000, 10)

	_, err := d.Dispatch(context.Background(), "req-1")
	require.NoError(t, err)
	n, err := d.Dispatch(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, []string{"p1", "p2"}, sender.sent)
}

func TestDispatchMarksDeliveredOnMidBatchFailure(t *testing.T) {
	st := fixture()
	sender := &recordingSender{fail: map[string]bool{"p2": true}}
	d := NewDispatcher(st, sender, 1000, 10)

	n, err := d.Dispatch(context.Background(), "req-1")
	require.Error(t, err)
	assert.Equal(t, 1, n)

	// p1 went out and is stamped; a retry only re-sends p2.
	links, err := st.RequestLinks(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "p1", links[0].ProviderID)

	sender.fail = nil
	n, err = d.Dispatch(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"p1", "p2"}, sender.sent)
}

func TestDispatchUnknownRequest(t *testing.T) {
	d := NewDispatcher(fixture(), &recordingSender{}, 1000, 10)

	_, err := d.Dispatch(context.Background(), "req-missing")
	assert.ErrorIs(t, err, store.ErrRequestNotFound)
}

func TestPublishDerivesSlug(t *testing.T) {
	st := storetest.New()
	r := &model.Request{Title: "Entretien espaces verts", CompanyName: "Acme"}

	require.NoError(t, Publish(context.Background(), st, r))
	assert.Equal(t, "entretien-espaces-verts-acme", r.Slug)
}

func TestPublishRetriesOnSlugCollision(t *testing.T) {
	st := storetest.New()
	st.TakenSlugs["entretien-espaces-verts-acme"] = true
	r := &model.Request{Title: "Entretien espaces verts", CompanyName: "Acme"}

	require.NoError(t, Publish(context.Background(), st, r))
	assert.NotEqual(t, "entretien-espaces-verts-acme", r.Slug)
	assert.Contains(t, r.Slug, "entretien-espaces-verts-acme-")
}

func TestPublishGivesUpAfterBoundedRetries(t *testing.T) {
	st := &alwaysCollidingStore{Fake: storetest.New()}
	r := &model.Request{Title: "Titre", CompanyName: "Acme"}

	err := Publish(context.Background(), st, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDuplicateSlug)
	assert.Equal(t, slugRetries+1, st.attempts)
}

type alwaysCollidingStore struct {
	*storetest.Fake
	attempts int
}

func (s *alwaysCollidingStore) SaveRequest(context.Context, *model.Request) error {
	s.attempts++
	return store.ErrDuplicateSlug
}
