package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gip-inclusion/directory-cli/internal/geo"
	"github.com/gip-inclusion/directory-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleProvider(id string) model.Provider {
	revenue := int64(276000)
	return model.Provider{
		ID: id, Name: "Grenoble Propreté", Brand: "GP", SIRET: "12312312312345",
		Description: "Nettoyage de bureaux",
		Kind:        model.KindEI, ServiceTypes: []model.ServiceType{model.ServicePrest},
		LegalForm: "SARL", Sectors: []string{"cleaning"}, NetworkIDs: []string{"n1"},
		PostalCode: "38000", DepartmentCode: "38", RegionName: "Auvergne-Rhône-Alpes",
		Coordinates:    geo.Point(5.7245, 45.1885),
		CoveragePolicy: model.CoverageCustom, CustomRadiusKm: 10,
		IsQPV:                   true,
		ExternalRegistryRevenue: &revenue,
		OfferCount:              2, ClientReferenceCount: 1, LinkedUserCount: 1,
		OfferNames:           []string{"Tonte"},
		LabelNames:           []string{"RSEi"},
		ClientReferenceNames: []string{"Mairie de Lyon"},
		UpdatedAt:            time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	want := sampleProvider("p1")
	n, err := s.UpsertProviders(ctx, []model.Provider{want})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	snapshot, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	got := snapshot[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.ServiceTypes, got.ServiceTypes)
	assert.Equal(t, want.Sectors, got.Sectors)
	assert.Equal(t, want.CoveragePolicy, got.CoveragePolicy)
	assert.Equal(t, want.CustomRadiusKm, got.CustomRadiusKm)
	assert.True(t, got.IsQPV)
	require.NotNil(t, got.ExternalRegistryRevenue)
	assert.Equal(t, int64(276000), *got.ExternalRegistryRevenue)
	assert.Nil(t, got.SelfDeclaredRevenue)
	require.NotNil(t, got.Coordinates)
	assert.InDelta(t, 5.7245, got.Coordinates.X(), 1e-9)
	assert.Equal(t, want.ClientReferenceNames, got.ClientReferenceNames)
}

func TestSQLiteUpsertIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p := sampleProvider("p1")
	_, err := s.UpsertProviders(ctx, []model.Provider{p})
	require.NoError(t, err)

	p.Name = "Renamed"
	_, err = s.UpsertProviders(ctx, []model.Provider{p})
	require.NoError(t, err)

	snapshot, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Renamed", snapshot[0].Name)
}

func TestSQLiteZonesByID(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	zones := []model.Zone{
		{
			ID: "z-grenoble", Name: "Grenoble", Kind: model.ZoneKindCity, Code: "38185",
			DepartmentCode: "38", RegionName: "Auvergne-Rhône-Alpes",
			ReferencePoint: geo.Point(5.7245, 45.1885),
			PostalCodes:    []string{"38000", "38100"},
		},
		{ID: "z-38", Name: "Isère", Kind: model.ZoneKindDepartment, Code: "38", RegionName: "Auvergne-Rhône-Alpes"},
	}
	_, err := s.UpsertZones(ctx, zones)
	require.NoError(t, err)

	got, err := s.ZonesByID(ctx, []string{"z-grenoble", "z-38"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"38000", "38100"}, got["z-grenoble"].PostalCodes)
	require.NotNil(t, got["z-grenoble"].ReferencePoint)
	assert.Nil(t, got["z-38"].ReferencePoint)

	_, err = s.ZonesByID(ctx, []string{"z-grenoble", "z-missing"})
	assert.ErrorIs(t, err, ErrZoneNotFound)
}

func TestSQLiteTextScoresAndSearchVector(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertProviders(ctx, []model.Provider{sampleProvider("p1")})
	require.NoError(t, err)

	require.NoError(t, s.SaveSearchVector(ctx, "p1", "nettoyage de bureaux grenoble proprete"))

	scores, err := s.TextScores(ctx, "nettoyage")
	require.NoError(t, err)
	assert.Contains(t, scores, "p1")

	scores, err = s.TextScores(ctx, "charpente")
	require.NoError(t, err)
	assert.NotContains(t, scores, "p1")
}

func TestSQLiteIdentifierPrefix(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p1 := sampleProvider("p1")
	p2 := sampleProvider("p2")
	p2.SIRET = "45645645645678"
	_, err := s.UpsertProviders(ctx, []model.Provider{p1, p2})
	require.NoError(t, err)

	ids, err := s.IdentifierPrefix(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestSQLiteRequestRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	dist := 30.0

	want := &model.Request{
		ID: "req-1", Title: "Nettoyage de bureaux", Slug: "nettoyage-de-bureaux-acme",
		RequiredSectors:      []string{"cleaning"},
		AllowedProviderKinds: []model.ProviderKind{model.KindEI},
		ZoneIDs:              []string{"z-grenoble"},
		DistanceKm:           &dist,
		DeadlineDate:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		AuthorID:             "u1", CompanyName: "Acme",
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveRequest(ctx, want))

	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.RequiredSectors, got.RequiredSectors)
	assert.Equal(t, want.AllowedProviderKinds, got.AllowedProviderKinds)
	assert.Equal(t, want.ZoneIDs, got.ZoneIDs)
	require.NotNil(t, got.DistanceKm)
	assert.Equal(t, dist, *got.DistanceKm)

	mode, err := got.TargetMode()
	require.NoError(t, err)
	assert.Equal(t, model.TargetRadius, mode)

	_, err = s.GetRequest(ctx, "req-missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestSQLiteSaveRequestDuplicateSlug(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := &model.Request{
		ID: "req-1", Title: "T", Slug: "shared-slug",
		RequiredSectors: []string{"cleaning"}, IsCountryArea: true,
		DeadlineDate: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, s.SaveRequest(ctx, base))

	dup := *base
	dup.ID = "req-2"
	err := s.SaveRequest(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	// Re-saving the same request is an update, not a collision.
	base.Title = "T2"
	require.NoError(t, s.SaveRequest(ctx, base))
}

func TestSQLiteNotificationLinks(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(24 * time.Hour)

	n, err := s.MarkNotified(ctx, "req-1", []string{"p1", "p2"}, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Re-notifying keeps the original timestamp.
	_, err = s.MarkNotified(ctx, "req-1", []string{"p1"}, later)
	require.NoError(t, err)

	require.NoError(t, s.MarkInterested(ctx, "req-1", "p2", later))

	links, err := s.RequestLinks(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, links, 2)

	byID := map[string]model.RequestLink{}
	for _, l := range links {
		byID[l.ProviderID] = l
	}
	p1, p2 := byID["p1"], byID["p2"]
	assert.True(t, p1.NotifiedAt.Equal(first))
	assert.True(t, p2.Interested())
	assert.False(t, p1.Interested())
}

func TestSQLiteMarkNotifiedEmpty(t *testing.T) {
	s := newTestSQLite(t)

	n, err := s.MarkNotified(context.Background(), "req-1", nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
