package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gip-inclusion/directory-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_TextScores(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, GREATEST`).
		WithArgs("nettoyage").
		WillReturnRows(pgxmock.NewRows([]string{"id", "score"}).
			AddRow("p1", 0.8).
			AddRow("p2", 0.31))

	scores, err := s.TextScores(context.Background(), "nettoyage")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"p1": 0.8, "p2": 0.31}, scores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IdentifierPrefix(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id FROM providers WHERE siret LIKE`).
		WithArgs("123").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("p1"))

	ids, err := s.IdentifierPrefix(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ZonesByID_Missing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, kind, code, department_code, region_name, longitude, latitude, postal_codes`).
		WithArgs([]string{"z-known", "z-missing"}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "kind", "code", "department_code", "region_name", "longitude", "latitude", "postal_codes",
		}).AddRow("z-known", "Grenoble", "CITY", "38185", "38", "Auvergne-Rhône-Alpes", ptr(5.72), ptr(45.19), []string{"38000"}))

	_, err := s.ZonesByID(context.Background(), []string{"z-known", "z-missing"})
	require.ErrorIs(t, err, ErrZoneNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ZonesByID_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	zones, err := s.ZonesByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestPostgresStore_GetRequest_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, title, slug`).
		WithArgs("req-missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRequest(context.Background(), "req-missing")
	require.ErrorIs(t, err, ErrRequestNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRequest_DuplicateSlug(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	anyArgs := make([]interface{}, 17)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO requests`).
		WithArgs(anyArgs...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "requests_slug_key"})

	err := s.SaveRequest(context.Background(), &model.Request{
		ID: "r1", Title: "T", Slug: "taken-slug",
		RequiredSectors: []string{"cleaning"}, IsCountryArea: true,
	})
	require.ErrorIs(t, err, ErrDuplicateSlug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSearchVector(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE providers SET search_text`).
		WithArgs("p1", "nettoyage bureaux").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.SaveSearchVector(context.Background(), "p1", "nettoyage bureaux"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkNotified(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO request_providers`).
		WithArgs("req-1", []string{"p1", "p2"}, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	n, err := s.MarkNotified(context.Background(), "req-1", []string{"p1", "p2"}, at)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkNotified_NoProviders(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.MarkNotified(context.Background(), "req-1", nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresStore_RequestLinks(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	notified := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	created := notified.Add(-time.Hour)

	mock.ExpectQuery(`SELECT request_id, provider_id, notified_at, interested_at, created_at`).
		WithArgs("req-1").
		WillReturnRows(pgxmock.NewRows([]string{"request_id", "provider_id", "notified_at", "interested_at", "created_at"}).
			AddRow("req-1", "p1", &notified, (*time.Time)(nil), created))

	links, err := s.RequestLinks(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Notified())
	assert.False(t, links[0].Interested())
	assert.NoError(t, mock.ExpectationsWereMet())
}

var zoneColumns = []string{
	"id", "name", "kind", "code", "department_code", "region_name",
	"longitude", "latitude", "postal_codes",
}

func TestPostgresStore_UpsertZones_EmptyTableUsesCopy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM zones`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectCopyFrom(pgx.Identifier{"zones"}, zoneColumns).WillReturnResult(2)

	zones := []model.Zone{
		{ID: "city-grenoble", Name: "Grenoble", Kind: model.ZoneKindCity, Code: "38185"},
		{ID: "dept-38", Name: "Isère", Kind: model.ZoneKindDepartment, Code: "38"},
	}
	n, err := s.UpsertZones(context.Background(), zones)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertZones_PopulatedTableUpserts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM zones`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(40)))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_zones"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_zones"}, zoneColumns).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "zones"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	zones := []model.Zone{
		{ID: "city-grenoble", Name: "Grenoble", Kind: model.ZoneKindCity, Code: "38185"},
	}
	n, err := s.UpsertZones(context.Background(), zones)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr[T any](v T) *T { return &v }
