package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"

	"github.com/gip-inclusion/directory-cli/internal/geo"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/similarity"
)

// SQLiteStore implements Store on modernc.org/sqlite for development and
// offline use. SQLite has no tsvector or pg_trgm, so free-text scoring runs
// in-process over the snapshot through internal/similarity; both drivers
// therefore agree on match semantics.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS zones (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	kind            TEXT NOT NULL,
	code            TEXT NOT NULL,
	department_code TEXT NOT NULL DEFAULT '',
	region_name     TEXT NOT NULL DEFAULT '',
	longitude       REAL,
	latitude        REAL,
	postal_codes    TEXT NOT NULL DEFAULT '[]',
	UNIQUE (kind, code)
);

CREATE TABLE IF NOT EXISTS providers (
	id                        TEXT PRIMARY KEY,
	name                      TEXT NOT NULL,
	brand                     TEXT NOT NULL DEFAULT '',
	siret                     TEXT NOT NULL DEFAULT '',
	description               TEXT NOT NULL DEFAULT '',
	kind                      TEXT NOT NULL,
	service_types             TEXT NOT NULL DEFAULT '[]',
	legal_form                TEXT NOT NULL DEFAULT '',
	sectors                   TEXT NOT NULL DEFAULT '[]',
	network_ids               TEXT NOT NULL DEFAULT '[]',
	postal_code               TEXT NOT NULL DEFAULT '',
	department_code           TEXT NOT NULL DEFAULT '',
	region_name               TEXT NOT NULL DEFAULT '',
	longitude                 REAL,
	latitude                  REAL,
	coverage_policy           TEXT NOT NULL,
	custom_radius_km          REAL NOT NULL DEFAULT 0,
	is_qpv                    INTEGER NOT NULL DEFAULT 0,
	is_zrr                    INTEGER NOT NULL DEFAULT 0,
	self_declared_revenue     INTEGER,
	external_registry_revenue INTEGER,
	offer_count               INTEGER NOT NULL DEFAULT 0,
	client_reference_count    INTEGER NOT NULL DEFAULT 0,
	group_count               INTEGER NOT NULL DEFAULT 0,
	linked_user_count         INTEGER NOT NULL DEFAULT 0,
	offer_names               TEXT NOT NULL DEFAULT '[]',
	label_names               TEXT NOT NULL DEFAULT '[]',
	client_reference_names    TEXT NOT NULL DEFAULT '[]',
	search_text               TEXT NOT NULL DEFAULT '',
	updated_at                DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS requests (
	id                    TEXT PRIMARY KEY,
	title                 TEXT NOT NULL,
	slug                  TEXT NOT NULL UNIQUE,
	description           TEXT NOT NULL DEFAULT '',
	required_sectors      TEXT NOT NULL,
	allowed_kinds         TEXT NOT NULL DEFAULT '[]',
	allowed_service_types TEXT NOT NULL DEFAULT '[]',
	is_country_area       INTEGER NOT NULL DEFAULT 0,
	zone_ids              TEXT NOT NULL DEFAULT '[]',
	include_country_area  INTEGER NOT NULL DEFAULT 0,
	distance_km           REAL,
	deadline_date         DATETIME NOT NULL,
	author_id             TEXT NOT NULL DEFAULT '',
	company_name          TEXT NOT NULL DEFAULT '',
	created_at            DATETIME NOT NULL,
	updated_at            DATETIME NOT NULL,
	validated_at          DATETIME
);

CREATE TABLE IF NOT EXISTS request_providers (
	request_id    TEXT NOT NULL,
	provider_id   TEXT NOT NULL,
	notified_at   DATETIME,
	interested_at DATETIME,
	created_at    DATETIME NOT NULL,
	PRIMARY KEY (request_id, provider_id)
);

CREATE TABLE IF NOT EXISTS saved_list_members (
	list_id     TEXT NOT NULL,
	provider_id TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	PRIMARY KEY (list_id, provider_id)
);

CREATE INDEX IF NOT EXISTS idx_providers_siret ON providers(siret);
CREATE INDEX IF NOT EXISTS idx_request_providers_provider ON request_providers(provider_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(raw string, field string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode %s", field)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// Snapshot returns the full provider corpus, id-ordered.
func (s *SQLiteStore) Snapshot(ctx context.Context) ([]model.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, brand, siret, description, kind, service_types, legal_form,
		        sectors, network_ids, postal_code, department_code, region_name, longitude, latitude,
		        coverage_policy, custom_radius_km, is_qpv, is_zrr, self_declared_revenue, external_registry_revenue,
		        offer_count, client_reference_count, group_count, linked_user_count,
		        offer_names, label_names, client_reference_names, search_text, updated_at
		 FROM providers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: snapshot")
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		var p model.Provider
		var kind, policy string
		var serviceTypes, sectors, networks, offers, labels, refs string
		var lng, lat sql.NullFloat64

		err := rows.Scan(
			&p.ID, &p.Name, &p.Brand, &p.SIRET, &p.Description, &kind, &serviceTypes, &p.LegalForm,
			&sectors, &networks, &p.PostalCode, &p.DepartmentCode, &p.RegionName, &lng, &lat,
			&policy, &p.CustomRadiusKm, &p.IsQPV, &p.IsZRR, &p.SelfDeclaredRevenue, &p.ExternalRegistryRevenue,
			&p.OfferCount, &p.ClientReferenceCount, &p.GroupCount, &p.LinkedUserCount,
			&offers, &labels, &refs, &p.SearchVector, &p.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider")
		}

		p.Kind = model.ProviderKind(kind)
		p.CoveragePolicy = model.CoveragePolicy(policy)
		if lng.Valid && lat.Valid {
			p.Coordinates = geo.Point(lng.Float64, lat.Float64)
		}

		var sts []string
		if sts, err = decodeList(serviceTypes, "service_types"); err != nil {
			return nil, err
		}
		p.ServiceTypes = lo.Map(sts, func(st string, _ int) model.ServiceType { return model.ServiceType(st) })
		if p.Sectors, err = decodeList(sectors, "sectors"); err != nil {
			return nil, err
		}
		if p.NetworkIDs, err = decodeList(networks, "network_ids"); err != nil {
			return nil, err
		}
		if p.OfferNames, err = decodeList(offers, "offer_names"); err != nil {
			return nil, err
		}
		if p.LabelNames, err = decodeList(labels, "label_names"); err != nil {
			return nil, err
		}
		if p.ClientReferenceNames, err = decodeList(refs, "client_reference_names"); err != nil {
			return nil, err
		}

		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate snapshot rows")
	}
	return providers, nil
}

// ZonesByID resolves zone ids, failing on any unknown id.
func (s *SQLiteStore) ZonesByID(ctx context.Context, ids []string) (map[string]model.Zone, error) {
	zones := make(map[string]model.Zone, len(ids))
	if len(ids) == 0 {
		return zones, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, code, department_code, region_name, longitude, latitude, postal_codes
		 FROM zones WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query zones")
	}
	defer rows.Close()

	for rows.Next() {
		var z model.Zone
		var kind, postalCodes string
		var lng, lat sql.NullFloat64
		if err := rows.Scan(&z.ID, &z.Name, &kind, &z.Code, &z.DepartmentCode, &z.RegionName, &lng, &lat, &postalCodes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan zone")
		}
		z.Kind = model.ZoneKind(kind)
		if lng.Valid && lat.Valid {
			z.ReferencePoint = geo.Point(lng.Float64, lat.Float64)
		}
		if z.PostalCodes, err = decodeList(postalCodes, "postal_codes"); err != nil {
			return nil, err
		}
		zones[z.ID] = z
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate zone rows")
	}

	for _, id := range ids {
		if _, ok := zones[id]; !ok {
			return nil, eris.Wrapf(ErrZoneNotFound, "id %s", id)
		}
	}
	return zones, nil
}

// TextScores scores the query in-process over the snapshot.
func (s *SQLiteStore) TextScores(ctx context.Context, query string) (map[string]float64, error) {
	providers, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64)
	for i := range providers {
		if score := similarity.Score(&providers[i], query); score >= similarity.MatchThreshold {
			scores[providers[i].ID] = score
		}
	}
	return scores, nil
}

// IdentifierPrefix matches SIRET numbers by prefix.
func (s *SQLiteStore) IdentifierPrefix(ctx context.Context, digits string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM providers WHERE siret LIKE ? || '%'`, digits)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: identifier prefix")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan identifier row")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate identifier rows")
	}
	return ids, nil
}

// RequestLinks returns the notification/interest links of a request.
func (s *SQLiteStore) RequestLinks(ctx context.Context, requestID string) ([]model.RequestLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, provider_id, notified_at, interested_at, created_at
		 FROM request_providers WHERE request_id = ?`, requestID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: request links")
	}
	defer rows.Close()

	var links []model.RequestLink
	for rows.Next() {
		var l model.RequestLink
		if err := rows.Scan(&l.RequestID, &l.ProviderID, &l.NotifiedAt, &l.InterestedAt, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan request link")
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate request link rows")
	}
	return links, nil
}

// SavedListMembers returns the provider ids of a saved list.
func (s *SQLiteStore) SavedListMembers(ctx context.Context, listID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT provider_id FROM saved_list_members WHERE list_id = ?`, listID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: saved list members")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan saved list row")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate saved list rows")
	}
	return ids, nil
}

// GetRequest fetches one request by id.
func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, slug, description, required_sectors, allowed_kinds, allowed_service_types,
		        is_country_area, zone_ids, include_country_area, distance_km,
		        deadline_date, author_id, company_name, created_at, updated_at, validated_at
		 FROM requests WHERE id = ?`, id)

	var r model.Request
	var sectors, kinds, serviceTypes, zoneIDs string
	err := row.Scan(
		&r.ID, &r.Title, &r.Slug, &r.Description, &sectors, &kinds, &serviceTypes,
		&r.IsCountryArea, &zoneIDs, &r.IncludeCountryArea, &r.DistanceKm,
		&r.DeadlineDate, &r.AuthorID, &r.CompanyName, &r.CreatedAt, &r.UpdatedAt, &r.ValidatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrapf(ErrRequestNotFound, "id %s", id)
		}
		return nil, eris.Wrap(err, "sqlite: get request")
	}

	if r.RequiredSectors, err = decodeList(sectors, "required_sectors"); err != nil {
		return nil, err
	}
	ks, err := decodeList(kinds, "allowed_kinds")
	if err != nil {
		return nil, err
	}
	r.AllowedProviderKinds = lo.Map(ks, func(k string, _ int) model.ProviderKind { return model.ProviderKind(k) })
	sts, err := decodeList(serviceTypes, "allowed_service_types")
	if err != nil {
		return nil, err
	}
	r.AllowedServiceTypes = lo.Map(sts, func(st string, _ int) model.ServiceType { return model.ServiceType(st) })
	if r.ZoneIDs, err = decodeList(zoneIDs, "zone_ids"); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRequest inserts or updates a request, surfacing slug collisions as
// ErrDuplicateSlug.
func (s *SQLiteStore) SaveRequest(ctx context.Context, r *model.Request) error {
	kinds := lo.Map(r.AllowedProviderKinds, func(k model.ProviderKind, _ int) string { return string(k) })
	serviceTypes := lo.Map(r.AllowedServiceTypes, func(st model.ServiceType, _ int) string { return string(st) })

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (id, title, slug, description, required_sectors, allowed_kinds, allowed_service_types,
		                       is_country_area, zone_ids, include_country_area, distance_km,
		                       deadline_date, author_id, company_name, created_at, updated_at, validated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, slug = excluded.slug, description = excluded.description,
		   required_sectors = excluded.required_sectors, allowed_kinds = excluded.allowed_kinds,
		   allowed_service_types = excluded.allowed_service_types, is_country_area = excluded.is_country_area,
		   zone_ids = excluded.zone_ids, include_country_area = excluded.include_country_area,
		   distance_km = excluded.distance_km, deadline_date = excluded.deadline_date,
		   updated_at = excluded.updated_at, validated_at = excluded.validated_at`,
		r.ID, r.Title, r.Slug, r.Description, encodeList(r.RequiredSectors), encodeList(kinds), encodeList(serviceTypes),
		r.IsCountryArea, encodeList(r.ZoneIDs), r.IncludeCountryArea, r.DistanceKm,
		r.DeadlineDate, r.AuthorID, r.CompanyName, r.CreatedAt, r.UpdatedAt, r.ValidatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "requests.slug") {
			return eris.Wrapf(ErrDuplicateSlug, "slug %s", r.Slug)
		}
		return eris.Wrap(err, "sqlite: save request")
	}
	return nil
}

// UpsertProviders bulk-upserts provider rows one statement at a time inside
// a transaction.
func (s *SQLiteStore) UpsertProviders(ctx context.Context, providers []model.Provider) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert providers")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO providers (id, name, brand, siret, description, kind, service_types, legal_form,
		                        sectors, network_ids, postal_code, department_code, region_name, longitude, latitude,
		                        coverage_policy, custom_radius_km, is_qpv, is_zrr, self_declared_revenue, external_registry_revenue,
		                        offer_count, client_reference_count, group_count, linked_user_count,
		                        offer_names, label_names, client_reference_names, search_text, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, brand = excluded.brand, siret = excluded.siret,
		   description = excluded.description, kind = excluded.kind, service_types = excluded.service_types,
		   legal_form = excluded.legal_form, sectors = excluded.sectors, network_ids = excluded.network_ids,
		   postal_code = excluded.postal_code, department_code = excluded.department_code,
		   region_name = excluded.region_name, longitude = excluded.longitude, latitude = excluded.latitude,
		   coverage_policy = excluded.coverage_policy, custom_radius_km = excluded.custom_radius_km,
		   is_qpv = excluded.is_qpv, is_zrr = excluded.is_zrr,
		   self_declared_revenue = excluded.self_declared_revenue,
		   external_registry_revenue = excluded.external_registry_revenue,
		   offer_count = excluded.offer_count, client_reference_count = excluded.client_reference_count,
		   group_count = excluded.group_count, linked_user_count = excluded.linked_user_count,
		   offer_names = excluded.offer_names, label_names = excluded.label_names,
		   client_reference_names = excluded.client_reference_names,
		   search_text = excluded.search_text, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert providers")
	}
	defer stmt.Close()

	var n int64
	for i := range providers {
		p := &providers[i]
		var lng, lat any
		if p.Coordinates != nil {
			lng, lat = p.Coordinates.X(), p.Coordinates.Y()
		}
		serviceTypes := lo.Map(p.ServiceTypes, func(st model.ServiceType, _ int) string { return string(st) })
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Brand, p.SIRET, p.Description, string(p.Kind), encodeList(serviceTypes), p.LegalForm,
			encodeList(p.Sectors), encodeList(p.NetworkIDs), p.PostalCode, p.DepartmentCode, p.RegionName, lng, lat,
			string(p.CoveragePolicy), p.CustomRadiusKm, p.IsQPV, p.IsZRR, p.SelfDeclaredRevenue, p.ExternalRegistryRevenue,
			p.OfferCount, p.ClientReferenceCount, p.GroupCount, p.LinkedUserCount,
			encodeList(p.OfferNames), encodeList(p.LabelNames), encodeList(p.ClientReferenceNames), p.SearchVector, p.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert provider %s", p.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert providers")
	}
	return n, nil
}

// UpsertZones bulk-upserts zone rows.
func (s *SQLiteStore) UpsertZones(ctx context.Context, zones []model.Zone) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert zones")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO zones (id, name, kind, code, department_code, region_name, longitude, latitude, postal_codes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, kind = excluded.kind, code = excluded.code,
		   department_code = excluded.department_code, region_name = excluded.region_name,
		   longitude = excluded.longitude, latitude = excluded.latitude,
		   postal_codes = excluded.postal_codes`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert zones")
	}
	defer stmt.Close()

	var n int64
	for i := range zones {
		z := &zones[i]
		var lng, lat any
		if z.ReferencePoint != nil {
			lng, lat = z.ReferencePoint.X(), z.ReferencePoint.Y()
		}
		if _, err := stmt.ExecContext(ctx, z.ID, z.Name, string(z.Kind), z.Code, z.DepartmentCode, z.RegionName, lng, lat, encodeList(z.PostalCodes)); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert zone %s", z.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert zones")
	}
	return n, nil
}

// SaveSearchVector overwrites one provider's search document.
func (s *SQLiteStore) SaveSearchVector(ctx context.Context, providerID, document string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE providers SET search_text = ? WHERE id = ?`, document, providerID); err != nil {
		return eris.Wrapf(err, "sqlite: save search vector for %s", providerID)
	}
	return nil
}

// MarkNotified stamps NotifiedAt on the given links, creating missing ones.
func (s *SQLiteStore) MarkNotified(ctx context.Context, requestID string, providerIDs []string, at time.Time) (int64, error) {
	if len(providerIDs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin mark notified")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO request_providers (request_id, provider_id, notified_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (request_id, provider_id)
		 DO UPDATE SET notified_at = COALESCE(request_providers.notified_at, excluded.notified_at)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare mark notified")
	}
	defer stmt.Close()

	var n int64
	for _, id := range providerIDs {
		if _, err := stmt.ExecContext(ctx, requestID, id, at, at); err != nil {
			return 0, eris.Wrapf(err, "sqlite: mark notified %s", id)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit mark notified")
	}
	return n, nil
}

// MarkInterested stamps InterestedAt on an existing link.
func (s *SQLiteStore) MarkInterested(ctx context.Context, requestID, providerID string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE request_providers SET interested_at = COALESCE(interested_at, ?)
		 WHERE request_id = ? AND provider_id = ?`,
		at, requestID, providerID); err != nil {
		return eris.Wrap(err, "sqlite: mark interested")
	}
	return nil
}
