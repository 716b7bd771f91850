package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/samber/lo"

	"github.com/gip-inclusion/directory-cli/internal/db"
	"github.com/gip-inclusion/directory-cli/internal/geo"
	"github.com/gip-inclusion/directory-cli/internal/model"
)

// PostgresStore implements Store on pgx. Text-similarity scoring runs in
// SQL over the stored search document (ts_rank on a generated tsvector,
// pg_trgm similarity on the name); everything else the engine needs is
// plain set and equality queries.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS zones (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	kind            TEXT NOT NULL,
	code            TEXT NOT NULL,
	department_code TEXT NOT NULL DEFAULT '',
	region_name     TEXT NOT NULL DEFAULT '',
	longitude       DOUBLE PRECISION,
	latitude        DOUBLE PRECISION,
	postal_codes    TEXT[] NOT NULL DEFAULT '{}',
	UNIQUE (kind, code)
);

CREATE TABLE IF NOT EXISTS providers (
	id                        TEXT PRIMARY KEY,
	name                      TEXT NOT NULL,
	brand                     TEXT NOT NULL DEFAULT '',
	siret                     TEXT NOT NULL DEFAULT '',
	description               TEXT NOT NULL DEFAULT '',
	kind                      TEXT NOT NULL,
	service_types             TEXT[] NOT NULL DEFAULT '{}',
	legal_form                TEXT NOT NULL DEFAULT '',
	sectors                   TEXT[] NOT NULL DEFAULT '{}',
	network_ids               TEXT[] NOT NULL DEFAULT '{}',
	postal_code               TEXT NOT NULL DEFAULT '',
	department_code           TEXT NOT NULL DEFAULT '',
	region_name               TEXT NOT NULL DEFAULT '',
	longitude                 DOUBLE PRECISION,
	latitude                  DOUBLE PRECISION,
	coverage_policy           TEXT NOT NULL,
	custom_radius_km          DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_qpv                    BOOLEAN NOT NULL DEFAULT FALSE,
	is_zrr                    BOOLEAN NOT NULL DEFAULT FALSE,
	self_declared_revenue     BIGINT,
	external_registry_revenue BIGINT,
	offer_count               INT NOT NULL DEFAULT 0,
	client_reference_count    INT NOT NULL DEFAULT 0,
	group_count               INT NOT NULL DEFAULT 0,
	linked_user_count         INT NOT NULL DEFAULT 0,
	offer_names               TEXT[] NOT NULL DEFAULT '{}',
	label_names               TEXT[] NOT NULL DEFAULT '{}',
	client_reference_names    TEXT[] NOT NULL DEFAULT '{}',
	search_text               TEXT NOT NULL DEFAULT '',
	search_vector             tsvector GENERATED ALWAYS AS (to_tsvector('french', search_text)) STORED,
	updated_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS requests (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	slug                 TEXT NOT NULL UNIQUE,
	description          TEXT NOT NULL DEFAULT '',
	required_sectors     TEXT[] NOT NULL,
	allowed_kinds        TEXT[] NOT NULL DEFAULT '{}',
	allowed_service_types TEXT[] NOT NULL DEFAULT '{}',
	is_country_area      BOOLEAN NOT NULL DEFAULT FALSE,
	zone_ids             TEXT[] NOT NULL DEFAULT '{}',
	include_country_area BOOLEAN NOT NULL DEFAULT FALSE,
	distance_km          DOUBLE PRECISION,
	deadline_date        TIMESTAMPTZ NOT NULL,
	author_id            TEXT NOT NULL DEFAULT '',
	company_name         TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	validated_at         TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS request_providers (
	request_id    TEXT NOT NULL REFERENCES requests(id),
	provider_id   TEXT NOT NULL REFERENCES providers(id),
	notified_at   TIMESTAMPTZ,
	interested_at TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (request_id, provider_id)
);

CREATE TABLE IF NOT EXISTS saved_list_members (
	list_id     TEXT NOT NULL,
	provider_id TEXT NOT NULL REFERENCES providers(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (list_id, provider_id)
);

CREATE INDEX IF NOT EXISTS idx_providers_search_vector ON providers USING gin(search_vector);
CREATE INDEX IF NOT EXISTS idx_providers_name_trgm ON providers USING gin(name gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_providers_siret ON providers(siret text_pattern_ops);
CREATE INDEX IF NOT EXISTS idx_request_providers_provider ON request_providers(provider_id);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

const providerColumns = `id, name, brand, siret, description, kind, service_types, legal_form,
	sectors, network_ids, postal_code, department_code, region_name, longitude, latitude,
	coverage_policy, custom_radius_km, is_qpv, is_zrr, self_declared_revenue, external_registry_revenue,
	offer_count, client_reference_count, group_count, linked_user_count,
	offer_names, label_names, client_reference_names, search_text, updated_at`

// Snapshot returns the full provider corpus, id-ordered.
func (s *PostgresStore) Snapshot(ctx context.Context) ([]model.Provider, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+providerColumns+` FROM providers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: snapshot")
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate snapshot rows")
	}
	return providers, nil
}

func scanProvider(row pgx.Row) (*model.Provider, error) {
	var p model.Provider
	var serviceTypes []string
	var kind string
	var policy string
	var lng, lat *float64

	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.SIRET, &p.Description, &kind, &serviceTypes, &p.LegalForm,
		&p.Sectors, &p.NetworkIDs, &p.PostalCode, &p.DepartmentCode, &p.RegionName, &lng, &lat,
		&policy, &p.CustomRadiusKm, &p.IsQPV, &p.IsZRR, &p.SelfDeclaredRevenue, &p.ExternalRegistryRevenue,
		&p.OfferCount, &p.ClientReferenceCount, &p.GroupCount, &p.LinkedUserCount,
		&p.OfferNames, &p.LabelNames, &p.ClientReferenceNames, &p.SearchVector, &p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan provider")
	}

	p.Kind = model.ProviderKind(kind)
	p.CoveragePolicy = model.CoveragePolicy(policy)
	p.ServiceTypes = lo.Map(serviceTypes, func(st string, _ int) model.ServiceType { return model.ServiceType(st) })
	if lng != nil && lat != nil {
		p.Coordinates = geo.Point(*lng, *lat)
	}
	return &p, nil
}

// ZonesByID resolves zone ids, failing on any unknown id.
func (s *PostgresStore) ZonesByID(ctx context.Context, ids []string) (map[string]model.Zone, error) {
	zones := make(map[string]model.Zone, len(ids))
	if len(ids) == 0 {
		return zones, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, kind, code, department_code, region_name, longitude, latitude, postal_codes
		 FROM zones WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query zones")
	}
	defer rows.Close()

	for rows.Next() {
		var z model.Zone
		var kind string
		var lng, lat *float64
		if err := rows.Scan(&z.ID, &z.Name, &kind, &z.Code, &z.DepartmentCode, &z.RegionName, &lng, &lat, &z.PostalCodes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan zone")
		}
		z.Kind = model.ZoneKind(kind)
		if lng != nil && lat != nil {
			z.ReferencePoint = geo.Point(*lng, *lat)
		}
		zones[z.ID] = z
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate zone rows")
	}

	for _, id := range ids {
		if _, ok := zones[id]; !ok {
			return nil, eris.Wrapf(ErrZoneNotFound, "id %s", id)
		}
	}
	return zones, nil
}

// textScoreSQL keeps providers matching the french full-text query or whose
// name is trigram-similar, scored by the best of the two signals. Mirrors
// the in-process scorer in internal/similarity.
const textScoreSQL = `
SELECT id, GREATEST(ts_rank(search_vector, plainto_tsquery('french', $1)), similarity(name, $1))
FROM providers
WHERE search_vector @@ plainto_tsquery('french', $1) OR similarity(name, $1) > 0.2`

// TextScores returns text-similarity scores by provider id.
func (s *PostgresStore) TextScores(ctx context.Context, query string) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, textScoreSQL, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: text scores")
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan text score")
		}
		scores[id] = score
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate text score rows")
	}
	return scores, nil
}

// IdentifierPrefix matches SIRET numbers by prefix.
func (s *PostgresStore) IdentifierPrefix(ctx context.Context, digits string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM providers WHERE siret LIKE $1 || '%'`, digits)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: identifier prefix")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan identifier row")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate identifier rows")
	}
	return ids, nil
}

// RequestLinks returns the notification/interest links of a request.
func (s *PostgresStore) RequestLinks(ctx context.Context, requestID string) ([]model.RequestLink, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT request_id, provider_id, notified_at, interested_at, created_at
		 FROM request_providers WHERE request_id = $1`, requestID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: request links")
	}
	defer rows.Close()

	var links []model.RequestLink
	for rows.Next() {
		var l model.RequestLink
		if err := rows.Scan(&l.RequestID, &l.ProviderID, &l.NotifiedAt, &l.InterestedAt, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan request link")
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate request link rows")
	}
	return links, nil
}

// SavedListMembers returns the provider ids of a saved list.
func (s *PostgresStore) SavedListMembers(ctx context.Context, listID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT provider_id FROM saved_list_members WHERE list_id = $1`, listID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: saved list members")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan saved list row")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate saved list rows")
	}
	return ids, nil
}

// GetRequest fetches one request by id.
func (s *PostgresStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, slug, description, required_sectors, allowed_kinds, allowed_service_types,
		        is_country_area, zone_ids, include_country_area, distance_km,
		        deadline_date, author_id, company_name, created_at, updated_at, validated_at
		 FROM requests WHERE id = $1`, id)

	var r model.Request
	var kinds, serviceTypes []string
	err := row.Scan(
		&r.ID, &r.Title, &r.Slug, &r.Description, &r.RequiredSectors, &kinds, &serviceTypes,
		&r.IsCountryArea, &r.ZoneIDs, &r.IncludeCountryArea, &r.DistanceKm,
		&r.DeadlineDate, &r.AuthorID, &r.CompanyName, &r.CreatedAt, &r.UpdatedAt, &r.ValidatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrRequestNotFound, "id %s", id)
		}
		return nil, eris.Wrap(err, "postgres: get request")
	}
	r.AllowedProviderKinds = lo.Map(kinds, func(k string, _ int) model.ProviderKind { return model.ProviderKind(k) })
	r.AllowedServiceTypes = lo.Map(serviceTypes, func(st string, _ int) model.ServiceType { return model.ServiceType(st) })
	return &r, nil
}

// SaveRequest inserts or updates a request. A slug collision surfaces as
// ErrDuplicateSlug so the caller can retry with a suffixed slug.
func (s *PostgresStore) SaveRequest(ctx context.Context, r *model.Request) error {
	kinds := lo.Map(r.AllowedProviderKinds, func(k model.ProviderKind, _ int) string { return string(k) })
	serviceTypes := lo.Map(r.AllowedServiceTypes, func(st model.ServiceType, _ int) string { return string(st) })

	_, err := s.pool.Exec(ctx,
		`INSERT INTO requests (id, title, slug, description, required_sectors, allowed_kinds, allowed_service_types,
		                       is_country_area, zone_ids, include_country_area, distance_km,
		                       deadline_date, author_id, company_name, created_at, updated_at, validated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, slug = EXCLUDED.slug, description = EXCLUDED.description,
		   required_sectors = EXCLUDED.required_sectors, allowed_kinds = EXCLUDED.allowed_kinds,
		   allowed_service_types = EXCLUDED.allowed_service_types, is_country_area = EXCLUDED.is_country_area,
		   zone_ids = EXCLUDED.zone_ids, include_country_area = EXCLUDED.include_country_area,
		   distance_km = EXCLUDED.distance_km, deadline_date = EXCLUDED.deadline_date,
		   updated_at = EXCLUDED.updated_at, validated_at = EXCLUDED.validated_at`,
		r.ID, r.Title, r.Slug, r.Description, r.RequiredSectors, kinds, serviceTypes,
		r.IsCountryArea, r.ZoneIDs, r.IncludeCountryArea, r.DistanceKm,
		r.DeadlineDate, r.AuthorID, r.CompanyName, r.CreatedAt, r.UpdatedAt, r.ValidatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "requests_slug_key" {
			return eris.Wrapf(ErrDuplicateSlug, "slug %s", r.Slug)
		}
		return eris.Wrap(err, "postgres: save request")
	}
	return nil
}

// UpsertProviders bulk-upserts provider rows.
func (s *PostgresStore) UpsertProviders(ctx context.Context, providers []model.Provider) (int64, error) {
	columns := []string{
		"id", "name", "brand", "siret", "description", "kind", "service_types", "legal_form",
		"sectors", "network_ids", "postal_code", "department_code", "region_name", "longitude", "latitude",
		"coverage_policy", "custom_radius_km", "is_qpv", "is_zrr", "self_declared_revenue", "external_registry_revenue",
		"offer_count", "client_reference_count", "group_count", "linked_user_count",
		"offer_names", "label_names", "client_reference_names", "search_text", "updated_at",
	}

	rows := make([][]any, 0, len(providers))
	for i := range providers {
		p := &providers[i]
		var lng, lat *float64
		if p.Coordinates != nil {
			x, y := p.Coordinates.X(), p.Coordinates.Y()
			lng, lat = &x, &y
		}
		serviceTypes := lo.Map(p.ServiceTypes, func(st model.ServiceType, _ int) string { return string(st) })
		rows = append(rows, []any{
			p.ID, p.Name, p.Brand, p.SIRET, p.Description, string(p.Kind), serviceTypes, p.LegalForm,
			p.Sectors, p.NetworkIDs, p.PostalCode, p.DepartmentCode, p.RegionName, lng, lat,
			string(p.CoveragePolicy), p.CustomRadiusKm, p.IsQPV, p.IsZRR, p.SelfDeclaredRevenue, p.ExternalRegistryRevenue,
			p.OfferCount, p.ClientReferenceCount, p.GroupCount, p.LinkedUserCount,
			p.OfferNames, p.LabelNames, p.ClientReferenceNames, p.SearchVector, p.UpdatedAt,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "providers",
		Columns:      columns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert providers")
	}
	return n, nil
}

// UpsertZones bulk-upserts zone rows.
func (s *PostgresStore) UpsertZones(ctx context.Context, zones []model.Zone) (int64, error) {
	columns := []string{"id", "name", "kind", "code", "department_code", "region_name", "longitude", "latitude", "postal_codes"}

	rows := make([][]any, 0, len(zones))
	for i := range zones {
		z := &zones[i]
		var lng, lat *float64
		if z.ReferencePoint != nil {
			x, y := z.ReferencePoint.X(), z.ReferencePoint.Y()
			lng, lat = &x, &y
		}
		rows = append(rows, []any{z.ID, z.Name, string(z.Kind), z.Code, z.DepartmentCode, z.RegionName, lng, lat, z.PostalCodes})
	}

	// Initial load hits an empty table: no conflicts are possible, so a
	// plain COPY skips the temp-table upsert flow.
	var existing int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM zones`).Scan(&existing); err != nil {
		return 0, eris.Wrap(err, "postgres: count zones")
	}
	if existing == 0 {
		n, err := db.CopyFrom(ctx, s.pool, "zones", columns, rows)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: load zones")
		}
		return n, nil
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "zones",
		Columns:      columns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert zones")
	}
	return n, nil
}

// SaveSearchVector overwrites one provider's search document. The tsvector
// column is generated from search_text, so a single UPDATE keeps both in
// step.
func (s *PostgresStore) SaveSearchVector(ctx context.Context, providerID, document string) error {
	if _, err := s.pool.Exec(ctx, `UPDATE providers SET search_text = $2 WHERE id = $1`, providerID, document); err != nil {
		return eris.Wrapf(err, "postgres: save search vector for %s", providerID)
	}
	return nil
}

// MarkNotified stamps NotifiedAt on the given links, creating missing ones.
func (s *PostgresStore) MarkNotified(ctx context.Context, requestID string, providerIDs []string, at time.Time) (int64, error) {
	if len(providerIDs) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO request_providers (request_id, provider_id, notified_at, created_at)
		 SELECT $1, unnest($2::text[]), $3, $3
		 ON CONFLICT (request_id, provider_id)
		 DO UPDATE SET notified_at = COALESCE(request_providers.notified_at, EXCLUDED.notified_at)`,
		requestID, providerIDs, at)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: mark notified")
	}
	return tag.RowsAffected(), nil
}

// MarkInterested stamps InterestedAt on an existing link, keeping the first
// click date when stamped twice.
func (s *PostgresStore) MarkInterested(ctx context.Context, requestID, providerID string, at time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE request_providers SET interested_at = COALESCE(interested_at, $3)
		 WHERE request_id = $1 AND provider_id = $2`,
		requestID, providerID, at); err != nil {
		return eris.Wrap(err, "postgres: mark interested")
	}
	return nil
}
