// Package store persists providers, zones, requests and their links, and
// exposes the read operations the search engine composes. Two drivers are
// provided: Postgres for production (text scoring pushed into SQL) and
// SQLite for development, where scoring runs in-process.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gip-inclusion/directory-cli/internal/model"
)

var (
	// ErrZoneNotFound is returned when a referenced zone id does not exist.
	// Callers surface it as an invalid query rather than silently dropping
	// the zone, since dropping would change result semantics.
	ErrZoneNotFound = eris.New("store: zone not found")

	// ErrRequestNotFound is returned when a request id does not exist.
	ErrRequestNotFound = eris.New("store: request not found")

	// ErrDuplicateSlug is returned by SaveRequest on a slug collision, so
	// the caller can retry with a suffixed slug.
	ErrDuplicateSlug = eris.New("store: duplicate request slug")
)

// Store is the persistence interface consumed by the engine. All reads
// operate on a read-consistent snapshot at call time; the engine never
// retries on its own, so driver errors propagate unchanged (wrapped with
// context only).
type Store interface {
	// Snapshot returns the full provider corpus.
	Snapshot(ctx context.Context) ([]model.Provider, error)

	// ZonesByID resolves zone ids; any missing id yields ErrZoneNotFound.
	ZonesByID(ctx context.Context, ids []string) (map[string]model.Zone, error)

	// TextScores returns text-similarity scores by provider id for a
	// free-text query. Providers below the match threshold are absent.
	TextScores(ctx context.Context, query string) (map[string]float64, error)

	// IdentifierPrefix returns ids of providers whose registry identifier
	// starts with the given digit string.
	IdentifierPrefix(ctx context.Context, digits string) ([]string, error)

	// RequestLinks returns the notification/interest links of a request.
	RequestLinks(ctx context.Context, requestID string) ([]model.RequestLink, error)

	// SavedListMembers returns the provider ids of a saved list.
	SavedListMembers(ctx context.Context, listID string) ([]string, error)

	GetRequest(ctx context.Context, id string) (*model.Request, error)
	SaveRequest(ctx context.Context, r *model.Request) error

	UpsertProviders(ctx context.Context, providers []model.Provider) (int64, error)
	UpsertZones(ctx context.Context, zones []model.Zone) (int64, error)

	// SaveSearchVector overwrites one provider's search document.
	// Idempotent: recomputing the same provider twice yields the same row.
	SaveSearchVector(ctx context.Context, providerID, document string) error

	// MarkNotified stamps NotifiedAt on the given links, creating them when
	// absent. Already-notified links keep their original timestamp.
	MarkNotified(ctx context.Context, requestID string, providerIDs []string, at time.Time) (int64, error)

	// MarkInterested stamps InterestedAt on an existing link.
	MarkInterested(ctx context.Context, requestID, providerID string, at time.Time) error

	Migrate(ctx context.Context) error
	Close() error
}
