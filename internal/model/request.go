package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrAmbiguousTarget is returned when more than one target-specification
// mode is set on a request. This is a data-invariant violation: requests are
// validated at creation time, so hitting this later is a logic error.
var ErrAmbiguousTarget = eris.New("model: ambiguous request target specification")

// TargetMode identifies which geographic target specification a request
// carries.
type TargetMode int

const (
	// TargetCountry: the request is nationwide; only COUNTRY-policy
	// providers are compatible.
	TargetCountry TargetMode = iota
	// TargetZones: an explicit zone list, optionally widened with
	// IncludeCountryArea.
	TargetZones
	// TargetRadius: a single zone plus a distance, evaluated as a
	// point-radius search around the zone's reference point.
	TargetRadius
)

// Request is a buyer-published procurement need.
type Request struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`

	// RequiredSectors is never empty for a persisted request.
	RequiredSectors []string `json:"required_sectors"`

	// Empty means "any".
	AllowedProviderKinds []ProviderKind `json:"allowed_provider_kinds,omitempty"`
	AllowedServiceTypes  []ServiceType  `json:"allowed_service_types,omitempty"`

	// Target specification: exactly one mode is active, see TargetMode.
	IsCountryArea      bool     `json:"is_country_area"`
	ZoneIDs            []string `json:"zone_ids,omitempty"`
	IncludeCountryArea bool     `json:"include_country_area"`
	DistanceKm         *float64 `json:"distance_km,omitempty"`

	DeadlineDate time.Time  `json:"deadline_date"`
	AuthorID     string     `json:"author_id"`
	CompanyName  string     `json:"company_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ValidatedAt  *time.Time `json:"validated_at,omitempty"`
}

// TargetMode resolves which target-specification mode is active, failing on
// ambiguous or empty specifications.
func (r *Request) TargetMode() (TargetMode, error) {
	switch {
	case r.IsCountryArea:
		if len(r.ZoneIDs) > 0 || r.DistanceKm != nil {
			return 0, eris.Wrapf(ErrAmbiguousTarget, "request %s: country area combined with zones", r.ID)
		}
		return TargetCountry, nil
	case r.DistanceKm != nil:
		if len(r.ZoneIDs) != 1 {
			return 0, eris.Wrapf(ErrAmbiguousTarget, "request %s: distance requires exactly one zone, got %d", r.ID, len(r.ZoneIDs))
		}
		return TargetRadius, nil
	case len(r.ZoneIDs) > 0:
		return TargetZones, nil
	default:
		return 0, eris.Wrapf(ErrAmbiguousTarget, "request %s: no target specification", r.ID)
	}
}

// RequestLink tracks the relation between a request and a provider it was
// matched with: when the provider was notified and when it expressed
// interest.
type RequestLink struct {
	RequestID    string     `json:"request_id"`
	ProviderID   string     `json:"provider_id"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	InterestedAt *time.Time `json:"interested_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Notified reports whether the provider has been notified of the request.
func (l *RequestLink) Notified() bool { return l.NotifiedAt != nil }

// Interested reports whether the provider expressed interest after
// notification.
func (l *RequestLink) Interested() bool { return l.InterestedAt != nil }
