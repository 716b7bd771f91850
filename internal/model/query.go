package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// InterestStatus narrows a request-scoped provider view.
type InterestStatus string

const (
	// InterestAny keeps every provider notified of the request.
	InterestAny InterestStatus = "ANY"
	// InterestInterested keeps only providers that clicked through after
	// notification.
	InterestInterested InterestStatus = "INTERESTED"
)

// RevenueBracket is a half-open revenue interval [Lower, Upper). Either
// bound may be nil (open side).
type RevenueBracket struct {
	Lower *int64 `json:"lower,omitempty"`
	Upper *int64 `json:"upper,omitempty"`
}

// ParseRevenueBracket parses the "lower-upper" wire form used by the search
// UI, e.g. "100000-500000", "-100000" (no lower bound) or "10000000-" (no
// upper bound).
func ParseRevenueBracket(s string) (*RevenueBracket, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return nil, eris.Errorf("model: malformed revenue bracket %q", s)
	}
	var b RevenueBracket
	if parts[0] != "" {
		v, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "model: revenue bracket lower bound %q", parts[0])
		}
		b.Lower = &v
	}
	if parts[1] != "" {
		v, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "model: revenue bracket upper bound %q", parts[1])
		}
		b.Upper = &v
	}
	return &b, nil
}

// Valid reports whether the bracket bounds are coherent.
func (b *RevenueBracket) Valid() bool {
	return b.Lower == nil || b.Upper == nil || *b.Lower <= *b.Upper
}

// SearchQuery is the transient criteria set for a provider search. Every
// field is optional; an absent field is an identity filter, never an
// implicit restriction.
type SearchQuery struct {
	// Text is a free-text query, routed to an identifier prefix match when
	// it is all digits once spaces are stripped.
	Text string `json:"q,omitempty"`

	SectorIDs []string `json:"sectors,omitempty"`

	// ZoneIDs restricts to providers covering at least one of the zones.
	// With exactly one city zone and a positive RadiusKm the search runs in
	// point-radius mode around the zone's reference point; for non-point
	// zones the radius is ignored and plain zone coverage applies.
	ZoneIDs  []string `json:"zones,omitempty"`
	RadiusKm float64  `json:"radius_km,omitempty"`

	Kinds        []ProviderKind `json:"kinds,omitempty"`
	ServiceTypes []ServiceType  `json:"service_types,omitempty"`

	// Territories holds "QPV" and/or "ZRR"; both requested means either
	// flag qualifies.
	Territories []string `json:"territories,omitempty"`

	NetworkIDs []string `json:"networks,omitempty"`
	LegalForms []string `json:"legal_forms,omitempty"`

	// Tri-state presence filters: nil is a no-op.
	HasClientReferences *bool `json:"has_client_references,omitempty"`
	HasGroups           *bool `json:"has_groups,omitempty"`

	Revenue *RevenueBracket `json:"revenue,omitempty"`

	// ClientReferenceName keeps providers with a client reference whose name
	// contains the given string (case-insensitive).
	ClientReferenceName string `json:"client_reference_name,omitempty"`

	// RequestID scopes the search to providers notified of a request;
	// InterestStatus optionally narrows to the interested subset.
	RequestID      string         `json:"request_id,omitempty"`
	InterestStatus InterestStatus `json:"interest_status,omitempty"`

	// SavedListID restricts to members of a saved provider list.
	SavedListID string `json:"saved_list_id,omitempty"`

	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// IdentifierQuery returns the space-stripped text when the query should be
// routed to the identifier prefix match instead of text-similarity scoring.
func (q *SearchQuery) IdentifierQuery() (string, bool) {
	stripped := strings.ReplaceAll(q.Text, " ", "")
	if stripped == "" {
		return "", false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return stripped, true
}

// HasText reports whether a free-text criterion was supplied.
func (q *SearchQuery) HasText() bool { return strings.TrimSpace(q.Text) != "" }
