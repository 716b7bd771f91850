package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// CoveragePolicy is a provider's declared rule for which geographic targets
// it services.
type CoveragePolicy string

const (
	CoverageCountry    CoveragePolicy = "COUNTRY"
	CoverageRegion     CoveragePolicy = "REGION"
	CoverageDepartment CoveragePolicy = "DEPARTMENT"
	CoverageCustom     CoveragePolicy = "CUSTOM"
)

// ProviderKind is the category of an inclusive provider.
type ProviderKind string

const (
	KindEI   ProviderKind = "EI"   // insertion enterprise
	KindAI   ProviderKind = "AI"   // intermediary association
	KindACI  ProviderKind = "ACI"  // integration workshop
	KindETTI ProviderKind = "ETTI" // temp-work integration enterprise
	KindEITI ProviderKind = "EITI" // self-employed integration enterprise
	KindGEIQ ProviderKind = "GEIQ" // employer group
	KindEA   ProviderKind = "EA"   // adapted enterprise
	KindESAT ProviderKind = "ESAT" // sheltered work establishment
	KindSEP  ProviderKind = "SEP"  // penitentiary work service
)

// ServiceType describes how a provider delivers its services.
type ServiceType string

const (
	ServiceDisp  ServiceType = "DISP"  // staff provision
	ServicePrest ServiceType = "PREST" // service delivery
	ServiceBuild ServiceType = "BUILD" // goods production
)

// Provider is a directory listing. Geography is denormalized onto the row
// (postal code, department code, region name) so compatibility checks are
// value comparisons, not joins.
type Provider struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand,omitempty"`
	SIRET       string `json:"siret"`
	Description string `json:"description,omitempty"`

	Kind         ProviderKind  `json:"kind"`
	ServiceTypes []ServiceType `json:"service_types"`
	LegalForm    string        `json:"legal_form,omitempty"`
	Sectors      []string      `json:"sectors"`
	NetworkIDs   []string      `json:"network_ids,omitempty"`

	PostalCode     string `json:"postal_code"`
	DepartmentCode string `json:"department_code"`
	RegionName     string `json:"region_name"`

	// Coordinates is a WGS84 lon/lat point maintained by the external
	// geocoding sync. Nil when the address never geocoded.
	Coordinates *geom.Point `json:"-"`

	CoveragePolicy CoveragePolicy `json:"coverage_policy"`
	// CustomRadiusKm is only meaningful when CoveragePolicy is CUSTOM.
	CustomRadiusKm float64 `json:"custom_radius_km,omitempty"`

	// Territory flags maintained by the external registry sync.
	IsQPV bool `json:"is_qpv"`
	IsZRR bool `json:"is_zrr"`

	// Revenue figures: self-declared by the provider, or fetched from the
	// national registry API. See AuthoritativeRevenue.
	SelfDeclaredRevenue     *int64 `json:"self_declared_revenue,omitempty"`
	ExternalRegistryRevenue *int64 `json:"external_registry_revenue,omitempty"`

	// Profile-completeness counters, denormalized on save.
	OfferCount           int `json:"offer_count"`
	ClientReferenceCount int `json:"client_reference_count"`
	GroupCount           int `json:"group_count"`
	LinkedUserCount      int `json:"linked_user_count"`

	// Source fields for the search vector.
	OfferNames           []string `json:"offer_names,omitempty"`
	LabelNames           []string `json:"label_names,omitempty"`
	ClientReferenceNames []string `json:"client_reference_names,omitempty"`

	// SearchVector is the precomputed text-search document, rebuilt on every
	// save that touches an indexed field (see the reindex operation).
	SearchVector string `json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// AuthoritativeRevenue resolves the revenue figure used for bracket
// filtering: the self-declared value when present and positive, else the
// registry value when present and positive, else nil.
func (p *Provider) AuthoritativeRevenue() *int64 {
	if p.SelfDeclaredRevenue != nil && *p.SelfDeclaredRevenue > 0 {
		return p.SelfDeclaredRevenue
	}
	if p.ExternalRegistryRevenue != nil && *p.ExternalRegistryRevenue > 0 {
		return p.ExternalRegistryRevenue
	}
	return nil
}

// HasDescription reports whether the provider filled in a description.
func (p *Provider) HasDescription() bool { return p.Description != "" }

// HasOffer reports whether the provider published at least one commercial
// offer.
func (p *Provider) HasOffer() bool { return p.OfferCount >= 1 }

// HasUser reports whether at least one user account is linked to the
// provider.
func (p *Provider) HasUser() bool { return p.LinkedUserCount >= 1 }
