package model

import "github.com/twpayne/go-geom"

// ZoneKind classifies a geographic zone.
type ZoneKind string

const (
	ZoneKindCity       ZoneKind = "CITY"
	ZoneKindDepartment ZoneKind = "DEPARTMENT"
	ZoneKindRegion     ZoneKind = "REGION"
)

// Zone is a named geographic area referenced by providers and requests.
// Zones are created by the geography import and never deleted; the only
// mutation after creation is a postal-code correction on cities.
type Zone struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind ZoneKind `json:"kind"`

	// Code is unique within a kind: INSEE code for cities and departments,
	// the region code for regions.
	Code string `json:"code"`

	// DepartmentCode and RegionName locate a city or department inside its
	// parents. Cities carry both, departments carry RegionName only.
	DepartmentCode string `json:"department_code,omitempty"`
	RegionName     string `json:"region_name,omitempty"`

	// ReferencePoint is a WGS84 lon/lat point. Required for cities, optional
	// for departments and regions.
	ReferencePoint *geom.Point `json:"-"`

	// PostalCodes is only populated for cities.
	PostalCodes []string `json:"postal_codes,omitempty"`
}

// HasReferencePoint reports whether the zone can anchor a distance
// computation.
func (z *Zone) HasReferencePoint() bool {
	return z.ReferencePoint != nil
}

// HasPostalCode reports whether the given postal code belongs to the zone.
// Always false for non-city zones.
func (z *Zone) HasPostalCode(postalCode string) bool {
	if z.Kind != ZoneKindCity || postalCode == "" {
		return false
	}
	for _, pc := range z.PostalCodes {
		if pc == postalCode {
			return true
		}
	}
	return false
}

// Region returns the region key a provider's RegionName is compared against:
// the zone's own name for regions, the parent region otherwise. Providers
// carry a region name rather than an INSEE region code, so name equality is
// the only comparison available even when the zone also has a Code.
func (z *Zone) Region() string {
	if z.Kind == ZoneKindRegion {
		return z.Name
	}
	return z.RegionName
}

// Department returns the department code a provider's DepartmentCode is
// compared against, or "" when the zone has none (regions).
func (z *Zone) Department() string {
	switch z.Kind {
	case ZoneKindCity:
		return z.DepartmentCode
	case ZoneKindDepartment:
		return z.Code
	default:
		return ""
	}
}
