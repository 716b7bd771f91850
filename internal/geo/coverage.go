package geo

import "github.com/gip-inclusion/directory-cli/internal/model"

// CoversZone reports whether the provider's coverage policy reaches the
// given zone.
//
//   - COUNTRY covers everything.
//   - REGION covers targets in the provider's region.
//   - DEPARTMENT covers targets in the provider's department (regions have
//     no department, so a department-bound provider never covers a region).
//   - CUSTOM covers targets within the provider's own radius of the zone's
//     reference point, with the same-city shortcut below.
//
// Same-city shortcut: when the target is a city and the provider's postal
// code belongs to it, distance is treated as zero without a geodesic
// computation. Geocoding inside a single city is too imprecise to let a
// small radius exclude a provider from its own city.
func CoversZone(p *model.Provider, z *model.Zone) bool {
	return covers(p, z, p.CustomRadiusKm)
}

// CoversRadius reports whether the provider covers a point-radius target
// anchored on the given zone's reference point. In point-radius mode the
// caller's radius is authoritative for CUSTOM-policy providers: "within N
// km of this point" means N km, not the provider's own declared radius.
func CoversRadius(p *model.Provider, z *model.Zone, radiusKm float64) bool {
	return covers(p, z, radiusKm)
}

func covers(p *model.Provider, z *model.Zone, radiusKm float64) bool {
	switch p.CoveragePolicy {
	case model.CoverageCountry:
		return true
	case model.CoverageRegion:
		return z.Region() != "" && p.RegionName == z.Region()
	case model.CoverageDepartment:
		return z.Department() != "" && p.DepartmentCode == z.Department()
	case model.CoverageCustom:
		if z.HasPostalCode(p.PostalCode) {
			return true
		}
		// Fails closed: no coordinates on either side means no coverage.
		if p.Coordinates == nil || !z.HasReferencePoint() {
			return false
		}
		return HaversineKM(p.Coordinates, z.ReferencePoint) <= radiusKm
	default:
		return false
	}
}

// DistanceKM returns the ranking distance between a provider and a zone:
// zero via the same-city shortcut, the haversine distance otherwise. The
// second return is false when no distance can be computed (missing
// coordinates or reference point); such providers sort after all measurable
// ones.
func DistanceKM(p *model.Provider, z *model.Zone) (float64, bool) {
	if z.HasPostalCode(p.PostalCode) {
		return 0, true
	}
	if p.Coordinates == nil || !z.HasReferencePoint() {
		return 0, false
	}
	return HaversineKM(p.Coordinates, z.ReferencePoint), true
}
