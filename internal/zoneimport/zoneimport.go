// Package zoneimport loads the geographic zone reference data from a YAML
// file and bulk-upserts it into the store. The file is maintained by hand
// (or exported from the national geography registry), so the loader
// validates each record before anything is written.
package zoneimport

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gip-inclusion/directory-cli/internal/geo"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// zoneRecord is the YAML shape of one zone.
type zoneRecord struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Kind           string   `yaml:"kind"`
	Code           string   `yaml:"code"`
	DepartmentCode string   `yaml:"department_code"`
	RegionName     string   `yaml:"region_name"`
	Longitude      *float64 `yaml:"longitude"`
	Latitude       *float64 `yaml:"latitude"`
	PostalCodes    []string `yaml:"postal_codes"`
}

type zoneFile struct {
	Zones []zoneRecord `yaml:"zones"`
}

// LoadFile imports all zones from the given YAML file. Returns the number
// of zones written.
func LoadFile(ctx context.Context, st store.Store, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "zoneimport: open %s", path)
	}
	defer f.Close()
	return Load(ctx, st, f)
}

// Load imports all zones from a YAML stream.
func Load(ctx context.Context, st store.Store, r io.Reader) (int64, error) {
	var file zoneFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return 0, eris.Wrap(err, "zoneimport: decode yaml")
	}

	zones := make([]model.Zone, 0, len(file.Zones))
	for i, rec := range file.Zones {
		z, err := rec.toZone()
		if err != nil {
			return 0, eris.Wrapf(err, "zoneimport: record %d (%s)", i, rec.ID)
		}
		zones = append(zones, z)
	}

	n, err := st.UpsertZones(ctx, zones)
	if err != nil {
		return 0, eris.Wrap(err, "zoneimport: upsert")
	}
	zap.L().Info("zoneimport: zones loaded", zap.Int64("zones", n))
	return n, nil
}

func (r zoneRecord) toZone() (model.Zone, error) {
	kind := model.ZoneKind(r.Kind)
	switch kind {
	case model.ZoneKindCity, model.ZoneKindDepartment, model.ZoneKindRegion:
	default:
		return model.Zone{}, eris.Errorf("zoneimport: unknown zone kind %q", r.Kind)
	}
	if r.ID == "" || r.Name == "" || r.Code == "" {
		return model.Zone{}, eris.New("zoneimport: id, name and code are required")
	}
	if (r.Longitude == nil) != (r.Latitude == nil) {
		return model.Zone{}, eris.New("zoneimport: longitude and latitude must be set together")
	}

	z := model.Zone{
		ID:             r.ID,
		Name:           r.Name,
		Kind:           kind,
		Code:           r.Code,
		DepartmentCode: r.DepartmentCode,
		RegionName:     r.RegionName,
		PostalCodes:    r.PostalCodes,
	}
	if r.Longitude != nil {
		z.ReferencePoint = geo.Point(*r.Longitude, *r.Latitude)
	}

	// Cities anchor point-radius searches, so a missing reference point
	// would silently break distance ranking for every query on this city.
	if kind == model.ZoneKindCity && z.ReferencePoint == nil {
		return model.Zone{}, eris.New("zoneimport: city zones require coordinates")
	}
	return z, nil
}
