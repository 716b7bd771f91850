// Package export serializes ranked search results to CSV and XLSX for
// download by buyers.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gip-inclusion/directory-cli/internal/model"
)

// Row is one exported result: a provider plus its ranking signals.
type Row struct {
	Provider   model.Provider
	Score      float64
	DistanceKm *float64
}

var header = []string{
	"id", "name", "brand", "siret", "kind", "service_types",
	"postal_code", "department", "region", "sectors",
	"revenue", "score", "distance_km",
}

func (r *Row) record() []string {
	p := &r.Provider
	revenue := ""
	if v := p.AuthoritativeRevenue(); v != nil {
		revenue = strconv.FormatInt(*v, 10)
	}
	distance := ""
	if r.DistanceKm != nil {
		distance = strconv.FormatFloat(*r.DistanceKm, 'f', 1, 64)
	}
	types := make([]string, len(p.ServiceTypes))
	for i, t := range p.ServiceTypes {
		types[i] = string(t)
	}
	return []string{
		p.ID, p.Name, p.Brand, p.SIRET, string(p.Kind), strings.Join(types, "|"),
		p.PostalCode, p.DepartmentCode, p.RegionName, strings.Join(p.Sectors, "|"),
		revenue, strconv.FormatFloat(r.Score, 'f', 4, 64), distance,
	}
}

// CSV writes the rows as a CSV document with a header line.
func CSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i := range rows {
		if err := cw.Write(rows[i].record()); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", rows[i].Provider.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// XLSX writes the rows as a single-sheet XLSX workbook.
func XLSX(w io.Writer, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("providers")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, col := range header {
		hr.AddCell().SetString(col)
	}
	for i := range rows {
		row := sheet.AddRow()
		for _, cell := range rows[i].record() {
			row.AddCell().SetString(cell)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
