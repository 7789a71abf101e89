// Package report renders plan quality reports. The splits report lists every
// geounit straddling district boundaries at a geolevel, written out as a
// spreadsheet for the mapping staff.
package report

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

// SplitsReport is a snapshot of split geounits for one plan version.
type SplitsReport struct {
	Plan     string
	Geolevel int
	Version  int
	Splits   []districtmapping.Split
}

// BuildSplits queries the split geounits at the given geolevel and version
// and returns them sorted by unit name for stable output.
func BuildSplits(ctx context.Context, svc districtmapping.Client, plan string, geolevel, version int) (*SplitsReport, error) {
	splits, err := svc.QuerySplits(ctx, geolevel, version)
	if err != nil {
		return nil, eris.Wrap(err, "report: query splits")
	}

	// Collated sort so "Tract 2" precedes "Tract 10".
	c := collate.New(language.English, collate.Numeric)
	sort.SliceStable(splits, func(i, j int) bool {
		if cmp := c.CompareString(splits[i].Name, splits[j].Name); cmp != 0 {
			return cmp < 0
		}
		return splits[i].UnitID < splits[j].UnitID
	})

	return &SplitsReport{Plan: plan, Geolevel: geolevel, Version: version, Splits: splits}, nil
}

var splitsHeader = []string{"Geounit ID", "Name", "Districts", "District Count"}

// WriteXLSX writes the report to an xlsx workbook at path.
func (r *SplitsReport) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Splits")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range splitsHeader {
		header.AddCell().Value = h
	}

	for _, s := range r.Splits {
		row := sheet.AddRow()
		row.AddCell().Value = s.UnitID
		row.AddCell().Value = s.Name
		row.AddCell().Value = joinDistricts(s.Districts)
		row.AddCell().SetInt(len(s.Districts))
	}

	meta, err := f.AddSheet("Plan")
	if err != nil {
		return eris.Wrap(err, "report: add meta sheet")
	}
	for _, kv := range [][2]string{
		{"Plan", r.Plan},
		{"Geolevel", strconv.Itoa(r.Geolevel)},
		{"Version", strconv.Itoa(r.Version)},
		{"Split geounits", strconv.Itoa(len(r.Splits))},
	} {
		row := meta.AddRow()
		row.AddCell().Value = kv[0]
		row.AddCell().Value = kv[1]
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func joinDistricts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		if id == districtmapping.UnassignedDistrictID {
			parts[i] = "Unassigned"
			continue
		}
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
