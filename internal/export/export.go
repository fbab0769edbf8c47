// Package export bundles the fetched CSV tables into a single XLSX
// workbook, one sheet per dataset.
package export

import (
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

type sheetSpec struct {
	name    string
	dir     string
	pattern string
}

// sheets maps workbook sheets to dataset outputs. Sheet names stay under
// the 31 character XLSX limit.
var sheets = []sheetSpec{
	{"population", "census_acs5", "prpop_*.csv"},
	{"population_county", "census_acs5_county", "prpop_county_*.csv"},
	{"poverty", "census_acs5_poverty", "poverty_*.csv"},
	{"housing", "census_acs5_housing", "housing_*.csv"},
	{"language", "census_acs5_language", "language_*.csv"},
	{"commuting", "census_acs5_commuting", "commuting_*.csv"},
	{"health_insurance", "census_acs5_health_insurance", "insurance_*.csv"},
	{"migration", "census_acs5_migration", "mobility_*.csv"},
	{"occupation", "census_acs5_occupation_industry", "occupation_*.csv"},
	{"industry", "census_acs5_occupation_industry", "industry_*.csv"},
	{"hispanic_poverty", "census_acs5_hispanic_comparison", "hispanic_poverty_*.csv"},
	{"hispanic_housing", "census_acs5_hispanic_comparison", "hispanic_rent_*.csv"},
	{"hispanic_insurance", "census_acs5_hispanic_comparison", "hispanic_insurance_*.csv"},
	{"economy", "puerto_rico_economic", "pr_economic_indicators.csv"},
	{"disasters", "puerto_rico_disasters", "pr_disaster_timeline.csv"},
	{"nhgis", "nhgis", "nhgis_*.csv"},
}

// textColumns hold identifiers whose leading zeros must survive the trip
// through a spreadsheet.
var textColumns = map[string]bool{
	"state":  true,
	"county": true,
	"GEOID":  true,
	"date":   true,
}

// Workbook writes every fetched dataset into an XLSX workbook at outPath
// and returns the number of sheets written. Datasets that have not been
// fetched are left out; a workbook with zero sheets is an error.
func Workbook(dataDir, outPath string) (int, error) {
	log := zap.L().Named("export")
	file := xlsx.NewFile()

	var added int
	for _, s := range sheets {
		glob := filepath.Join(dataDir, s.dir, s.pattern)
		tbl, err := table.ReadGlob(glob)
		if err != nil {
			return 0, eris.Wrapf(err, "export: %s", s.name)
		}
		if tbl == nil || tbl.Len() == 0 {
			log.Debug("dataset not fetched, sheet skipped", zap.String("sheet", s.name))
			continue
		}
		if err := addSheet(file, s.name, tbl); err != nil {
			return 0, err
		}
		added++
		log.Info("sheet written", zap.String("sheet", s.name), zap.Int("rows", tbl.Len()))
	}
	if added == 0 {
		return 0, eris.New("export: no fetched datasets to export")
	}

	if err := file.Save(outPath); err != nil {
		return 0, eris.Wrap(err, "export: save workbook")
	}
	return added, nil
}

func addSheet(file *xlsx.File, name string, tbl *table.Table) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, col := range tbl.Columns() {
		header.AddCell().SetString(col)
	}

	for i := 0; i < tbl.Len(); i++ {
		row := sheet.AddRow()
		for _, col := range tbl.Columns() {
			cell := row.AddCell()
			raw := tbl.Get(i, col)
			if textColumns[col] {
				cell.SetString(raw)
				continue
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				cell.SetFloat(v)
				continue
			}
			cell.SetString(raw)
		}
	}
	return nil
}
