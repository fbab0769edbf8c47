// Package nhgis normalizes manually downloaded NHGIS historical state
// tables. NHGIS extracts cannot be fetched programmatically without a
// browser session, so the raw CSVs land in a drop directory and this
// package turns each one into a (NAME, count, state, year) table.
package nhgis

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/geo"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// Known NHGIS source column codes for Puerto Rican-origin counts, by
// decennial dataset. Headers containing "PUERTO" are matched as a fallback.
var knownCountColumns = []string{
	"A35AA", // 1960 ds92: persons of Puerto Rican birth or parentage
	"B18AA", // 1970 ds99
	"C9EAA", // 1980 ds104
}

// Result describes one processed file.
type Result struct {
	Source string
	Output string
	Year   int
	Rows   int
}

// YearFromFilename extracts the census year embedded in an NHGIS filename,
// e.g. "nhgis0011_ds92_1960_state.csv" -> 1960. Returns 0 when absent.
func YearFromFilename(name string) int {
	m := yearRe.FindString(filepath.Base(name))
	if m == "" {
		return 0
	}
	var year int
	for _, c := range m {
		year = year*10 + int(c-'0')
	}
	return year
}

// FindCountColumn locates the Puerto Rican count column in an NHGIS header.
func FindCountColumn(cols []string) (string, bool) {
	for _, c := range cols {
		for _, known := range knownCountColumns {
			if strings.EqualFold(c, known) {
				return c, true
			}
		}
	}
	for _, c := range cols {
		if strings.Contains(strings.ToUpper(c), "PUERTO") {
			return c, true
		}
	}
	return "", false
}

// Normalize converts one raw NHGIS state table into the standard
// (NAME, count, state, year) shape.
func Normalize(raw *table.Table, year int) (*table.Table, error) {
	countCol, ok := FindCountColumn(raw.Columns())
	if !ok {
		return nil, eris.New("nhgis: no Puerto Rican count column found")
	}

	fipsCol := ""
	for _, c := range []string{"STATEA", "STATEFP", "STATEICP"} {
		if raw.HasColumn(c) {
			fipsCol = c
			break
		}
	}
	nameCol := ""
	for _, c := range []string{"STATE", "STATE_NAME", "NAME"} {
		if raw.HasColumn(c) {
			nameCol = c
			break
		}
	}
	if fipsCol == "" && nameCol == "" {
		return nil, eris.New("nhgis: no state identifier column found")
	}

	out := table.New("NAME", "count", "state", "year")
	for i := 0; i < raw.Len(); i++ {
		fips := ""
		if fipsCol != "" {
			fips = geo.NormalizeStateFIPS(raw.Get(i, fipsCol))
		}
		name := ""
		if nameCol != "" {
			name = raw.Get(i, nameCol)
		}
		if name == "" && fips != "" {
			name = geo.StateName(fips)
		}
		count := raw.Get(i, countCol)
		if name == "" || count == "" {
			continue
		}
		out.AppendRow(name, count, fips, table.FormatNumber(float64(year), 0))
	}
	out.SortNumeric("count", true)
	return out, nil
}

// ProcessDir normalizes every raw CSV in rawDir into outDir, one
// nhgis_<year>.csv per input. NHGIS delivers extracts as nhgisNNNN_csv.zip
// bundles with the tables in a subdirectory, so any archives dropped in
// rawDir are expanded first. Files whose output already exists are skipped
// so re-runs only pick up new drops.
func ProcessDir(rawDir, outDir string) ([]Result, error) {
	archives, err := filepath.Glob(filepath.Join(rawDir, "*.zip"))
	if err != nil {
		return nil, eris.Wrapf(err, "nhgis: scan %s", rawDir)
	}
	for _, archive := range archives {
		if _, err := fetcher.ExtractZIP(archive, rawDir); err != nil {
			return nil, eris.Wrapf(err, "nhgis: expand %s", filepath.Base(archive))
		}
	}

	var matches []string
	for _, pattern := range []string{"*.csv", filepath.Join("*", "*.csv")} {
		m, err := filepath.Glob(filepath.Join(rawDir, pattern))
		if err != nil {
			return nil, eris.Wrapf(err, "nhgis: scan %s", rawDir)
		}
		matches = append(matches, m...)
	}
	sort.Strings(matches)

	log := zap.L()
	var results []Result
	for _, src := range matches {
		year := YearFromFilename(src)
		if year == 0 {
			log.Warn("nhgis file has no year in its name, skipping",
				zap.String("file", src))
			continue
		}

		dest := filepath.Join(outDir, table.YearFileName("nhgis", year))
		if _, err := os.Stat(dest); err == nil {
			log.Debug("nhgis output exists, skipping",
				zap.String("file", dest))
			continue
		}

		raw, err := table.ReadCSV(src)
		if err != nil {
			return results, eris.Wrapf(err, "nhgis: read %s", src)
		}
		norm, err := Normalize(raw, year)
		if err != nil {
			return results, eris.Wrapf(err, "nhgis: normalize %s", src)
		}
		if err := norm.WriteCSV(dest); err != nil {
			return results, err
		}

		log.Info("nhgis file processed",
			zap.String("source", filepath.Base(src)),
			zap.Int("year", year),
			zap.Int("rows", norm.Len()),
		)
		results = append(results, Result{Source: src, Output: dest, Year: year, Rows: norm.Len()})
	}
	return results, nil
}
