package ipums

import (
	"context"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
)

// IPUMS USA codes used when filtering microdata.
const (
	// BPLDPuertoRico is the detailed birthplace code for Puerto Rico.
	BPLDPuertoRico = 11000

	// INCTOTMissing and above are INCTOT N/A codes.
	INCTOTMissing = 9999998

	// VALUEHMissing is the VALUEH N/A code.
	VALUEHMissing = 9999999
)

// Person is one rectangular microdata record. Numeric fields absent from the
// extract are NaN so downstream aggregation skips them.
type Person struct {
	Year     int
	StateFIP string
	BPLD     int
	PerWt    float64
	HHWt     float64
	Age      float64
	IncTot   float64
	Rent     float64
	ValueH   float64
	Poverty  float64
	Educ     float64
	EmpStat  float64
	SpeakEng float64
}

// ReadMicrodata reads an IPUMS rectangular CSV extract. Rows stream through
// so multi-year extracts never load twice into memory. Columns are matched
// by header name; extracts need not carry every field.
func ReadMicrodata(ctx context.Context, r io.Reader) ([]Person, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows, errc := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{TrimSpace: true})

	var idx map[string]int
	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	num := func(row []string, name string) float64 {
		v, err := strconv.ParseFloat(cell(row, name), 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	var persons []Person
	for row := range rows {
		if idx == nil {
			idx = make(map[string]int, len(row))
			for i, h := range row {
				idx[h] = i
			}
			if _, ok := idx["BPLD"]; !ok {
				return nil, eris.New("ipums: microdata has no BPLD column")
			}
			continue
		}

		year, _ := strconv.Atoi(cell(row, "YEAR"))
		bpld, _ := strconv.Atoi(cell(row, "BPLD"))
		fip := cell(row, "STATEFIP")
		if len(fip) == 1 {
			fip = "0" + fip
		}

		persons = append(persons, Person{
			Year:     year,
			StateFIP: fip,
			BPLD:     bpld,
			PerWt:    num(row, "PERWT"),
			HHWt:     num(row, "HHWT"),
			Age:      num(row, "AGE"),
			IncTot:   num(row, "INCTOT"),
			Rent:     num(row, "RENT"),
			ValueH:   num(row, "VALUEH"),
			Poverty:  num(row, "POVERTY"),
			Educ:     num(row, "EDUC"),
			EmpStat:  num(row, "EMPSTAT"),
			SpeakEng: num(row, "SPEAKENG"),
		})
	}
	if err := <-errc; err != nil {
		return nil, eris.Wrap(err, "ipums: read microdata")
	}
	if idx == nil {
		return nil, eris.New("ipums: microdata is empty")
	}
	return persons, nil
}

// ReadMicrodataFile reads a microdata CSV from disk.
func ReadMicrodataFile(ctx context.Context, path string) ([]Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ipums: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadMicrodata(ctx, f)
}

// FilterPuertoRicoBorn keeps records whose detailed birthplace is Puerto Rico.
func FilterPuertoRicoBorn(persons []Person) []Person {
	out := make([]Person, 0, len(persons))
	for _, p := range persons {
		if p.BPLD == BPLDPuertoRico {
			out = append(out, p)
		}
	}
	return out
}
