package ipums

import (
	"math"
	"sort"

	"github.com/marin-lab/diaspora-cli/internal/geo"
	"github.com/marin-lab/diaspora-cli/internal/stats"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// IPUMS EDUC general codes.
const (
	educHighSchool = 6  // grade 12
	educBachelors  = 10 // 4 years of college
)

// IPUMS EMPSTAT codes.
const (
	empEmployed   = 1
	empUnemployed = 2
)

// IPUMS SPEAKENG codes.
const (
	speakNone    = 1 // does not speak English
	speakOnly    = 3 // speaks only English
	speakNotWell = 6
)

// byState groups the given year's persons by state FIPS, dropping records
// without one. Multi-sample extracts carry several years in one file, so
// records from other years must not leak into a year's aggregation.
func byState(persons []Person, year int) map[string][]Person {
	groups := make(map[string][]Person)
	for _, p := range persons {
		if p.Year != year || p.StateFIP == "" {
			continue
		}
		groups[p.StateFIP] = append(groups[p.StateFIP], p)
	}
	return groups
}

func sortedFIPS(groups map[string][]Person) []string {
	fips := make([]string, 0, len(groups))
	for f := range groups {
		fips = append(fips, f)
	}
	sort.Strings(fips)
	return fips
}

// PopulationByState sums person weights per state of residence, one row per
// state, sorted by population descending.
func PopulationByState(persons []Person, year int) *table.Table {
	groups := byState(persons, year)
	t := table.New("NAME", "state", "year", "population")
	for _, fip := range sortedFIPS(groups) {
		var total float64
		for _, p := range groups[fip] {
			if !math.IsNaN(p.PerWt) {
				total += p.PerWt
			}
		}
		t.AppendRow(geo.StateName(fip), fip, table.FormatNumber(float64(year), 0),
			table.FormatNumber(total, 0))
	}
	t.SortNumeric("population", true)
	return t
}

// IncomeByState computes weighted median and mean personal income per state
// for persons 15 and older, excluding the INCTOT missing codes.
func IncomeByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"median_income", "mean_income"},
		func(ps []Person) []float64 {
			var vals, wts []float64
			for _, p := range ps {
				if p.Age >= 15 && p.IncTot < INCTOTMissing {
					vals = append(vals, p.IncTot)
					wts = append(wts, p.PerWt)
				}
			}
			return []float64{
				stats.WeightedMedian(vals, wts),
				stats.WeightedMean(vals, wts),
			}
		})
}

// PovertyByState computes the share of persons below the poverty line.
// POVERTY is income as a percent of the threshold; 0 means not determined.
func PovertyByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"poverty_rate"},
		func(ps []Person) []float64 {
			var below, total float64
			for _, p := range ps {
				if math.IsNaN(p.Poverty) || p.Poverty <= 0 || math.IsNaN(p.PerWt) {
					continue
				}
				total += p.PerWt
				if p.Poverty <= 100 {
					below += p.PerWt
				}
			}
			return []float64{stats.RoundRate(stats.Rate(below, total))}
		})
}

// HousingByState computes household-weighted median gross rent and home value.
func HousingByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"median_rent", "median_home_value"},
		func(ps []Person) []float64 {
			var rents, rentWts, values, valueWts []float64
			for _, p := range ps {
				if p.Rent > 0 {
					rents = append(rents, p.Rent)
					rentWts = append(rentWts, p.HHWt)
				}
				if p.ValueH > 0 && p.ValueH < VALUEHMissing {
					values = append(values, p.ValueH)
					valueWts = append(valueWts, p.HHWt)
				}
			}
			return []float64{
				stats.WeightedMedian(rents, rentWts),
				stats.WeightedMedian(values, valueWts),
			}
		})
}

// EducationByState computes attainment rates among adults 25 and older.
func EducationByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"high_school_rate", "bachelors_rate"},
		func(ps []Person) []float64 {
			var hs, ba, adults float64
			for _, p := range ps {
				if p.Age < 25 || math.IsNaN(p.Educ) || math.IsNaN(p.PerWt) {
					continue
				}
				adults += p.PerWt
				if p.Educ >= educHighSchool {
					hs += p.PerWt
				}
				if p.Educ >= educBachelors {
					ba += p.PerWt
				}
			}
			return []float64{
				stats.RoundRate(stats.Rate(hs, adults)),
				stats.RoundRate(stats.Rate(ba, adults)),
			}
		})
}

// EmploymentByState computes the unemployment rate and labor force
// participation among persons 16 and older.
func EmploymentByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"unemployment_rate", "labor_force_participation"},
		func(ps []Person) []float64 {
			var unemployed, laborForce, adults float64
			for _, p := range ps {
				if p.Age < 16 || math.IsNaN(p.EmpStat) || math.IsNaN(p.PerWt) {
					continue
				}
				adults += p.PerWt
				switch int(p.EmpStat) {
				case empEmployed:
					laborForce += p.PerWt
				case empUnemployed:
					laborForce += p.PerWt
					unemployed += p.PerWt
				}
			}
			return []float64{
				stats.RoundRate(stats.Rate(unemployed, laborForce)),
				stats.RoundRate(stats.Rate(laborForce, adults)),
			}
		})
}

// LanguageByState computes English-only and limited-English rates among
// persons 5 and older with a reported SPEAKENG code.
func LanguageByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"english_only_rate", "limited_english_rate"},
		func(ps []Person) []float64 {
			var only, limited, total float64
			for _, p := range ps {
				if p.Age < 5 || math.IsNaN(p.SpeakEng) || p.SpeakEng <= 0 || math.IsNaN(p.PerWt) {
					continue
				}
				total += p.PerWt
				switch int(p.SpeakEng) {
				case speakOnly:
					only += p.PerWt
				case speakNone, speakNotWell:
					limited += p.PerWt
				}
			}
			return []float64{
				stats.RoundRate(stats.Rate(only, total)),
				stats.RoundRate(stats.Rate(limited, total)),
			}
		})
}

// AgeByState computes the weighted median age per state.
func AgeByState(persons []Person, year int) *table.Table {
	return topicByState(persons, year, []string{"median_age"},
		func(ps []Person) []float64 {
			var ages, wts []float64
			for _, p := range ps {
				ages = append(ages, p.Age)
				wts = append(wts, p.PerWt)
			}
			return []float64{stats.WeightedMedian(ages, wts)}
		})
}

// TopicTables maps topic names to their state aggregation, in output order.
func TopicTables(persons []Person, year int) map[string]*table.Table {
	return map[string]*table.Table{
		"population": PopulationByState(persons, year),
		"income":     IncomeByState(persons, year),
		"poverty":    PovertyByState(persons, year),
		"housing":    HousingByState(persons, year),
		"education":  EducationByState(persons, year),
		"employment": EmploymentByState(persons, year),
		"language":   LanguageByState(persons, year),
		"age":        AgeByState(persons, year),
	}
}

func topicByState(persons []Person, year int, cols []string, agg func([]Person) []float64) *table.Table {
	groups := byState(persons, year)
	t := table.New(append([]string{"NAME", "state", "year"}, cols...)...)
	for _, fip := range sortedFIPS(groups) {
		vals := agg(groups[fip])
		row := []string{geo.StateName(fip), fip, table.FormatNumber(float64(year), 0)}
		for _, v := range vals {
			row = append(row, table.FormatNumber(v, 2))
		}
		t.AppendRow(row...)
	}
	return t
}
