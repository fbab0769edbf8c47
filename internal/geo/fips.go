// Package geo provides state/county FIPS code handling and county centroid
// computation for chart placement.
package geo

import (
	"fmt"
	"sort"
	"strings"
)

// stateNames maps 2-digit state FIPS codes to state names. Includes the
// District of Columbia and Puerto Rico (72).
var stateNames = map[string]string{
	"01": "Alabama", "02": "Alaska", "04": "Arizona", "05": "Arkansas",
	"06": "California", "08": "Colorado", "09": "Connecticut", "10": "Delaware",
	"11": "District of Columbia", "12": "Florida", "13": "Georgia", "15": "Hawaii",
	"16": "Idaho", "17": "Illinois", "18": "Indiana", "19": "Iowa",
	"20": "Kansas", "21": "Kentucky", "22": "Louisiana", "23": "Maine",
	"24": "Maryland", "25": "Massachusetts", "26": "Michigan", "27": "Minnesota",
	"28": "Mississippi", "29": "Missouri", "30": "Montana", "31": "Nebraska",
	"32": "Nevada", "33": "New Hampshire", "34": "New Jersey", "35": "New Mexico",
	"36": "New York", "37": "North Carolina", "38": "North Dakota", "39": "Ohio",
	"40": "Oklahoma", "41": "Oregon", "42": "Pennsylvania", "44": "Rhode Island",
	"45": "South Carolina", "46": "South Dakota", "47": "Tennessee", "48": "Texas",
	"49": "Utah", "50": "Vermont", "51": "Virginia", "53": "Washington",
	"54": "West Virginia", "55": "Wisconsin", "56": "Wyoming", "72": "Puerto Rico",
}

// stateAbbrevs maps state names to USPS abbreviations.
var stateAbbrevs = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"District of Columbia": "DC", "Florida": "FL", "Georgia": "GA", "Hawaii": "HI",
	"Idaho": "ID", "Illinois": "IL", "Indiana": "IN", "Iowa": "IA",
	"Kansas": "KS", "Kentucky": "KY", "Louisiana": "LA", "Maine": "ME",
	"Maryland": "MD", "Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN",
	"Mississippi": "MS", "Missouri": "MO", "Montana": "MT", "Nebraska": "NE",
	"Nevada": "NV", "New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM",
	"New York": "NY", "North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH",
	"Oklahoma": "OK", "Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI",
	"South Carolina": "SC", "South Dakota": "SD", "Tennessee": "TN", "Texas": "TX",
	"Utah": "UT", "Vermont": "VT", "Virginia": "VA", "Washington": "WA",
	"West Virginia": "WV", "Wisconsin": "WI", "Wyoming": "WY", "Puerto Rico": "PR",
}

// PuertoRicoFIPS is the state FIPS code for Puerto Rico.
const PuertoRicoFIPS = "72"

// StateName returns the state name for a 2-digit FIPS code, or "" if unknown.
func StateName(fips string) string {
	return stateNames[NormalizeStateFIPS(fips)]
}

// StateAbbrev returns the USPS abbreviation for a state name, or "" if unknown.
func StateAbbrev(name string) string {
	return stateAbbrevs[strings.TrimSpace(name)]
}

// StateFIPSCodes returns all known state FIPS codes in ascending order.
func StateFIPSCodes() []string {
	codes := make([]string, 0, len(stateNames))
	for code := range stateNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeStateFIPS normalizes a state FIPS code to 2 digits with zero-padding.
func NormalizeStateFIPS(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// NormalizeCountyFIPS normalizes a county FIPS code to 3 digits with zero-padding.
func NormalizeCountyFIPS(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}

// CombineFIPS combines state and county FIPS codes into a 5-digit GEOID.
func CombineFIPS(state, county string) string {
	s := NormalizeStateFIPS(state)
	c := NormalizeCountyFIPS(county)
	if s == "" || c == "" {
		return ""
	}
	return s + c
}

// FormatFIPS formats a numeric FIPS code with proper zero-padding.
func FormatFIPS(code int, digits int) string {
	return fmt.Sprintf("%0*d", digits, code)
}
