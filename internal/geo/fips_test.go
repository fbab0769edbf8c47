package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateName(t *testing.T) {
	assert.Equal(t, "New York", StateName("36"))
	assert.Equal(t, "Puerto Rico", StateName("72"))
	assert.Equal(t, "Alabama", StateName("1"), "single-digit codes are zero-padded")
	assert.Equal(t, "", StateName("99"))
}

func TestStateAbbrev(t *testing.T) {
	assert.Equal(t, "FL", StateAbbrev("Florida"))
	assert.Equal(t, "PR", StateAbbrev("Puerto Rico"))
	assert.Equal(t, "DC", StateAbbrev("District of Columbia"))
	assert.Equal(t, "", StateAbbrev("Guam"))
}

func TestNormalizeFIPS(t *testing.T) {
	assert.Equal(t, "06", NormalizeStateFIPS("6"))
	assert.Equal(t, "36", NormalizeStateFIPS(" 36 "))
	assert.Equal(t, "", NormalizeStateFIPS(""))

	assert.Equal(t, "001", NormalizeCountyFIPS("1"))
	assert.Equal(t, "061", NormalizeCountyFIPS("61"))
	assert.Equal(t, "153", NormalizeCountyFIPS("153"))
}

func TestCombineFIPS(t *testing.T) {
	assert.Equal(t, "36061", CombineFIPS("36", "61"))
	assert.Equal(t, "06037", CombineFIPS("6", "37"))
	assert.Equal(t, "", CombineFIPS("", "061"))
}

func TestFormatFIPS(t *testing.T) {
	assert.Equal(t, "04", FormatFIPS(4, 2))
	assert.Equal(t, "36061", FormatFIPS(36061, 5))
}

func TestStateFIPSCodes_SortedAndComplete(t *testing.T) {
	codes := StateFIPSCodes()
	assert.Len(t, codes, 52) // 50 states + DC + PR
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}
}
