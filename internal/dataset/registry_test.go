package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_AllDatasets(t *testing.T) {
	reg := NewRegistry()

	want := []string{
		"prpop", "prpop_county", "poverty", "housing", "language",
		"commuting", "insurance", "mobility", "occupation", "hispanic",
		"economy", "shapes", "timeline",
	}
	assert.Equal(t, want, reg.AllNames(), "registration order is deterministic")
	assert.Len(t, reg.All(), len(want))
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()

	d, err := reg.Get("economy")
	require.NoError(t, err)
	assert.Equal(t, "economy", d.Name())

	_, err = reg.Get("brokercheck")
	assert.ErrorContains(t, err, "unknown dataset")
}

func TestRegistrySelect(t *testing.T) {
	reg := NewRegistry()

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(reg.AllNames()))

	some, err := reg.Select([]string{"housing", "prpop"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "housing", some[0].Name())
	assert.Equal(t, "prpop", some[1].Name())
}
