package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/config"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

func TestTimelineFetch(t *testing.T) {
	cfg := &config.Config{}
	cfg.Fetch.DataDir = t.TempDir()

	ds := &Timeline{}
	res, err := ds.Fetch(context.Background(), Deps{Cfg: cfg})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	tbl, err := table.ReadCSV(filepath.Join(cfg.Fetch.DataDir,
		"puerto_rico_disasters", "pr_disaster_timeline.csv"))
	require.NoError(t, err)
	require.Equal(t, len(disasterTimeline), tbl.Len())

	names := map[string]bool{}
	for i := 0; i < tbl.Len(); i++ {
		names[tbl.Get(i, "event_name")] = true
	}
	for _, want := range []string{"Hurricane Maria", "Hurricane Fiona",
		"Puerto Rico Debt Crisis", "2020 Earthquakes"} {
		assert.True(t, names[want], want)
	}

	assert.Equal(t, "2017-09-20", tbl.Get(0, "date"))
	assert.Equal(t, "Category 5", tbl.Get(0, "severity"))
}

func TestTimelineShouldRun(t *testing.T) {
	ds := &Timeline{}
	assert.True(t, ds.ShouldRun(ts(2026, 1, 1), nil))
	last := ts(2025, 1, 1)
	assert.False(t, ds.ShouldRun(ts(2026, 1, 1), &last))
}
