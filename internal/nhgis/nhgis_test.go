package nhgis

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

const raw1960 = `GISJOIN,YEAR,STATE,STATEA,A35AA
G360,1960,New York,36,642622
G120,1960,Florida,12,19535
G060,1960,California,6,28108
`

func TestYearFromFilename(t *testing.T) {
	assert.Equal(t, 1960, YearFromFilename("nhgis0011_ds92_1960_state.csv"))
	assert.Equal(t, 2000, YearFromFilename("/data/raw/nhgis_ds146_2000_state.csv"))
	assert.Equal(t, 0, YearFromFilename("notes.csv"))
}

func TestFindCountColumn(t *testing.T) {
	col, ok := FindCountColumn([]string{"GISJOIN", "STATE", "A35AA"})
	require.True(t, ok)
	assert.Equal(t, "A35AA", col)

	col, ok = FindCountColumn([]string{"STATE", "Puerto Rican birth or parentage"})
	require.True(t, ok)
	assert.Equal(t, "Puerto Rican birth or parentage", col)

	_, ok = FindCountColumn([]string{"STATE", "POP100"})
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "nhgis0011_ds92_1960_state.csv")
	require.NoError(t, os.WriteFile(src, []byte(raw1960), 0o644))

	raw, err := table.ReadCSV(src)
	require.NoError(t, err)

	norm, err := Normalize(raw, 1960)
	require.NoError(t, err)
	require.Equal(t, 3, norm.Len())

	// Sorted by count descending, single-digit FIPS zero-padded.
	assert.Equal(t, "New York", norm.Get(0, "NAME"))
	assert.Equal(t, "642622", norm.Get(0, "count"))
	assert.Equal(t, "36", norm.Get(0, "state"))
	assert.Equal(t, "1960", norm.Get(0, "year"))
	assert.Equal(t, "06", norm.Get(1, "state"))
	assert.Empty(t, norm.DuplicateKeys("year", "state"))
}

func TestNormalize_NoCountColumn(t *testing.T) {
	raw := table.New("STATE", "POP100")
	raw.AppendRow("New York", "100")
	_, err := Normalize(raw, 1960)
	assert.ErrorContains(t, err, "count column")
}

func TestProcessDir(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(rawDir, "nhgis0011_ds92_1960_state.csv")
	require.NoError(t, os.WriteFile(src, []byte(raw1960), 0o644))

	results, err := ProcessDir(rawDir, outDir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1960, results[0].Year)
	assert.Equal(t, 3, results[0].Rows)
	assert.FileExists(t, filepath.Join(outDir, "nhgis_1960.csv"))

	// A second pass skips already-processed files.
	results, err = ProcessDir(rawDir, outDir)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessDir_ExpandsArchives(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()

	zipPath := filepath.Join(rawDir, "nhgis0011_csv.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("nhgis0011_csv/nhgis0011_ds92_1960_state.csv")
	require.NoError(t, err)
	_, err = entry.Write([]byte(raw1960))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	results, err := ProcessDir(rawDir, outDir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1960, results[0].Year)
	assert.FileExists(t, filepath.Join(outDir, "nhgis_1960.csv"))
}
