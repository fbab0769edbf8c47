package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectRows drains a stream into a slice, returning the rows and the
// terminal error, if any.
func collectRows(rows <-chan []string, errc <-chan error) ([][]string, error) {
	var out [][]string
	for row := range rows {
		out = append(out, row)
	}
	return out, <-errc
}

func TestStreamCSV_HeaderAndRows(t *testing.T) {
	src := "YEAR,STATEFIP,PERWT\n2019,36,100\n2019,12,250\n"

	rows, errc := StreamCSV(context.Background(), strings.NewReader(src), CSVOptions{})
	got, err := collectRows(rows, errc)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// First record is the header; interpreting it is the caller's job.
	assert.Equal(t, []string{"YEAR", "STATEFIP", "PERWT"}, got[0])
	assert.Equal(t, []string{"2019", "12", "250"}, got[2])
}

func TestStreamCSV_TrimSpaceAndDelimiter(t *testing.T) {
	src := "STATE| COUNT \n New York |1234\n"

	rows, errc := StreamCSV(context.Background(), strings.NewReader(src),
		CSVOptions{Delimiter: '|', TrimSpace: true})
	got, err := collectRows(rows, errc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"New York", "1234"}, got[1])
}

func TestStreamCSV_CommentLines(t *testing.T) {
	src := "# codebook notice\nSTATE,A35AA\nFlorida,99\n"

	rows, errc := StreamCSV(context.Background(), strings.NewReader(src),
		CSVOptions{Comment: '#'})
	got, err := collectRows(rows, errc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "STATE", got[0][0])
}

func TestStreamCSV_VariableFieldCounts(t *testing.T) {
	// Ragged rows pass through rather than erroring; some extracts omit
	// trailing fields.
	src := "a,b,c\n1,2\n"

	rows, errc := StreamCSV(context.Background(), strings.NewReader(src), CSVOptions{})
	got, err := collectRows(rows, errc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[1], 2)
}

func TestStreamCSV_MalformedRecord(t *testing.T) {
	src := "a,b\n\"unterminated,1\n"

	rows, errc := StreamCSV(context.Background(), strings.NewReader(src), CSVOptions{})
	_, err := collectRows(rows, errc)
	assert.ErrorContains(t, err, "read record")
}

func TestStreamCSV_Empty(t *testing.T) {
	rows, errc := StreamCSV(context.Background(), strings.NewReader(""), CSVOptions{})
	got, err := collectRows(rows, errc)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Enough rows to overflow the channel buffer so the sender must block.
	var sb strings.Builder
	for range 200 {
		sb.WriteString("x,y\n")
	}

	rows, errc := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})
	_, err := collectRows(rows, errc)
	assert.ErrorContains(t, err, "cancelled")
}
