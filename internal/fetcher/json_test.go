package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainArray[T any](out <-chan T, errc <-chan error) ([]T, error) {
	var items []T
	for item := range out {
		items = append(items, item)
	}
	return items, <-errc
}

func TestDecodeJSONArray_RowOriented(t *testing.T) {
	// Census responses are arrays of arrays, header row first.
	src := `[["NAME","B03001_005E","state"],["Florida","1128225","12"],["New York","1024000","36"]]`

	out, errc := DecodeJSONArray[[]*string](context.Background(), strings.NewReader(src))
	rows, err := drainArray(out, errc)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "NAME", *rows[0][0])
	assert.Equal(t, "Florida", *rows[1][0])
	assert.Equal(t, "12", *rows[1][2])
}

func TestDecodeJSONArray_NullElements(t *testing.T) {
	// Suppressed estimates come back as JSON null.
	src := `[["Wyoming",null,"56"]]`

	out, errc := DecodeJSONArray[[]*string](context.Background(), strings.NewReader(src))
	rows, err := drainArray(out, errc)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0][1])
}

func TestDecodeJSONArray_Empty(t *testing.T) {
	out, errc := DecodeJSONArray[[]*string](context.Background(), strings.NewReader(`[]`))
	rows, err := drainArray(out, errc)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeJSONArray_EmptyInput(t *testing.T) {
	out, errc := DecodeJSONArray[[]*string](context.Background(), strings.NewReader(""))
	rows, err := drainArray(out, errc)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeJSONArray_NotAnArray(t *testing.T) {
	src := `{"error":"missing key"}`

	out, errc := DecodeJSONArray[[]*string](context.Background(), strings.NewReader(src))
	_, err := drainArray(out, errc)
	assert.ErrorContains(t, err, "expected '['")
}

func TestDecodeJSONObject(t *testing.T) {
	type observations struct {
		Count int `json:"count"`
		Data  []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}

	src := `{"count":1,"observations":[{"date":"2023-01-01","value":"3.5"}]}`
	obs, err := DecodeJSONObject[observations](strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, obs.Count)
	require.Len(t, obs.Data, 1)
	assert.Equal(t, "3.5", obs.Data[0].Value)
}

func TestDecodeJSONObject_Invalid(t *testing.T) {
	_, err := DecodeJSONObject[struct{}](strings.NewReader("not json"))
	assert.Error(t, err)
}
