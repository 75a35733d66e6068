package decoder

import (
	"net/url"
	"testing"

	"yamdb/proj/internal/domain/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	d := New()
	query := url.Values{
		"page":      {"2"},
		"page_size": {"5"},
		"sort":      {"-year"},
		"genre":     {"drama"},
		"year":      {"1999"},
		"unknown":   {"ignored"},
	}

	var f filters.Filters
	require.NoError(t, d.Decode(&f, query))
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 5, f.PageSize)
	assert.Equal(t, "-year", f.Sort)

	var tf filters.TitleFilter
	require.NoError(t, d.Decode(&tf, query))
	assert.Equal(t, "drama", tf.Genre)
	assert.Equal(t, int32(1999), tf.Year)
}

func TestFieldErrors(t *testing.T) {
	d := New()
	var f filters.Filters
	err := d.Decode(&f, url.Values{"page": {"first"}})
	require.Error(t, err)
	errs := FieldErrors(err)
	assert.Equal(t, "Value has an invalid format", errs["page"])
}
