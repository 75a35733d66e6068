package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	f := Filters{SortSafelist: []string{"id", "name"}}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, "id", f.Sort)

	f = Filters{Page: 3, PageSize: 500}
	f.Normalize()
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, 200, f.Offset())
}

func TestSort(t *testing.T) {
	f := Filters{Sort: "-Year", SortSafelist: []string{"id", "name", "year"}}
	assert.True(t, f.ValidSort())
	assert.Equal(t, "year", f.SortColumn())
	assert.Equal(t, DescSort, f.SortDirection())

	f.Sort = "password"
	assert.False(t, f.ValidSort())
	assert.Panics(t, func() { f.SortColumn() })
}

func TestWindow(t *testing.T) {
	f := Filters{Page: 2, PageSize: 2}
	start, end := f.Window(3)
	assert.Equal(t, 2, start)
	assert.Equal(t, 3, end)

	f.Page = 5
	start, end = f.Window(3)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)
}

func TestCalculateMetadata(t *testing.T) {
	assert.Equal(t, Metadata{}, CalculateMetadata(0, 1, 20))
	assert.Equal(t, Metadata{
		CurrentPage:  2,
		PageSize:     20,
		FirstPage:    1,
		LastPage:     3,
		TotalRecords: 41,
	}, CalculateMetadata(41, 2, 20))
}
