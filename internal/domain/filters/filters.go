package filters

import (
	"errors"
	"math"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Filters struct {
	Page         int      `schema:"page" validate:"gte=0,lte=10000000"`
	PageSize     int      `schema:"page_size" validate:"gte=0,lte=100"`
	Sort         string   `schema:"sort"`
	SortSafelist []string `schema:"-"`
}

// Normalize fills in defaults for absent paging parameters.
func (f *Filters) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Sort == "" && len(f.SortSafelist) > 0 {
		f.Sort = f.SortSafelist[0]
	}
}

// ValidSort reports whether Sort names a safelisted column.
func (f *Filters) ValidSort() bool {
	if f.Sort == "" {
		return true
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, strings.TrimPrefix(safeValue, "-")) {
			return true
		}
	}
	return false
}

func (f *Filters) SortColumn() string {
	if f.Sort == "" {
		return "id"
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		safeValue = strings.TrimPrefix(safeValue, "-")
		if strings.EqualFold(s, safeValue) {
			return safeValue
		}
	}
	panic(errors.New("Unknown sort column: " + f.Sort))
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

func (f *Filters) Limit() int {
	return f.PageSize
}

func (f *Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Window returns the [start, end) bounds of the current page over total items.
func (f *Filters) Window(total int) (start, end int) {
	start = f.Offset()
	if start > total {
		start = total
	}
	end = start + f.Limit()
	if end > total {
		end = total
	}
	return start, end
}

type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records"`
}

func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}

// TitleFilter narrows a title listing. Zero values match everything.
type TitleFilter struct {
	Name     string `schema:"name"`
	Year     int32  `schema:"year" validate:"gte=0"`
	Genre    string `schema:"genre"`
	Category string `schema:"category"`
}
