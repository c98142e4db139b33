package shared

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Catalog sort keys. Anything else falls back to SortByName.
const (
	SortByName     = "name"
	SortByPrice    = "price"
	SortByStock    = "stock"
	SortByCategory = "category"
)

// ListFilters are the query options of catalog list pages.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool
	Category string
}

// Normalize clamps paging, lowercases the sort options and drops unknown sort keys.
func (f ListFilters) Normalize() ListFilters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	switch {
	case f.Limit < 1:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	switch f.SortBy {
	case SortByName, SortByPrice, SortByStock, SortByCategory:
	default:
		f.SortBy = SortByName
	}
	if strings.EqualFold(f.SortDir, SortDesc) {
		f.SortDir = SortDesc
	} else {
		f.SortDir = SortAsc
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	return f
}
