package application

// Pagination defaults for section listings.
const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// PageInfo describes one page of a section.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// Page returns the 1-based page of items. Out-of-range pages are empty;
// page and perPage are clamped to sane values.
func Page[T any](items []T, page, perPage int) ([]T, PageInfo) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page <= 0 {
		page = 1
	}

	info := PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      len(items),
		TotalPages: (len(items) + perPage - 1) / perPage,
	}

	if page > info.TotalPages {
		return []T{}, info
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], info
}
