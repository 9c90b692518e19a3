package models

// Page is one slice of a larger, already filtered and sorted result set.
type Page[T any] struct {
	Items           []T  `json:"items"`
	PageNumber      int  `json:"page_number"`
	PageSize        int  `json:"page_size"`
	TotalCount      int  `json:"total_count"`
	TotalPages      int  `json:"total_pages"`
	HasPreviousPage bool `json:"has_previous_page"`
	HasNextPage     bool `json:"has_next_page"`
}

// NewPage slices items for the requested page. pageNumber and pageSize must
// already be validated as positive. Pages past the end are empty, however
// large pageNumber is.
func NewPage[T any](items []T, pageNumber, pageSize int) Page[T] {
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := total
	if pageNumber <= totalPages {
		start = (pageNumber - 1) * pageSize
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:           pageItems,
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
	}
}
