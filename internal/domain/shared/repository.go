package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Filter is the page, sort and search input of every list query. Filters
// holds per-list keys such as "status" or "category"; repositories ignore
// keys they do not know.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: defaultPageSize, OrderBy: "created_at", OrderDir: "desc", Filters: map[string]any{}}
}

// Limit clamps PageSize to [1, 100]; unset means 20
func (f Filter) Limit() int {
	if f.PageSize < 1 {
		return defaultPageSize
	}
	return min(f.PageSize, maxPageSize)
}

func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.Limit()
}

// Paginated is one page of a list plus the totals the storefront needs to
// render pagination
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
