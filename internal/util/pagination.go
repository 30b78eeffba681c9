package util

// Page size bounds shared by order history and search listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate clamps a page/size pair onto an offset and limit.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}
