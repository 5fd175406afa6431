// Package paging holds offset pagination arithmetic and Pager, a
// cancellable state machine that loads one page at a time.
package paging

// HasMore reports whether rows exist past page.  page is 1-based.
func HasMore(page, size int, total int64) bool {
	if page < 1 || size <= 0 {
		return false
	}
	return total > int64(page)*int64(size)
}

// TotalPages returns ceil(total/size), at least 1.
func TotalPages(size int, total int64) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Offset returns the row offset of the first row on page.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

// Config bounds page sizes.
type Config struct {
	DefaultSize int
	MaxSize     int
}

// Effective returns size, or DefaultSize when size is not positive,
// capped at MaxSize.
func (c Config) Effective(size int) int {
	if size <= 0 {
		size = c.DefaultSize
	}
	if c.MaxSize > 0 && size > c.MaxSize {
		size = c.MaxSize
	}
	return size
}
