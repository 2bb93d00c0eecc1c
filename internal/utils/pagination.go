// Package utils provides small helpers shared by the HTTP layer. Nothing in
// here knows about medications; it is plumbing for query-string handling.
package utils

import "strconv"

// IntOrDefault parses s as an int, returning def when s is empty or not a
// plain base-10 integer. Query values arrive untrimmed and whitespace is not
// accepted, so " 42" falls back to the default.
func IntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage normalizes raw page and page_size query values for paginated
// listings such as the dose history. Pages are 1-based and sizes are bounded
// to [1, maxSize]; unparsable values fall back to page 1 and defSize.
func ClampPage(pageRaw, sizeRaw string, defSize, maxSize int) (page, size int) {
	page = IntOrDefault(pageRaw, 1)
	if page < 1 {
		page = 1
	}
	size = IntOrDefault(sizeRaw, defSize)
	if size < 1 {
		size = 1
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}
