package engine

// DefaultMaxReturnNum is the pagination cap applied when a backend is not
// configured with api_configuration.max_returned_num.
const DefaultMaxReturnNum = 80

// ClampLimit returns the effective page size: requested, capped at max,
// and defaulted to max when the caller did not specify one (requested <= 0).
func ClampLimit(requested, max int) int {
	if max <= 0 {
		max = DefaultMaxReturnNum
	}
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}

// Paginate trims a batch fetched with one extra row (effective_limit+1) down
// to effective_limit items. The extra row is the O(1) has-more probe: when
// it is present, Paginate returns the last *included* row's identifier as
// the next marker, so a continuation that treats the marker as an exclusive
// lower bound resumes exactly at the probe row without skipping it.
//
// Backends call this after fetching effectiveLimit+1 rows ordered by the
// listing's sort key: an O(1) has-more check with no separate count query.
func Paginate[T any](rows []T, effectiveLimit int, markerOf func(T) string) ([]T, *string) {
	if len(rows) <= effectiveLimit || effectiveLimit <= 0 {
		return rows, nil
	}
	next := markerOf(rows[effectiveLimit-1])
	return rows[:effectiveLimit], &next
}
