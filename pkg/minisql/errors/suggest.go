package errors

import (
	"sort"
	"strings"

	"github.com/sambeau/minisql/pkg/minisql/span"
)

// editDistance computes the Levenshtein distance between two strings using
// two rolling rows.
func editDistance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// suggestThreshold is the largest edit distance still worth suggesting for
// an input of the given length.
func suggestThreshold(n int) int {
	switch {
	case n >= 7:
		return 3
	case n >= 4:
		return 2
	default:
		return 1
	}
}

// ClosestMatch returns the candidate closest to input, compared
// case-insensitively, or "" when nothing is close enough. Exact matches are
// never suggested. Ties go to the alphabetically first candidate.
func ClosestMatch(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	lower := strings.ToLower(input)
	best, bestDist := "", -1
	for _, c := range sorted {
		d := editDistance(lower, strings.ToLower(c))
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}

	if bestDist <= 0 || bestDist > suggestThreshold(len(input)) {
		return ""
	}
	return best
}

func didYouMean(name string, candidates []string) string {
	if s := ClosestMatch(name, candidates); s != "" {
		return "Did you mean `" + s + "`?"
	}
	return ""
}

// NewTableNotFound creates a table-not-found error anchored at the table
// name, with a suggestion drawn from the known tables.
func NewTableNotFound(name span.Span, tables []string) *ParseError {
	return New("CATALOG-0001", name, map[string]any{"Name": name.Fragment}).
		WithHint(didYouMean(name.Fragment, tables))
}

// NewColumnNotFound creates a column-not-found error anchored at the column
// name, with a suggestion drawn from the table's columns.
func NewColumnNotFound(name span.Span, table string, columns []string) *ParseError {
	return New("CATALOG-0002", name, map[string]any{"Name": name.Fragment, "Table": table}).
		WithHint(didYouMean(name.Fragment, columns))
}
