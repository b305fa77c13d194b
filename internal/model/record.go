package model

import "strconv"

// Test outcome labels as they appear in the RTA data. Anything else (e.g.
// "No Show") contributes to neither bucket.
const (
	ResultPass = "Pass"
	ResultFail = "Fail"
)

// censoredCount approximates the suppressed "<=5" marker the RTA uses for
// small cells. Three is the midpoint guess carried over from the original
// analysis.
const censoredCount = 3

// TestRecord is one row of a driving-test outcome file after column mapping.
type TestRecord struct {
	Category string
	Area     string
	Result   string
	Count    int
}

// ParseCount parses a count cell. The censored small-count marker maps to a
// fixed approximation; anything unparseable counts as zero.
func ParseCount(s string) int {
	if s == "<=5" || s == "≤5" {
		return censoredCount
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
