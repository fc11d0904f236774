package gitlog

// BlockBounds returns the index of every commit-header line in lines, plus a
// sentinel index one past the end of the sequence. Consecutive pairs delimit
// the half-open [start, end) range of one commit block; the sentinel is only
// ever used as an upper slicing bound. Block order is input order.
func BlockBounds(lines []string) []int {
	bounds := make([]int, 0, 64)
	for i, line := range lines {
		if _, ok := MatchCommitHeader(line); ok {
			bounds = append(bounds, i)
		}
	}
	return append(bounds, len(lines))
}
