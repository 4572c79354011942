package util

import (
	"slices"

	"github.com/tari-project/tari-sub016/errors"
)

// CalcMedianTimestamp returns the median of timestamps. With an even count the two middle values are
// averaged, rounding down. The input is not modified.
func CalcMedianTimestamp(timestamps []uint64) (uint64, error) {
	if len(timestamps) == 0 {
		return 0, errors.NewProcessingError("no timestamps for median time calculation")
	}

	sorted := slices.Clone(timestamps)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}

	lo, hi := sorted[mid-1], sorted[mid]

	return lo + (hi-lo)/2, nil
}
