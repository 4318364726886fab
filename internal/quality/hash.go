package quality

import (
	"hash/fnv"
	"strconv"
)

// CommunityID resolves a caller-supplied community label to an int:
// numeric strings parse directly (so two callers using "3" and 3 agree
// on the same community), anything else is hashed deterministically
// with 32-bit FNV-1a (spec.md §9, "string community ids in evaluator").
func CommunityID(label string) int {
	if n, err := strconv.Atoi(label); err == nil {
		return n
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	return int(h.Sum32())
}
