package partition

import "sort"

// CompactCommunityIds eliminates empty community slots and renumbers
// the survivors to 0..Q'-1 per mode, rebuilding every aggregate array
// in place. preserveMap is only consulted when mode is
// CompactPreserveMap; it maps an old community id to a sort key, with
// missing entries sorted after all present ones. It returns
// oldToNew, indexed by pre-compaction community id (entries for empty
// slots are left as -1 and must not be dereferenced).
func (p *Partition) CompactCommunityIds(mode CompactMode, preserveMap map[int]int) []int {
	ids := make([]int, 0, p.Q)
	for c := 0; c < p.Q; c++ {
		if p.NodeCount[c] > 0 {
			ids = append(ids, c)
		}
	}

	defaultLess := func(a, b int) bool {
		if p.TotalSize[a] != p.TotalSize[b] {
			return p.TotalSize[a] > p.TotalSize[b]
		}
		if p.NodeCount[a] != p.NodeCount[b] {
			return p.NodeCount[a] > p.NodeCount[b]
		}
		return a < b
	}

	switch mode {
	case CompactKeepOldOrder:
		// ids is already ascending by old id.
	case CompactPreserveMap:
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := ids[i], ids[j]
			ka, okA := preserveMap[a]
			kb, okB := preserveMap[b]
			if okA != okB {
				return okA // present sorts before missing
			}
			if okA && okB && ka != kb {
				return ka < kb
			}
			return defaultLess(a, b)
		})
	default:
		sort.SliceStable(ids, func(i, j int) bool { return defaultLess(ids[i], ids[j]) })
	}

	oldToNew := make([]int, p.Q)
	for i := range oldToNew {
		oldToNew[i] = -1
	}

	newQ := len(ids)
	newNodeCount := make([]int, newQ)
	newTotalSize := make([]float64, newQ)
	newInternal := make([]float64, newQ)
	var newStrength, newOut, newIn []float64
	if p.directed {
		newOut = make([]float64, newQ)
		newIn = make([]float64, newQ)
	} else {
		newStrength = make([]float64, newQ)
	}

	for newIdx, oldID := range ids {
		oldToNew[oldID] = newIdx
		newNodeCount[newIdx] = p.NodeCount[oldID]
		newTotalSize[newIdx] = p.TotalSize[oldID]
		newInternal[newIdx] = p.InternalEdgeWeight[oldID]
		if p.directed {
			newOut[newIdx] = p.TotalOutStrength[oldID]
			newIn[newIdx] = p.TotalInStrength[oldID]
		} else {
			newStrength[newIdx] = p.TotalStrength[oldID]
		}
	}

	p.NodeCount = newNodeCount
	p.TotalSize = newTotalSize
	p.InternalEdgeWeight = newInternal
	if p.directed {
		p.TotalOutStrength = newOut
		p.TotalInStrength = newIn
	} else {
		p.TotalStrength = newStrength
	}
	p.Q = newQ

	for i, c := range p.NodeCommunity {
		p.NodeCommunity[i] = oldToNew[c]
	}

	p.candidates = p.candidates[:0]
	p.inCandidates = make([]bool, newQ)
	p.neighborWeight = make([]float64, newQ)
	if p.directed {
		p.outToC = make([]float64, newQ)
		p.inFromC = make([]float64, newQ)
	}
	p.scratchNode = -1

	return oldToNew
}
