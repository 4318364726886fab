// Package partition implements the mutable per-level partition: the
// node→community map, the per-community aggregates it keeps in sync on
// every move, and the scratch accumulators the local-move loop uses to
// evaluate a node's candidate communities in O(degree) (spec.md §4.2).
package partition

import (
	"math"

	"github.com/novagraph/communities/internal/graphadapter"
)

// CompactMode selects the renumbering policy applied by CompactCommunityIds.
type CompactMode int

const (
	// CompactDefault sorts surviving communities by (totalSize desc,
	// nodeCount desc, oldId asc).
	CompactDefault CompactMode = iota
	// CompactKeepOldOrder sorts ascending by the pre-compaction id.
	CompactKeepOldOrder
	// CompactPreserveMap sorts ascending by a caller-supplied key per
	// old id, with unmapped ids sorted last and ties broken by
	// CompactDefault's order.
	CompactPreserveMap
)

// Partition is the mutable per-level state: which community each node
// belongs to, and the aggregates (§3) kept consistent after every move.
type Partition struct {
	g        *graphadapter.Graph
	directed bool

	NodeCommunity []int
	Q             int

	NodeCount          []int
	TotalSize          []float64
	InternalEdgeWeight []float64
	TotalStrength      []float64 // undirected only
	TotalOutStrength   []float64 // directed only
	TotalInStrength    []float64 // directed only

	// scratch for the node currently under evaluation; valid only
	// between an accumulateNeighbors(v) call and the next one.
	candidates     []int
	inCandidates   []bool
	neighborWeight []float64 // undirected: weight from v to members of c, excluding v's self-loop
	outToC         []float64 // directed: weight from v to members of c, excluding v's self-loop
	inFromC        []float64 // directed: weight from members of c to v, excluding v's self-loop
	scratchNode    int
}

// New builds the initial singleton partition over g: every node is its
// own community, carrying its own strength and self-loop as the seed
// aggregate values.
func New(g *graphadapter.Graph) *Partition {
	n := g.N
	p := &Partition{
		g:                   g,
		directed:            g.Directed,
		NodeCommunity:       make([]int, n),
		Q:                   n,
		NodeCount:           make([]int, n),
		TotalSize:           make([]float64, n),
		InternalEdgeWeight:  make([]float64, n),
		scratchNode:         -1,
	}
	if g.Directed {
		p.TotalOutStrength = make([]float64, n)
		p.TotalInStrength = make([]float64, n)
	} else {
		p.TotalStrength = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		p.NodeCommunity[i] = i
		p.NodeCount[i] = 1
		p.TotalSize[i] = g.Size[i]
		p.InternalEdgeWeight[i] = g.Loop[i]
		if g.Directed {
			p.TotalOutStrength[i] = g.KOut[i]
			p.TotalInStrength[i] = g.KIn[i]
		} else {
			p.TotalStrength[i] = g.KOut[i]
		}
	}
	p.growScratch(n)
	return p
}

// Graph returns the graph this partition was built over.
func (p *Partition) Graph() *graphadapter.Graph { return p.g }

func growFloats(s []float64, n int) []float64 {
	if n <= len(s) {
		return s
	}
	if n <= cap(s) {
		return s[:n]
	}
	newCap := cap(s)
	if newCap == 0 {
		newCap = n
	}
	for newCap < n {
		newCap = int(math.Ceil(float64(newCap) * 1.5))
	}
	ns := make([]float64, n, newCap)
	copy(ns, s)
	return ns
}

func growBools(s []bool, n int) []bool {
	if n <= len(s) {
		return s
	}
	if n <= cap(s) {
		return s[:n]
	}
	newCap := cap(s)
	if newCap == 0 {
		newCap = n
	}
	for newCap < n {
		newCap = int(math.Ceil(float64(newCap) * 1.5))
	}
	ns := make([]bool, n, newCap)
	copy(ns, s)
	return ns
}

func (p *Partition) growScratch(n int) {
	p.inCandidates = growBools(p.inCandidates, n)
	p.neighborWeight = growFloats(p.neighborWeight, n)
	if p.directed {
		p.outToC = growFloats(p.outToC, n)
		p.inFromC = growFloats(p.inFromC, n)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// touch marks c as a candidate if it is not already one.
func (p *Partition) touch(c int) {
	if !p.inCandidates[c] {
		p.inCandidates[c] = true
		p.candidates = append(p.candidates, c)
	}
}

// AccumulateNeighbors clears the scratch left by the previous node (in
// O(|prior candidates|)) and rebuilds it for v: the node's own
// community is always touched, then every non-self-loop arc touches
// its target's community and accumulates weight. It returns the number
// of candidate communities found.
func (p *Partition) AccumulateNeighbors(v int) int {
	for _, c := range p.candidates {
		p.inCandidates[c] = false
		p.neighborWeight[c] = 0
		if p.directed {
			p.outToC[c] = 0
			p.inFromC[c] = 0
		}
	}
	p.candidates = p.candidates[:0]
	p.scratchNode = v

	own := p.NodeCommunity[v]
	p.touch(own)

	for _, arc := range p.g.Out[v] {
		if arc.To == v {
			continue // self-loop: constant across all candidates, handled in MoveNodeToCommunity
		}
		c := p.NodeCommunity[arc.To]
		p.touch(c)
		if p.directed {
			p.outToC[c] += arc.Weight
		} else {
			p.neighborWeight[c] += arc.Weight
		}
	}
	if p.directed {
		for _, arc := range p.g.In[v] {
			if arc.To == v {
				continue
			}
			c := p.NodeCommunity[arc.To]
			p.touch(c)
			p.inFromC[c] += arc.Weight
		}
	}
	return len(p.candidates)
}

// Candidates returns the candidate community ids touched by the last
// AccumulateNeighbors call, in discovery order (own community first).
func (p *Partition) Candidates() []int { return p.candidates }

// IsNewCommunity reports whether c names the not-yet-allocated fresh
// singleton slot (c == Q), admissible as a move target when the local
// move loop's allowNewCommunity option is set.
func (p *Partition) IsNewCommunity(c int) bool { return c == p.Q }

// The aggregate/scratch lookups below treat c == Q (the fresh slot
// MoveNodeToCommunity would allocate) as all-zero, since it has no
// members and nothing has accumulated into it yet — this lets the
// move loop price allowNewCommunity's candidate before the slot
// actually exists.

func (p *Partition) totalStrengthOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.TotalStrength[c]
}

func (p *Partition) totalOutStrengthOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.TotalOutStrength[c]
}

func (p *Partition) totalInStrengthOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.TotalInStrength[c]
}

func (p *Partition) totalSizeOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.TotalSize[c]
}

func (p *Partition) neighborWeightOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.neighborWeight[c]
}

func (p *Partition) outToCOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.outToC[c]
}

func (p *Partition) inFromCOf(c int) float64 {
	if c == p.Q {
		return 0
	}
	return p.inFromC[c]
}

// DeltaModularityUndirected computes the change in undirected
// modularity from moving v (whose scratch must be current) to c. c
// may be Q (IsNewCommunity) to price a fresh singleton.
func (p *Partition) DeltaModularityUndirected(v, c int) float64 {
	m2 := p.g.M
	if m2 == 0 {
		return 0
	}
	oldC := p.NodeCommunity[v]
	if c == oldC {
		return 0
	}
	kv := p.g.KOut[v]
	wNew, wOld := p.neighborWeightOf(c), p.neighborWeightOf(oldC)
	totNew, totOld := p.totalStrengthOf(c), p.totalStrengthOf(oldC)
	delta := 2*(wNew-wOld)/m2 - 2*kv*(totNew-totOld+kv)/(m2*m2)
	if !isFinite(delta) {
		return 0
	}
	return delta
}

// DeltaModularityDirected computes the change in Leicht–Newman
// directed modularity from moving v to c. c may be Q.
func (p *Partition) DeltaModularityDirected(v, c int) float64 {
	m := p.g.M
	if m == 0 {
		return 0
	}
	oldC := p.NodeCommunity[v]
	if c == oldC {
		return 0
	}
	outNew, outOld := p.outToCOf(c), p.outToCOf(oldC)
	inNew, inOld := p.inFromCOf(c), p.inFromCOf(oldC)
	tNew, tOld := p.totalInStrengthOf(c), p.totalInStrengthOf(oldC)
	fNew, fOld := p.totalOutStrengthOf(c), p.totalOutStrengthOf(oldC)
	kOut, kIn := p.g.KOut[v], p.g.KIn[v]
	delta := ((inNew+outNew-inOld-outOld)/m) - ((kOut*(tNew-tOld) + kIn*(fNew-fOld) + 2*kOut*kIn) / (m * m))
	if !isFinite(delta) {
		return 0
	}
	return delta
}

// incidentWeight returns the weight of v's non-self-loop edges to
// community c from the current scratch, direction-agnostic. c may be Q.
func (p *Partition) incidentWeight(c int) float64 {
	if p.directed {
		return p.outToCOf(c) + p.inFromCOf(c)
	}
	return p.neighborWeightOf(c)
}

// DeltaCPM computes the change in Constant Potts Model quality (with
// resolution gamma, size-aware via TotalSize) from moving v to c. c
// may be Q.
func (p *Partition) DeltaCPM(v, c int, gamma float64) float64 {
	oldC := p.NodeCommunity[v]
	if c == oldC {
		return 0
	}
	sv := p.g.Size[v]
	wNew, wOld := p.incidentWeight(c), p.incidentWeight(oldC)
	if !p.directed {
		// undirected internal weight counts each edge at both endpoints
		wNew, wOld = 2*wNew, 2*wOld
	}
	sNew, sOld := p.totalSizeOf(c), p.totalSizeOf(oldC)
	delta := (wNew - wOld) - gamma*sv*(sNew-sOld+sv)
	if !isFinite(delta) {
		return 0
	}
	return delta
}

// MoveNodeToCommunity moves v from its current community to newC,
// which must be in [0, Q]; newC == Q appends a fresh singleton slot.
// It is a no-op (returning false) when newC already holds v. The
// scratch must be current for v (i.e. the last AccumulateNeighbors
// call was for v) since the internal-weight update consumes it.
func (p *Partition) MoveNodeToCommunity(v, newC int) bool {
	oldC := p.NodeCommunity[v]
	if newC == oldC {
		return false
	}
	if newC == p.Q {
		p.NodeCount = append(p.NodeCount, 0)
		p.TotalSize = append(p.TotalSize, 0)
		p.InternalEdgeWeight = append(p.InternalEdgeWeight, 0)
		if p.directed {
			p.TotalOutStrength = append(p.TotalOutStrength, 0)
			p.TotalInStrength = append(p.TotalInStrength, 0)
		} else {
			p.TotalStrength = append(p.TotalStrength, 0)
		}
		p.Q++
		p.growScratch(p.Q)
	}

	sv := p.g.Size[v]
	loop := p.g.Loop[v]

	p.NodeCount[oldC]--
	p.NodeCount[newC]++
	p.TotalSize[oldC] -= sv
	p.TotalSize[newC] += sv

	if p.directed {
		kOut, kIn := p.g.KOut[v], p.g.KIn[v]
		p.TotalOutStrength[oldC] -= kOut
		p.TotalOutStrength[newC] += kOut
		p.TotalInStrength[oldC] -= kIn
		p.TotalInStrength[newC] += kIn
		p.InternalEdgeWeight[oldC] -= p.outToC[oldC] + p.inFromC[oldC] + loop
		p.InternalEdgeWeight[newC] += p.outToC[newC] + p.inFromC[newC] + loop
	} else {
		k := p.g.KOut[v]
		p.TotalStrength[oldC] -= k
		p.TotalStrength[newC] += k
		p.InternalEdgeWeight[oldC] -= 2*p.neighborWeight[oldC] + loop
		p.InternalEdgeWeight[newC] += 2*p.neighborWeight[newC] + loop
	}

	p.NodeCommunity[v] = newC
	return true
}

// GetCommunityMembers returns, for each community 0..Q-1, the node
// indices assigned to it (ascending by node index).
func (p *Partition) GetCommunityMembers() [][]int {
	members := make([][]int, p.Q)
	for v, c := range p.NodeCommunity {
		members[c] = append(members[c], v)
	}
	return members
}
