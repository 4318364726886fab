package communities

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/novagraph/communities/internal/driver"
	"github.com/novagraph/communities/internal/partition"
)

// LevelStat reports one coarsening level's local-move loop outcome,
// for the --stats CLI flag.
type LevelStat struct {
	Level          int
	CommunityCount int
	Passes         int
	Converged      bool
}

// communityDetail is the per-community summary String's verbose form
// reports: size, internal vs. external incident weight, and the
// fraction of incident weight that stays internal (SPEC_FULL.md §D).
type communityDetail struct {
	size         float64
	internal     float64
	external     float64
	connectivity float64
}

// Clusters is the result of DetectClusters: a frozen membership plus
// the quality score and level history that produced it.
type Clusters struct {
	membership map[string]string // original node id -> community label
	levels     int
	quality    float64
	options    Options
	levelStats []LevelStat
	detail     map[string]communityDetail // community label -> summary
}

func newClusters(res *driver.Result, opts Options) *Clusters {
	membership := make(map[string]string, len(res.OriginalIDs))
	for i, id := range res.OriginalIDs {
		membership[id] = strconv.Itoa(res.OriginalToCurrent[i])
	}
	stats := make([]LevelStat, len(res.Levels))
	for i, lvl := range res.Levels {
		stats[i] = LevelStat{
			Level:          i,
			CommunityCount: lvl.Partition.Q,
			Passes:         lvl.Passes,
			Converged:      lvl.Converged,
		}
	}
	return &Clusters{
		membership: membership,
		levels:     len(res.Levels),
		quality:    res.Quality,
		options:    opts,
		levelStats: stats,
		detail:     communityDetails(res.FinalPartition),
	}
}

// communityDetails derives one communityDetail per community from the
// final partition's aggregates: p's community ids line up 1:1 with
// the string labels newClusters assigns from OriginalToCurrent.
func communityDetails(p *partition.Partition) map[string]communityDetail {
	total := p.TotalStrength
	if total == nil {
		total = make([]float64, p.Q)
		for i := range total {
			total[i] = p.TotalOutStrength[i] + p.TotalInStrength[i]
		}
	}
	out := make(map[string]communityDetail, p.Q)
	for c := 0; c < p.Q; c++ {
		internal := p.InternalEdgeWeight[c]
		external := total[c] - internal
		if p.TotalStrength == nil {
			// directed: out+in strength counts each internal arc at both ends
			external -= internal
		}
		if external < 0 {
			external = 0
		}
		var connectivity float64
		if denom := internal + external; denom > 0 {
			connectivity = internal / denom
		}
		out[strconv.Itoa(c)] = communityDetail{
			size:         p.TotalSize[c],
			internal:     internal,
			external:     external,
			connectivity: connectivity,
		}
	}
	return out
}

// LevelStats returns per-level iteration counts and convergence status
// (spec.md is silent on this; see SPEC_FULL.md §D).
func (c *Clusters) LevelStats() []LevelStat { return c.levelStats }

// GetClass returns the community label assigned to nodeID, or false if
// nodeID was not part of the detected graph.
func (c *Clusters) GetClass(nodeID string) (string, bool) {
	label, ok := c.membership[nodeID]
	return label, ok
}

// GetCommunities groups node ids by their community label, each group
// sorted for determinism, and returns groups ordered by their first
// member.
func (c *Clusters) GetCommunities() [][]string {
	byLabel := map[string][]string{}
	for id, label := range c.membership {
		byLabel[label] = append(byLabel[label], id)
	}
	labels := make([]string, 0, len(byLabel))
	for label, ids := range byLabel {
		sort.Strings(ids)
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return byLabel[labels[i]][0] < byLabel[labels[j]][0]
	})
	out := make([][]string, 0, len(labels))
	for _, label := range labels {
		out = append(out, byLabel[label])
	}
	return out
}

// Quality returns the global quality score (modularity or CPM,
// depending on the options DetectClusters ran with) of this partition.
func (c *Clusters) Quality() float64 { return c.quality }

// Levels returns how many coarsening levels the multilevel loop ran.
func (c *Clusters) Levels() int { return c.levels }

// jsonOptions mirrors every field of the options table (spec.md §6) for
// inclusion in meta.options. Func-valued fields (LinkWeight, NodeSize)
// have no serializable form and are reported only as present/absent.
type jsonOptions struct {
	Quality           string       `json:"quality"`
	Resolution        float64      `json:"resolution"`
	Directed          bool         `json:"directed"`
	RandomSeed        int64        `json:"randomSeed"`
	CandidateStrategy string       `json:"candidateStrategy"`
	AllowNewCommunity bool         `json:"allowNewCommunity"`
	MaxCommunitySize  float64      `json:"maxCommunitySize"`
	Refine            bool         `json:"refine"`
	FixedNodes        []string     `json:"fixedNodes,omitempty"`
	PreserveLabels    jsonPreserve `json:"preserveLabels"`
	LinkWeight        bool         `json:"linkWeightSet"`
	NodeSize          bool         `json:"nodeSizeSet"`
	MaxLevels         int          `json:"maxLevels"`
	MaxLocalPasses    int          `json:"maxLocalPasses"`
	CPMMode           string       `json:"cpmMode"`
	Strict            bool         `json:"strict"`
}

type jsonPreserve struct {
	Keep bool           `json:"keep"`
	Map  map[string]int `json:"map,omitempty"`
}

func newJSONOptions(o Options) jsonOptions {
	return jsonOptions{
		Quality:           o.Quality,
		Resolution:        o.Resolution,
		Directed:          o.Directed,
		RandomSeed:        o.RandomSeed,
		CandidateStrategy: o.CandidateStrategy,
		AllowNewCommunity: o.AllowNewCommunity,
		MaxCommunitySize:  o.MaxCommunitySize,
		Refine:            o.Refine,
		FixedNodes:        o.FixedNodes,
		PreserveLabels:    jsonPreserve{Keep: o.PreserveLabels.Keep, Map: o.PreserveLabels.Map},
		LinkWeight:        o.LinkWeight != nil,
		NodeSize:          o.NodeSize != nil,
		MaxLevels:         o.MaxLevels,
		MaxLocalPasses:    o.MaxLocalPasses,
		CPMMode:           o.CPMMode,
		Strict:            o.Strict,
	}
}

type jsonMeta struct {
	Levels  int         `json:"levels"`
	Quality float64     `json:"quality"`
	Options jsonOptions `json:"options"`
}

type jsonClusters struct {
	Membership map[string]string `json:"membership"`
	Meta       jsonMeta          `json:"meta"`
}

// ToJSON renders the membership and run metadata as spec.md §6's
// {membership, meta:{levels, quality, options}} document.
func (c *Clusters) ToJSON() ([]byte, error) {
	doc := jsonClusters{
		Membership: c.membership,
		Meta: jsonMeta{
			Levels:  c.levels,
			Quality: c.quality,
			Options: newJSONOptions(c.options),
		},
	}
	return json.Marshal(doc)
}

// String renders a human-readable summary: two lines per community (its
// members, then its size, internal/external incident weight, and
// connectivity, the fraction of incident weight kept internal) and a
// closing quality line, used by the CLI's -v/--verbose flag
// (SPEC_FULL.md §D).
func (c *Clusters) String() string {
	var b strings.Builder
	for i, members := range c.GetCommunities() {
		label, _ := c.GetClass(members[0])
		d := c.detail[label]
		fmt.Fprintf(&b, "community %d: %s\n", i, strings.Join(members, ", "))
		fmt.Fprintf(&b, "  size=%g internal=%g external=%g connectivity=%.4f\n",
			d.size, d.internal, d.external, d.connectivity)
	}
	fmt.Fprintf(&b, "quality: %g\n", c.quality)
	return b.String()
}
