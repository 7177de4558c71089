package kdtree

import "time"

// Statistics collected while building a tree.
type Stats struct {
	Primitives    int
	Nodes         int
	Internal      int
	Leaves        int
	EmptyLeaves   int
	MaxDepth      int
	PrimitiveRefs int
	BuildTime     time.Duration
}

// Get the average number of primitive references per non-empty leaf.
func (s Stats) AvgLeafPrimitives() float64 {
	nonEmpty := s.Leaves - s.EmptyLeaves
	if nonEmpty <= 0 {
		return 0
	}
	return float64(s.PrimitiveRefs) / float64(nonEmpty)
}
