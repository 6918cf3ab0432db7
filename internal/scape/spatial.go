package scape

import (
	"reflect"

	"github.com/dhconnelly/rtreego"

	"sensorsim/internal/model"
)

// Reindexer is implemented by topologies that precompute a spatial structure
// once per tick, after every agent moved and before the first Detect.
type Reindexer interface {
	Reindex(index PositionIndex) error
}

const (
	cellExtent  = 1e-6
	treeMinFill = 25
	treeMaxFill = 50
)

type cellEntry struct {
	position model.Position
	rect     rtreego.Rect
}

func (c *cellEntry) Bounds() rtreego.Rect {
	return c.rect
}

// neighborhood answers "which occupied cells are within reach" from an
// R-tree built over the occupied cells of one tick's index. Queried with any
// other index, or with that index after cells were added or removed, it
// falls back to a full scan. Holding source keeps its address from being
// reused by a later map.
type neighborhood struct {
	source PositionIndex
	size   int
	tree   *rtreego.Rtree
}

func (n *neighborhood) reindex(index PositionIndex) {
	cells := make([]rtreego.Spatial, 0, len(index))
	for position := range index {
		cells = append(cells, &cellEntry{
			position: position,
			rect:     rtreego.Point{position.X, position.Y}.ToRect(cellExtent),
		})
	}
	n.tree = rtreego.NewTree(2, treeMinFill, treeMaxFill, cells...)
	n.source = index
	n.size = len(index)
}

func (n *neighborhood) builtFrom(index PositionIndex) bool {
	if n.tree == nil || index == nil || n.source == nil || len(index) != n.size {
		return false
	}
	return reflect.ValueOf(index).Pointer() == reflect.ValueOf(n.source).Pointer()
}

// cells returns the occupied positions whose offset from center is at most
// reach on both axes. A positive period wraps that axis.
func (n *neighborhood) cells(index PositionIndex, center model.Position, reach, periodX, periodY float64) []model.Position {
	if !n.builtFrom(index) {
		all := make([]model.Position, 0, len(index))
		for position := range index {
			all = append(all, position)
		}
		return all
	}

	side := 2 * (reach + rangeTolerance + cellExtent)
	seen := make(map[model.Position]bool)
	var found []model.Position
	for _, sx := range shifts(periodX) {
		for _, sy := range shifts(periodY) {
			corner := rtreego.Point{
				center.X + sx - side/2,
				center.Y + sy - side/2,
			}
			rect, err := rtreego.NewRect(corner, []float64{side, side})
			if err != nil {
				continue
			}
			for _, obj := range n.tree.SearchIntersect(rect) {
				position := obj.(*cellEntry).position
				if !seen[position] {
					seen[position] = true
					found = append(found, position)
				}
			}
		}
	}
	return found
}

func shifts(period float64) []float64 {
	if period <= 0 {
		return []float64{0}
	}
	return []float64{-period, 0, period}
}
