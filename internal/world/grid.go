package world

import "math"

const GridCellSize = 500.0 // roughly one viewport

// cell identifies one bucket of the grid
type cell struct {
	cx, cy int
}

// spatialGrid buckets object ids by the cell their position falls in.
// Positions outside the world are clamped to the edge cells.
type spatialGrid struct {
	cols, rows int
	cells      map[cell]map[string]struct{}
	where      map[string]cell
}

func newSpatialGrid(width, height float64) *spatialGrid {
	return &spatialGrid{
		cols:  int(math.Ceil(width/GridCellSize)) + 1,
		rows:  int(math.Ceil(height/GridCellSize)) + 1,
		cells: make(map[cell]map[string]struct{}),
		where: make(map[string]cell),
	}
}

func (g *spatialGrid) cellOf(x, y float64) cell {
	cx := int(math.Floor(x / GridCellSize))
	cy := int(math.Floor(y / GridCellSize))
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cell{cx, cy}
}

// place puts id in the cell for (x, y), moving it if it was elsewhere
func (g *spatialGrid) place(id string, x, y float64) {
	c := g.cellOf(x, y)
	if old, ok := g.where[id]; ok {
		if old == c {
			return
		}
		g.drop(id, old)
	}
	bucket, ok := g.cells[c]
	if !ok {
		bucket = make(map[string]struct{})
		g.cells[c] = bucket
	}
	bucket[id] = struct{}{}
	g.where[id] = c
}

func (g *spatialGrid) remove(id string) {
	if c, ok := g.where[id]; ok {
		g.drop(id, c)
		delete(g.where, id)
	}
}

func (g *spatialGrid) drop(id string, c cell) {
	bucket := g.cells[c]
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(g.cells, c)
	}
}

// candidates appends the ids in every cell overlapping the rectangle
func (g *spatialGrid) candidates(x, y, w, h float64, buf []string) []string {
	lo := g.cellOf(x, y)
	hi := g.cellOf(x+w, y+h)
	for cy := lo.cy; cy <= hi.cy; cy++ {
		for cx := lo.cx; cx <= hi.cx; cx++ {
			for id := range g.cells[cell{cx, cy}] {
				buf = append(buf, id)
			}
		}
	}
	return buf
}
