package cluster

import "math"

// gridIndex buckets points into square cells of eps degrees so that a
// neighborhood query only has to scan the 3x3 block of cells around a
// point instead of the whole dataset.
type gridIndex struct {
	cellSize float64
	cells    map[int64][]int
}

const estimatedPointsPerCell = 4

func newGridIndex(points []Point, cellSize float64) *gridIndex {
	g := &gridIndex{
		cellSize: cellSize,
		cells:    make(map[int64][]int, len(points)/estimatedPointsPerCell+1),
	}
	for i, p := range points {
		id := g.cellID(g.cellCoord(p.Lon), g.cellCoord(p.Lat))
		g.cells[id] = append(g.cells[id], i)
	}
	return g
}

func (g *gridIndex) cellCoord(v float64) int64 {
	return int64(math.Floor(v / g.cellSize))
}

// cellID packs a signed (cx, cy) cell coordinate into a single key using
// zigzag encoding followed by Szudzik's pairing function.
func (g *gridIndex) cellID(cx, cy int64) int64 {
	var a, b int64
	if cx >= 0 {
		a = 2 * cx
	} else {
		a = -2*cx - 1
	}
	if cy >= 0 {
		b = 2 * cy
	} else {
		b = -2*cy - 1
	}
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// neighbors returns the indices of every point within eps of points[idx],
// including idx itself. Distance is planar Euclidean over raw degrees.
func (g *gridIndex) neighbors(points []Point, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps
	cx := g.cellCoord(p.Lon)
	cy := g.cellCoord(p.Lat)

	var result []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, cand := range g.cells[g.cellID(cx+dx, cy+dy)] {
				c := points[cand]
				dLon := c.Lon - p.Lon
				dLat := c.Lat - p.Lat
				if dLon*dLon+dLat*dLat <= eps2 {
					result = append(result, cand)
				}
			}
		}
	}
	return result
}
