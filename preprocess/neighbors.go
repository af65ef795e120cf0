package preprocess

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/materials-graph/crystprep/cryst"
)

// latticeMatrix builds the row-vector cell matrix from lengths (a, b, c) and
// angles (alpha, beta, gamma, degrees) using the standard crystallographic
// convention: a along x, b in the xy plane.
func latticeMatrix(lengths, angles []float64) [3][3]float64 {
	a, b, c := lengths[0], lengths[1], lengths[2]
	alpha := angles[0] * math.Pi / 180
	beta := angles[1] * math.Pi / 180
	gamma := angles[2] * math.Pi / 180

	cosAlpha, cosBeta, cosGamma := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)
	sinGamma := math.Sin(gamma)

	var m [3][3]float64
	m[0] = [3]float64{a, 0, 0}
	m[1] = [3]float64{b * cosGamma, b * sinGamma, 0}
	cx := c * cosBeta
	cy := c * (cosAlpha - cosBeta*cosGamma) / sinGamma
	cz := math.Sqrt(math.Max(c*c-cx*cx-cy*cy, 0))
	m[2] = [3]float64{cx, cy, cz}
	return m
}

// cartesian maps one fractional coordinate through the cell matrix.
func cartesian(frac []float64, m [3][3]float64) [3]float64 {
	var out [3]float64
	for d := 0; d < 3; d++ {
		out[d] = frac[0]*m[0][d] + frac[1]*m[1][d] + frac[2]*m[2][d]
	}
	return out
}

type neighbor struct {
	dst   int
	image [3]int
	dist  float64
}

// buildGraph computes the periodic bond list of one crystal. The cutoff
// method scans the 27 neighboring cell images and records every pair within
// the radius, keeping both edge directions with opposite image offsets, the
// orientation consumers expect for message passing. Edges per source atom are
// ordered by distance and capped at maxNeighbors when positive.
func buildGraph(c cryst.CrystalArrays, method string, cutoff float64, maxNeighbors int) ([][]int, [][]int, error) {
	switch method {
	case cryst.GraphMethodNone:
		return [][]int{}, [][]int{}, nil
	case cryst.GraphMethodCutoff:
	default:
		return nil, nil, errors.Wrapf(cryst.ErrUnknownGraphMethod, "%q", method)
	}

	n := len(c.FracCoords)
	m := latticeMatrix(c.Lengths, c.Angles)
	carts := make([][3]float64, n)
	for i, f := range c.FracCoords {
		carts[i] = cartesian(f, m)
	}

	edges := make([][]int, 0, n*4)
	jimages := make([][]int, 0, n*4)
	for i := 0; i < n; i++ {
		var found []neighbor
		for j := 0; j < n; j++ {
			for ix := -1; ix <= 1; ix++ {
				for iy := -1; iy <= 1; iy++ {
					for iz := -1; iz <= 1; iz++ {
						if i == j && ix == 0 && iy == 0 && iz == 0 {
							continue
						}
						var d2 float64
						for d := 0; d < 3; d++ {
							shift := float64(ix)*m[0][d] + float64(iy)*m[1][d] + float64(iz)*m[2][d]
							delta := carts[j][d] + shift - carts[i][d]
							d2 += delta * delta
						}
						if dist := math.Sqrt(d2); dist <= cutoff {
							found = append(found, neighbor{dst: j, image: [3]int{ix, iy, iz}, dist: dist})
						}
					}
				}
			}
		}
		sort.Slice(found, func(a, b int) bool {
			if found[a].dist != found[b].dist {
				return found[a].dist < found[b].dist
			}
			if found[a].dst != found[b].dst {
				return found[a].dst < found[b].dst
			}
			return found[a].image != found[b].image && lessImage(found[a].image, found[b].image)
		})
		if maxNeighbors > 0 && len(found) > maxNeighbors {
			found = found[:maxNeighbors]
		}
		for _, nb := range found {
			edges = append(edges, []int{i, nb.dst})
			jimages = append(jimages, []int{nb.image[0], nb.image[1], nb.image[2]})
		}
	}
	return edges, jimages, nil
}

func lessImage(a, b [3]int) bool {
	for d := 0; d < 3; d++ {
		if a[d] != b[d] {
			return a[d] < b[d]
		}
	}
	return false
}
