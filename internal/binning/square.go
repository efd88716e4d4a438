package binning

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import "github.com/paulmach/orb"

// squareCell assigns a global pixel point to its square lattice cell:
// (i, j) = (floor(gx/s), floor(gy/s)), anchored at global pixel (0,0).
func squareCell(gx, gy, side float64) (i, j int) {
	return int(floorDiv(gx, side)), int(floorDiv(gy, side))
}

func floorDiv(v, side float64) float64 {
	q := v / side
	if q < 0 {
		// math.Floor semantics without importing math for a one-off.
		iq := int(q)
		if float64(iq) != q {
			iq--
		}
		return float64(iq)
	}
	return float64(int(q))
}

// squareVertices returns the four corners of square cell (i, j), starting
// with the top-left corner so index 0 is a deterministic "first vertex".
func squareVertices(i, j int, side float64) []orb.Point {
	x0 := float64(i) * side
	y0 := float64(j) * side
	return []orb.Point{
		{x0, y0},
		{x0 + side, y0},
		{x0 + side, y0 + side},
		{x0, y0 + side},
	}
}
