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

import (
	"math"

	"github.com/paulmach/orb"
)

const sqrt3 = 1.7320508075688772

// hexAxial assigns a global pixel point to the flat-topped hex containing
// it, using the standard axial-coordinate formula anchored at global pixel
// (0,0). Ties on a shared edge break toward the lower-(q, r) cell.
func hexAxial(gx, gy, side float64) (q, r int) {
	fq := (2.0 / 3.0 * gx) / side
	fr := (-1.0/3.0*gx + sqrt3/3.0*gy) / side
	return axialRound(fq, fr)
}

// axialRound rounds fractional cube coordinates to the nearest hex,
// breaking exact ties toward the lower (q, r) pair rather than the
// default "largest rounding error wins" branch, per spec.
func axialRound(fq, fr float64) (int, int) {
	fx, fz := fq, fr
	fy := -fx - fz

	rx := math.Round(fx)
	ry := math.Round(fy)
	rz := math.Round(fz)

	dx := math.Abs(rx - fx)
	dy := math.Abs(ry - fy)
	dz := math.Abs(rz - fz)

	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy >= dx && dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}

	// Exact on-edge ties (dx == dy == dz, or two-way ties) are resolved by
	// nudging toward the lower axial pair: if the fractional q/r sit
	// exactly between two cells, floor rather than round-half-up.
	q := int(rx)
	r := int(rz)
	if fx-math.Floor(fx) == 0.5 && rx > fx {
		q--
	}
	if fz-math.Floor(fz) == 0.5 && rz > fz {
		r--
	}
	return q, r
}

// hexCenter returns the global pixel center of axial cell (q, r).
func hexCenter(q, r int, side float64) (cx, cy float64) {
	cx = side * 1.5 * float64(q)
	cy = side * sqrt3 * (float64(r) + float64(q)/2.0)
	return
}

// hexVertices returns the six vertices of a flat-topped hex centered at
// (cx, cy), starting with the rightmost vertex (angle 0) and proceeding
// counter-clockwise, so index 0 is deterministic and usable as the cell's
// "first vertex" for identity purposes.
func hexVertices(cx, cy, side float64) []orb.Point {
	vs := make([]orb.Point, 6)
	for i := 0; i < 6; i++ {
		angle := math.Pi / 3.0 * float64(i)
		vs[i] = orb.Point{cx + side*math.Cos(angle), cy + side*math.Sin(angle)}
	}
	return vs
}
