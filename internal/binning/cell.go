// Package binning re-projects point features onto a hex or square lattice
// anchored globally at world pixel (0,0), assigning features to cells by
// centroid and aggregating their per-year counts.
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
	"fmt"

	"github.com/paulmach/orb"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
)

// Kind selects the lattice shape.
type Kind int

const (
	Hex Kind = iota
	Square
)

// Spec describes how to re-bin a tile's point features.
type Spec struct {
	Kind         Kind
	CellsPerTile int // used by Hex: side length = tileSize / CellsPerTile
	CellPixels   int // used by Square: side length in pixels
}

func (s Spec) sideLength(tileSize int) (float64, error) {
	switch s.Kind {
	case Hex:
		if s.CellsPerTile <= 0 {
			return 0, apperr.Validation("hexPerTile must be positive", nil)
		}
		return float64(tileSize) / float64(s.CellsPerTile), nil
	case Square:
		if s.CellPixels <= 0 {
			return 0, apperr.Validation("squareSize must be positive", nil)
		}
		return float64(s.CellPixels), nil
	default:
		return 0, apperr.Validation("unknown bin kind", nil)
	}
}

// Cell is the stable identity of a hex or square lattice cell, shared across
// neighbouring tiles that overlap in their buffer region. It must never be
// persisted across projections or reassembled from a different lattice.
type Cell struct {
	ID       string
	Polygon  orb.Polygon // tile-local pixel space
	Centroid orb.Point   // tile-local pixel space, for output geometry fallback
}

// cellID derives the stable string ID from the cell polygon's first vertex
// expressed in global pixel space: "<origin_gx+v0.x>:<origin_gy+v0.y>".
func cellID(originGX, originGY float64, firstVertexLocal orb.Point) string {
	gx := originGX + firstVertexLocal[0]
	gy := originGY + firstVertexLocal[1]
	return fmt.Sprintf("%.4f:%.4f", gx, gy)
}

func centroidOf(geom orb.Geometry) orb.Point {
	if geom == nil {
		return orb.Point{}
	}
	if p, ok := geom.(orb.Point); ok {
		return p
	}
	b := geom.Bound()
	return orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
}
