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
	"sort"

	"github.com/paulmach/orb"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
)

type aggregate struct {
	cell       Cell
	attributes map[string]interface{}
}

// Bin re-projects tile-local point features onto a global hex or square
// lattice, aggregating features that land in the same cell by summing their
// attribute maps. originGX/originGY are the tile's top-left corner in
// global pixel space (addr.X * tileSize, addr.Y * tileSize).
//
// Returns apperr.NoData if features is empty; the assembler is responsible
// for detecting that case and bypassing binning rather than propagating it.
func Bin(features []mvtcodec.Feature, originGX, originGY float64, tileSize int, spec Spec) ([]mvtcodec.Feature, error) {
	if len(features) == 0 {
		return nil, apperr.NoData
	}

	side, err := spec.sideLength(tileSize)
	if err != nil {
		return nil, err
	}

	cells := make(map[string]*aggregate)
	var order []string

	for _, f := range features {
		centroidLocal := centroidOf(f.Geometry)
		gx := originGX + centroidLocal[0]
		gy := originGY + centroidLocal[1]

		var cell Cell
		switch spec.Kind {
		case Hex:
			q, r := hexAxial(gx, gy, side)
			cx, cy := hexCenter(q, r, side)
			vertsGlobal := hexVertices(cx, cy, side)
			cell = buildCell(vertsGlobal, originGX, originGY)
		case Square:
			i, j := squareCell(gx, gy, side)
			vertsGlobal := squareVertices(i, j, side)
			cell = buildCell(vertsGlobal, originGX, originGY)
		default:
			return nil, apperr.Validation("unknown bin kind", nil)
		}

		agg, ok := cells[cell.ID]
		if !ok {
			agg = &aggregate{cell: cell, attributes: map[string]interface{}{}}
			cells[cell.ID] = agg
			order = append(order, cell.ID)
		}
		mergeAttributes(agg.attributes, f.Attributes)
	}

	sort.Strings(order)

	out := make([]mvtcodec.Feature, 0, len(order))
	for _, id := range order {
		agg := cells[id]
		out = append(out, mvtcodec.Feature{
			Layer:      "occurrence",
			Geometry:   agg.cell.Polygon,
			Attributes: agg.attributes,
		})
	}
	return out, nil
}

// buildCell converts a lattice cell's vertices (expressed in global pixel
// space) into a tile-local polygon plus its stable cross-tile identity.
func buildCell(vertsGlobal []orb.Point, originGX, originGY float64) Cell {
	ring := make(orb.Ring, 0, len(vertsGlobal)+1)
	for _, v := range vertsGlobal {
		ring = append(ring, orb.Point{v[0] - originGX, v[1] - originGY})
	}
	ring = append(ring, ring[0])

	id := cellID(originGX, originGY, ring[0])
	return Cell{
		ID:      id,
		Polygon: orb.Polygon{ring},
	}
}

// mergeAttributes sums int64-valued keys from src into dst, the aggregation
// rule for colliding cells (including across input layers).
func mergeAttributes(dst, src map[string]interface{}) {
	for k, v := range src {
		n, ok := toInt64(v)
		if !ok {
			dst[k] = v
			continue
		}
		if existing, ok := dst[k]; ok {
			if en, ok := toInt64(existing); ok {
				dst[k] = en + n
				continue
			}
		}
		dst[k] = n
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
