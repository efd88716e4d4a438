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
	"testing"

	"github.com/paulmach/orb"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
)

func TestBinEmptyFeaturesReturnsNoData(t *testing.T) {
	_, err := Bin(nil, 0, 0, 512, Spec{Kind: Hex, CellsPerTile: 35})
	if !apperr.IsNoData(err) {
		t.Fatalf("expected NoData sentinel, got %v", err)
	}
}

func TestBinHexClustersPointsIntoOneCell(t *testing.T) {
	var features []mvtcodec.Feature
	for i := 0; i < 100; i++ {
		features = append(features, mvtcodec.Feature{
			Geometry:   orb.Point{240 + float64(i%3), 240 + float64(i%3)},
			Attributes: map[string]interface{}{"total": int64(1)},
		})
	}

	out, err := Bin(features, 0, 0, 512, Spec{Kind: Hex, CellsPerTile: 35})
	if err != nil {
		t.Fatalf("bin: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single hex cell, got %d", len(out))
	}
	total, ok := out[0].Attributes["total"].(int64)
	if !ok || total != 100 {
		t.Fatalf("expected total=100, got %v", out[0].Attributes["total"])
	}
	if _, ok := out[0].Geometry.(orb.Polygon); !ok {
		t.Fatalf("expected polygon geometry, got %T", out[0].Geometry)
	}
}

func TestHexBinStableAcrossAdjacentTiles(t *testing.T) {
	tileSize := 512
	side := float64(tileSize) / 35.0

	// A point near the shared edge between tile (x=0) and tile (x=1),
	// expressed in each tile's local pixel space via its own buffer.
	globalX := 500.0
	globalY := 100.0

	localInTileZero := orb.Point{globalX - 0, globalY - 0}
	localInTileOne := orb.Point{globalX - float64(tileSize), globalY - 0}

	f0 := []mvtcodec.Feature{{Geometry: localInTileZero, Attributes: map[string]interface{}{"total": int64(1)}}}
	f1 := []mvtcodec.Feature{{Geometry: localInTileOne, Attributes: map[string]interface{}{"total": int64(1)}}}

	out0, err := Bin(f0, 0, 0, tileSize, Spec{Kind: Hex, CellsPerTile: 35})
	if err != nil {
		t.Fatal(err)
	}
	out1, err := Bin(f1, float64(tileSize), 0, tileSize, Spec{Kind: Hex, CellsPerTile: 35})
	if err != nil {
		t.Fatal(err)
	}

	cell0 := out0[0].Geometry.(orb.Polygon)[0][0]
	cell1 := out1[0].Geometry.(orb.Polygon)[0][0]

	global0 := orb.Point{cell0[0], cell0[1]}
	global1 := orb.Point{cell1[0] + float64(tileSize), cell1[1]}

	if global0 != global1 {
		t.Fatalf("expected identical cell identity across tiles, got %v vs %v (side=%.2f)", global0, global1, side)
	}
}

func TestSquareBinAssignsDeterministicCell(t *testing.T) {
	features := []mvtcodec.Feature{
		{Geometry: orb.Point{10, 10}, Attributes: map[string]interface{}{"total": int64(3)}},
		{Geometry: orb.Point{20, 20}, Attributes: map[string]interface{}{"total": int64(4)}},
	}
	out, err := Bin(features, 0, 0, 512, Spec{Kind: Square, CellPixels: 64})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected both points in one 64px square cell, got %d cells", len(out))
	}
	if out[0].Attributes["total"].(int64) != 7 {
		t.Fatalf("expected summed total=7, got %v", out[0].Attributes["total"])
	}
}
