package assembler

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

	"github.com/biodiversity-maps/occurrence-tileserver/internal/binning"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/tilemath"
)

func TestMaybeBinPassesThroughWhenSpecNil(t *testing.T) {
	features := []mvtcodec.Feature{{Geometry: orb.Point{10, 10}, Attributes: map[string]interface{}{"total": int64(1)}}}
	addr, _ := tilemath.NewAddress(4, 2, 2)

	out, err := maybeBin(features, addr, 4096, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected passthrough of 1 feature, got %d", len(out))
	}
}

func TestMaybeBinEmptyInputBypassesBinning(t *testing.T) {
	addr, _ := tilemath.NewAddress(4, 2, 2)
	spec := &binning.Spec{Kind: binning.Hex, CellsPerTile: 8}

	out, err := maybeBin(nil, addr, 4096, spec)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Fatalf("expected nil output for empty input, got %v", out)
	}
}

func TestMaybeBinReBinsOntoLattice(t *testing.T) {
	addr, _ := tilemath.NewAddress(4, 2, 2)
	spec := &binning.Spec{Kind: binning.Square, CellPixels: 256}

	features := []mvtcodec.Feature{
		{Geometry: orb.Point{10, 10}, Attributes: map[string]interface{}{"total": int64(2)}},
		{Geometry: orb.Point{12, 14}, Attributes: map[string]interface{}{"total": int64(3)}},
	}

	out, err := maybeBin(features, addr, 4096, spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected both points to land in one cell, got %d cells", len(out))
	}
	if out[0].Attributes["total"] != int64(5) {
		t.Fatalf("expected merged total 5, got %v", out[0].Attributes["total"])
	}
}

func TestEncodeEmptyFeaturesProducesValidEmptyTile(t *testing.T) {
	data, err := encode(4096, 256, nil)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := mvtcodec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected no features in an empty tile, got %d", len(decoded))
	}
}

func TestApplyFiltersDropsEmptyFeaturesAfterYearFilter(t *testing.T) {
	features := []mvtcodec.Feature{
		{Geometry: orb.Point{1, 1}, Attributes: map[string]interface{}{"1999": int64(4)}},
		{Geometry: orb.Point{2, 2}, Attributes: map[string]interface{}{"2005": int64(9)}},
	}
	out := applyFilters(features, Filters{Years: YearRange{Lower: 2000}})
	if len(out) != 1 {
		t.Fatalf("expected exactly 1 surviving feature, got %d", len(out))
	}
	if out[0].Attributes["total"] != int64(9) {
		t.Fatalf("expected surviving feature's total to be 9, got %v", out[0].Attributes["total"])
	}
}
