package mvtcodec

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
)

func TestRoundTripPreservesIntegerCoordinates(t *testing.T) {
	features := []Feature{
		{
			Layer:      "occurrence",
			Geometry:   orb.Point{100, 200},
			Attributes: map[string]interface{}{"2000": int64(5)},
		},
		{
			Layer:      "occurrence",
			Geometry:   orb.Point{300, 50},
			Attributes: map[string]interface{}{"2001": int64(7)},
		},
	}

	data, err := EncodeFeatures(512, 64, features)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty tile bytes")
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(features) {
		t.Fatalf("expected %d features, got %d", len(features), len(decoded))
	}

	for i, f := range decoded {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			t.Fatalf("feature %d: expected orb.Point, got %T", i, f.Geometry)
		}
		want := features[i].Geometry.(orb.Point)
		if pt[0] != want[0] || pt[1] != want[1] {
			t.Fatalf("feature %d: coordinate mismatch, want %v got %v", i, want, pt)
		}
	}
}

func TestFinalizeDropsOutOfBoundsFeatures(t *testing.T) {
	enc := NewEncoder(512, 64)
	enc.AddFeature("occurrence", Feature{Geometry: orb.Point{100, 100}})
	enc.AddFeature("occurrence", Feature{Geometry: orb.Point{10000, 10000}})

	data, err := enc.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 in-bounds feature to survive, got %d", len(decoded))
	}
}

func TestDecodeEmptyTile(t *testing.T) {
	decoded, err := Decode(nil)
	if err != nil {
		t.Fatalf("unexpected error for empty tile: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected no features, got %d", len(decoded))
	}
}

func TestDecodeMalformedTile(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	if err == nil {
		t.Fatal("expected codec error for malformed tile bytes")
	}
}
