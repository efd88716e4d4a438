package tilemath

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

import "testing"

func TestNewAddressRejectsOutOfRange(t *testing.T) {
	if _, err := NewAddress(3, 8, 0); err == nil {
		t.Fatal("expected error for x >= 2^z")
	}
	if _, err := NewAddress(31, 0, 0); err == nil {
		t.Fatal("expected error for zoom > 30")
	}
	if _, err := NewAddress(3, 5, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToGlobalPixelXYMercatorClampsLatitude(t *testing.T) {
	px, err := ToGlobalPixelXY(Point{Lat: 89, Lon: 0}, 0, WebMercator, 512)
	if err != nil {
		t.Fatal(err)
	}
	pxClamped, err := ToGlobalPixelXY(Point{Lat: mercatorMaxLat, Lon: 0}, 0, WebMercator, 512)
	if err != nil {
		t.Fatal(err)
	}
	if px.Y != pxClamped.Y {
		t.Fatalf("expected latitude clamp, got %v vs %v", px.Y, pxClamped.Y)
	}
}

func TestToGlobalPixelXYWGS84LongitudeWrap(t *testing.T) {
	a, err := ToGlobalPixelXY(Point{Lat: 0, Lon: 190}, 1, WGS84PlateCarree, 512)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ToGlobalPixelXY(Point{Lat: 0, Lon: -170}, 1, WGS84PlateCarree, 512)
	if err != nil {
		t.Fatal(err)
	}
	if a.X != b.X {
		t.Fatalf("expected wrapped longitudes to project identically, got %v vs %v", a.X, b.X)
	}
}

func TestToTileLocalXYSubtractsOrigin(t *testing.T) {
	global := Pixel{X: 1536, Y: 512}
	local := ToTileLocalXY(global, 2, 3, 1, 512)
	if local.X != 0 || local.Y != 0 {
		t.Fatalf("expected origin-relative (0,0), got %+v", local)
	}
}

func TestInBufferedTile(t *testing.T) {
	if !InBufferedTile(Pixel{X: -64, Y: -64}, 512, 64) {
		t.Fatal("expected point on buffer edge to be in range")
	}
	if InBufferedTile(Pixel{X: -65, Y: 0}, 512, 64) {
		t.Fatal("expected point beyond buffer to be out of range")
	}
}

func TestBufferedTileBoundaryDatelineWrap(t *testing.T) {
	z := uint(2)
	max := uint(1)<<z - 1

	west, err := NewAddress(z, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	east, err := NewAddress(z, max, 1)
	if err != nil {
		t.Fatal(err)
	}

	wb, err := BufferedTileBoundary(west, WGS84PlateCarree, 512, 64)
	if err != nil {
		t.Fatal(err)
	}
	eb, err := BufferedTileBoundary(east, WGS84PlateCarree, 512, 64)
	if err != nil {
		t.Fatal(err)
	}

	// The west tile's buffered west edge should wrap to a longitude close
	// to the east tile's buffered east edge (both near +/-180).
	if wb.SW.Lon < 0 {
		t.Fatalf("expected west tile's wrapped west edge near +180, got %v", wb.SW.Lon)
	}
	if eb.NE.Lon > 0 {
		t.Fatalf("expected east tile's wrapped east edge near -180, got %v", eb.NE.Lon)
	}
}

func TestBufferedTileBoundaryRejectsBadZoom(t *testing.T) {
	addr := Address{Z: 40}
	if _, err := BufferedTileBoundary(addr, WebMercator, 512, 64); err == nil {
		t.Fatal("expected error for invalid zoom")
	}
}
