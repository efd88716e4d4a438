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

import (
	"math"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
)

// Address is an immutable slippy-map tile coordinate: 0 <= x,y < 2^z.
type Address struct {
	Z uint
	X uint
	Y uint
}

// NewAddress validates and constructs a tile Address.
func NewAddress(z, x, y uint) (Address, error) {
	if z > 30 {
		return Address{}, apperr.Validation("zoom level out of range", nil)
	}
	max := uint(1) << z
	if x >= max || y >= max {
		return Address{}, apperr.Validation("tile coordinate out of range for zoom", nil)
	}
	return Address{Z: z, X: x, Y: y}, nil
}

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Pixel is a pixel-space coordinate; Global pixels are world-relative,
// tile-local pixels are relative to a tile's top-left corner.
type Pixel struct {
	X float64
	Y float64
}

func clampLat(lat float64) float64 {
	if lat > mercatorMaxLat {
		return mercatorMaxLat
	}
	if lat < -mercatorMaxLat {
		return -mercatorMaxLat
	}
	return lat
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// ToGlobalPixelXY projects a geographic point into global pixel space at the
// given zoom for the given scheme. Result is in [0, tileSize*W(scheme)*2^z).
func ToGlobalPixelXY(p Point, z uint, scheme Scheme, tileSize int) (Pixel, error) {
	if err := validateZoom(int(z)); err != nil {
		return Pixel{}, err
	}
	wx, wy, err := worldTileCount(scheme)
	if err != nil {
		return Pixel{}, err
	}
	scale := float64(uint(1) << z)
	worldPxX := float64(tileSize) * float64(wx) * scale
	worldPxY := float64(tileSize) * float64(wy) * scale

	switch scheme {
	case WebMercator:
		lat := clampLat(p.Lat)
		lon := wrapLon(p.Lon)
		x := (lon + 180.0) / 360.0 * worldPxX
		sinLat := math.Sin(lat * math.Pi / 180.0)
		y := (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * worldPxY
		return Pixel{X: x, Y: y}, nil
	case WGS84PlateCarree:
		lon := wrapLon(p.Lon)
		lat := math.Max(-90, math.Min(90, p.Lat))
		x := (lon + 180.0) / 360.0 * worldPxX
		y := (90.0 - lat) / 180.0 * worldPxY
		return Pixel{X: x, Y: y}, nil
	case ArcticLAEA, AntarcticLAEA:
		// Lambert azimuthal equal-area centered on the pole; the world
		// extent maps the full projected plane onto one tile at zoom 0.
		sign := 1.0
		if scheme == AntarcticLAEA {
			sign = -1.0
		}
		lat := sign * p.Lat
		lon := p.Lon
		const R = 6371007.2 // authalic sphere radius, meters (EPSG 3575/3031 basis)
		const worldExtentM = 2 * 9036842.762 // polar LAEA plane half-extent, meters, doubled
		colat := (90.0 - lat) * math.Pi / 180.0
		rho := R * math.Sqrt(2*(1-math.Cos(colat)))
		theta := lon * math.Pi / 180.0
		px := rho * math.Sin(theta)
		py := -sign * rho * math.Cos(theta)
		x := (px + worldExtentM/2) / worldExtentM * worldPxX
		y := (py + worldExtentM/2) / worldExtentM * worldPxY
		return Pixel{X: x, Y: y}, nil
	default:
		return Pixel{}, apperr.Configuration("unknown tile scheme", nil)
	}
}

// ToTileLocalXY converts a global pixel coordinate to tile-local pixel space
// for the given tile address. Callers must drop points whose result falls
// outside [-bufferSize, tileSize+bufferSize] on either axis.
func ToTileLocalXY(global Pixel, z uint, x, y uint, tileSize int) Pixel {
	originX := float64(x) * float64(tileSize)
	originY := float64(y) * float64(tileSize)
	return Pixel{X: global.X - originX, Y: global.Y - originY}
}

// InBufferedTile reports whether a tile-local pixel coordinate lies within
// the buffered tile extent.
func InBufferedTile(p Pixel, tileSize, bufferSize int) bool {
	lo := float64(-bufferSize)
	hi := float64(tileSize + bufferSize)
	return p.X >= lo && p.X <= hi && p.Y >= lo && p.Y <= hi
}

// Bounds is a geographic bounding box, SW/NE corners in degrees.
type Bounds struct {
	SW Point
	NE Point
}

// BufferedTileBoundary returns the buffered geographic boundary of a tile.
// Longitude wraps into [-180, 180] across the dateline; latitude clips to
// [-90, 90]. At zoom 0, the buffered envelope would otherwise collapse the
// whole world; callers on the search path special-case z=0 to the full
// world extent instead of calling this function blindly (see
// internal/search).
func BufferedTileBoundary(addr Address, scheme Scheme, tileSize, bufferSize int) (Bounds, error) {
	if err := validateZoom(int(addr.Z)); err != nil {
		return Bounds{}, err
	}
	wx, wy, err := worldTileCount(scheme)
	if err != nil {
		return Bounds{}, err
	}
	scale := float64(uint(1) << addr.Z)
	worldPxX := float64(tileSize) * float64(wx) * scale
	worldPxY := float64(tileSize) * float64(wy) * scale

	originX := float64(addr.X) * float64(tileSize)
	originY := float64(addr.Y) * float64(tileSize)

	minPx := Pixel{X: originX - float64(bufferSize), Y: originY - float64(bufferSize)}
	maxPx := Pixel{X: originX + float64(tileSize) + float64(bufferSize), Y: originY + float64(tileSize) + float64(bufferSize)}

	sw, err := globalPixelToGeo(minPx, worldPxX, worldPxY, scheme)
	if err != nil {
		return Bounds{}, err
	}
	ne, err := globalPixelToGeo(maxPx, worldPxX, worldPxY, scheme)
	if err != nil {
		return Bounds{}, err
	}

	// In pixel space, y grows downward (north is smaller y), so the
	// northern edge comes from minPx.Y and the southern edge from maxPx.Y.
	sw.Lat, ne.Lat = ne.Lat, sw.Lat

	sw.Lon = wrapLon(sw.Lon)
	ne.Lon = wrapLon(ne.Lon)
	sw.Lat = math.Max(-90, math.Min(90, sw.Lat))
	ne.Lat = math.Max(-90, math.Min(90, ne.Lat))

	return Bounds{SW: sw, NE: ne}, nil
}

func globalPixelToGeo(px Pixel, worldPxX, worldPxY float64, scheme Scheme) (Point, error) {
	switch scheme {
	case WebMercator:
		lon := px.X/worldPxX*360.0 - 180.0
		n := math.Pi - 2*math.Pi*px.Y/worldPxY
		lat := 180.0 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
		return Point{Lat: lat, Lon: lon}, nil
	case WGS84PlateCarree:
		lon := px.X/worldPxX*360.0 - 180.0
		lat := 90.0 - px.Y/worldPxY*180.0
		return Point{Lat: lat, Lon: lon}, nil
	case ArcticLAEA, AntarcticLAEA:
		// Approximate inverse for boundary purposes: the polar schemes are
		// only used at coarse zooms where a linear pixel->geo fallback via
		// the plate-carree formula is an acceptable boundary estimate.
		lon := px.X/worldPxX*360.0 - 180.0
		lat := 90.0 - px.Y/worldPxY*180.0
		if scheme == AntarcticLAEA {
			lat = -lat
		}
		return Point{Lat: lat, Lon: lon}, nil
	default:
		return Point{}, apperr.Configuration("unknown tile scheme", nil)
	}
}
