// Package tilemath implements coordinate transforms between geographic,
// global-pixel, and tile-local pixel space for a fixed set of named tile
// schemes, plus the slippy-map tile address type.
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

import "github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"

// Scheme names a supported tile projection.
type Scheme string

const (
	WebMercator       Scheme = "EPSG:3857"
	WGS84PlateCarree  Scheme = "EPSG:4326"
	ArcticLAEA        Scheme = "EPSG:3575"
	AntarcticLAEA     Scheme = "EPSG:3031"
)

// mercatorMaxLat is the clamp applied to latitude before projecting with
// Web Mercator, beyond which the projection diverges.
const mercatorMaxLat = 85.05112878

// schemeDef captures the per-scheme constants needed to compute global pixel
// coordinates: how many tiles make up the world at zoom 0 along each axis.
type schemeDef struct {
	tilesAtZ0X int
	tilesAtZ0Y int
}

var schemes = map[Scheme]schemeDef{
	WebMercator:      {tilesAtZ0X: 1, tilesAtZ0Y: 1},
	WGS84PlateCarree: {tilesAtZ0X: 2, tilesAtZ0Y: 1},
	ArcticLAEA:       {tilesAtZ0X: 1, tilesAtZ0Y: 1},
	AntarcticLAEA:    {tilesAtZ0X: 1, tilesAtZ0Y: 1},
}

// ParseScheme validates a user-supplied SRS string against the supported set.
func ParseScheme(srs string) (Scheme, error) {
	if srs == "" {
		return WebMercator, nil
	}
	s := Scheme(srs)
	if _, ok := schemes[s]; !ok {
		return "", apperr.Validation("unsupported projection: "+srs, nil)
	}
	return s, nil
}

// worldTileCount returns how many tiles span the world along x and y at
// zoom 0 for the given scheme.
func worldTileCount(scheme Scheme) (int, int, error) {
	def, ok := schemes[scheme]
	if !ok {
		return 0, 0, apperr.Configuration("unknown tile scheme", nil)
	}
	return def.tilesAtZ0X, def.tilesAtZ0Y, nil
}

// validateZoom enforces the spec's zoom bound: 0 <= z <= 30.
func validateZoom(z int) error {
	if z < 0 || z > 30 {
		return apperr.Validation("zoom level out of range", nil)
	}
	return nil
}
