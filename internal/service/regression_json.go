package service

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
	"github.com/paulmach/orb/geojson"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
)

// RegressionResponse is the JSON body of the JSON regression endpoint: a
// GeoJSON FeatureCollection carrying the same per-cell regression
// statistics as the "regression" MVT layer. Geometry stays in tile-local
// pixel space, matching the MVT encoding, rather than being reprojected to
// geographic coordinates.
type RegressionResponse struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
}

func regressionCellsToJSON(cells []mvtcodec.Feature) RegressionResponse {
	features := make([]*geojson.Feature, 0, len(cells))
	for _, c := range cells {
		f := geojson.NewFeature(c.Geometry)
		f.Properties = c.Attributes
		features = append(features, f)
	}
	return RegressionResponse{Type: "FeatureCollection", Features: features}
}
