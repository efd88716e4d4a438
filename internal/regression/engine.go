package regression

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
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
)

var errTooFewYears = errors.New("fewer than minYears distinct years")

// Regress pairs cells present in both the species and reference tiles
// (matched by identical cell geometry, which is stable because both tiles
// were assembled at the same address with the same lattice parameters),
// fits OLS over (year, speciesCount/referenceCount) restricted to years
// where referenceCount > 0, and emits one "regression" layer feature per
// qualifying cell. Geometry is copied from the species tile.
func Regress(species, reference []mvtcodec.Feature, minYears int) []mvtcodec.Feature {
	refByKey := make(map[string]mvtcodec.Feature, len(reference))
	for _, f := range reference {
		refByKey[geometryKey(f.Geometry)] = f
	}

	var out []mvtcodec.Feature
	keys := make([]string, 0, len(species))
	speciesByKey := make(map[string]mvtcodec.Feature, len(species))
	for _, f := range species {
		k := geometryKey(f.Geometry)
		speciesByKey[k] = f
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sf := speciesByKey[k]
		rf, ok := refByKey[k]
		if !ok {
			continue
		}

		years, speciesCounts := yearCounts(sf.Attributes)
		_, refCounts := yearCounts(rf.Attributes)

		var xs, ys []float64
		var rawYears []int
		var rawSpecies, rawReference []int64
		for _, y := range years {
			rc, ok := refCounts[y]
			if !ok || rc <= 0 {
				continue
			}
			sc := speciesCounts[y]
			xs = append(xs, float64(y))
			ys = append(ys, float64(sc)/float64(rc))
			rawYears = append(rawYears, y)
			rawSpecies = append(rawSpecies, sc)
			rawReference = append(rawReference, rc)
		}

		stats, err := FitSeries(xs, ys, minYears)
		if err != nil {
			continue
		}

		attrs := map[string]interface{}{
			"slope":              stats.Slope,
			"intercept":          stats.Intercept,
			"significance":       stats.Significance,
			"sse":                stats.SSE,
			"interceptStdErr":    stats.InterceptStdErr,
			"meanSquareError":    stats.MeanSquareError,
			"slopeStdErr":        stats.SlopeStdErr,
		}
		for i, y := range rawYears {
			attrs[fmt.Sprintf("species_%d", y)] = rawSpecies[i]
			attrs[fmt.Sprintf("reference_%d", y)] = rawReference[i]
		}

		out = append(out, mvtcodec.Feature{
			Layer:      "regression",
			Geometry:   sf.Geometry,
			Attributes: attrs,
		})
	}

	return out
}

// geometryKey derives a stable join key for a cell feature from its
// geometry's first vertex, which is identical across the species and
// reference tiles when both were binned with the same lattice parameters.
func geometryKey(geom orb.Geometry) string {
	switch g := geom.(type) {
	case orb.Polygon:
		if len(g) > 0 && len(g[0]) > 0 {
			v := g[0][0]
			return fmt.Sprintf("%.4f:%.4f", v[0], v[1])
		}
	case orb.Point:
		return fmt.Sprintf("%.4f:%.4f", g[0], g[1])
	}
	return ""
}

// yearCounts extracts the year->count series from a feature's attribute
// map, ignoring non-integer keys (e.g. BASIS_OF_RECORD_*) per the filter
// rule in spec.md §9.
func yearCounts(attrs map[string]interface{}) ([]int, map[int]int64) {
	counts := make(map[int]int64)
	years := make([]int, 0, len(attrs))
	for k, v := range attrs {
		year, err := strconv.Atoi(k)
		if err != nil || year <= 0 {
			continue
		}
		n, ok := toInt64(v)
		if !ok {
			continue
		}
		counts[year] = n
		years = append(years, year)
	}
	sort.Ints(years)
	return years, counts
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
