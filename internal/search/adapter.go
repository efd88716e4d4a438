// Package search implements the Search Backend Adapter: for ad-hoc filter
// queries it submits a geogrid aggregation bounded by the buffered tile
// envelope and emits features shaped like the Tile Store Adapter's output,
// so the Assembler can treat either source uniformly.
package search

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
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"
	"github.com/paulmach/orb"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/tilemath"
)

const (
	geoField        = "location"
	yearField       = "year"
	gridAggName     = "grid"
	yearsAggName    = "years"
	defaultGridSize = 128 // max buckets requested per aggregation
)

// Adapter submits geogrid aggregations against an Elasticsearch index. Only
// WGS84 is supported on this path. The client is shared across requests and
// is safe for concurrent use.
type Adapter struct {
	client *elastic.Client
	index  string
}

// New wraps an already-connected Elasticsearch client.
func New(client *elastic.Client, index string) *Adapter {
	return &Adapter{client: client, index: index}
}

// Predicate is an arbitrary occurrence-search filter term (taxon key,
// dataset key, country, coordinates-present, etc.), translated to an ES
// term query.
type Predicate struct {
	Field string
	Value string
}

// Query bounds a geogrid aggregation to the tile's buffered envelope,
// applies filters/predicates, and returns one point feature per bucket: the
// geohash cell's centre projected to tile-local pixels. Cell bounds are never
// emitted as polygons; the caller may re-bin the points via the Binning
// Engine.
func (a *Adapter) Query(ctx context.Context, addr tilemath.Address, tileSize, bufferSize int, filters Filters, predicates []Predicate) ([]mvtcodec.Feature, error) {
	if addr.Z != 0 {
		bounds, err := tilemath.BufferedTileBoundary(addr, tilemath.WGS84PlateCarree, tileSize, bufferSize)
		if err != nil {
			return nil, err
		}
		return a.queryBounds(ctx, addr, tileSize, bounds, filters, predicates)
	}

	// At zoom 0 the buffered envelope's longitude wrap collapses the
	// world; query the full world extent instead (spec.md §9).
	full := tilemath.Bounds{
		SW: tilemath.Point{Lat: -90, Lon: -180},
		NE: tilemath.Point{Lat: 90, Lon: 180},
	}
	return a.queryBounds(ctx, addr, tileSize, full, filters, predicates)
}

func (a *Adapter) queryBounds(ctx context.Context, addr tilemath.Address, tileSize int, bounds tilemath.Bounds, filters Filters, predicates []Predicate) ([]mvtcodec.Feature, error) {
	query := elastic.NewBoolQuery()
	query.Filter(elastic.NewGeoBoundingBoxQuery(geoField).
		TopLeft(bounds.NE.Lat, bounds.SW.Lon).
		BottomRight(bounds.SW.Lat, bounds.NE.Lon))

	if filters.Years.HasLower() || filters.Years.HasUpper() {
		rangeQuery := elastic.NewRangeQuery(yearField)
		if filters.Years.HasLower() {
			rangeQuery = rangeQuery.Gte(filters.Years.Lower)
		}
		if filters.Years.HasUpper() {
			rangeQuery = rangeQuery.Lte(filters.Years.Upper)
		}
		query.Filter(rangeQuery)
	}
	if len(filters.BasisOfRecord) > 0 {
		query.Filter(elastic.NewTermsQuery("basisOfRecord", toInterfaceSlice(filters.BasisOfRecord)...))
	}
	for _, p := range predicates {
		query.Filter(elastic.NewTermQuery(p.Field, p.Value))
	}

	yearsAgg := elastic.NewTermsAggregation().Field(yearField).Size(200)
	gridAgg := elastic.NewGeoHashGridAggregation().
		Field(geoField).
		Precision(precisionFor(addr.Z)).
		Size(defaultGridSize).
		SubAggregation(yearsAggName, yearsAgg)

	result, err := a.client.Search().
		Index(a.index).
		Query(query).
		Size(0).
		Aggregation(gridAggName, gridAgg).
		Do(ctx)
	if err != nil {
		return nil, apperr.Backend("search backend query failed", err)
	}

	grid, found := result.Aggregations.GeoHash(gridAggName)
	if !found {
		return nil, nil
	}

	var features []mvtcodec.Feature
	for _, bucket := range grid.Buckets {
		attrs := map[string]interface{}{}
		if yearsBucket, ok := bucket.Aggregations.Terms(yearsAggName); ok {
			for _, yb := range yearsBucket.Buckets {
				key := fmt.Sprintf("%v", yb.Key)
				attrs[key] = yb.DocCount
			}
		} else {
			attrs["total"] = bucket.DocCount
		}

		geom, err := bucketGeometry(bucket.Key, addr, tileSize)
		if err != nil {
			continue
		}
		features = append(features, mvtcodec.Feature{
			Layer:      "occurrence",
			Geometry:   geom,
			Attributes: attrs,
		})
	}
	return features, nil
}

// bucketGeometry decodes a geohash bucket key into its cell bounds and
// projects the centroid into tile-local pixel space as a point feature;
// downstream binning (if requested) re-bins it onto the lattice.
func bucketGeometry(geohash string, addr tilemath.Address, tileSize int) (orb.Geometry, error) {
	lat, lon, err := decodeGeohashCenter(geohash)
	if err != nil {
		return nil, err
	}
	global, err := tilemath.ToGlobalPixelXY(tilemath.Point{Lat: lat, Lon: lon}, addr.Z, tilemath.WGS84PlateCarree, tileSize)
	if err != nil {
		return nil, err
	}
	local := tilemath.ToTileLocalXY(global, addr.Z, addr.X, addr.Y, tileSize)
	return orb.Point{local.X, local.Y}, nil
}

func precisionFor(z uint) int {
	// Coarser geohash precision at low zoom, finer at high zoom, capped to
	// the geohash grid aggregation's supported range [1, 12].
	p := int(z)/2 + 2
	if p < 1 {
		p = 1
	}
	if p > 12 {
		p = 12
	}
	return p
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Filters mirrors internal/assembler.Filters for the subset relevant to the
// search path.
type Filters struct {
	Years         YearRange
	BasisOfRecord []string
	Verbose       bool
}

// YearRange is an inclusive [Lower, Upper] filter; a zero value on either
// bound means "unbounded" on that side.
type YearRange struct {
	Lower, Upper int
}

func (r YearRange) HasLower() bool { return r.Lower > 0 }
func (r YearRange) HasUpper() bool { return r.Upper > 0 }

func decodeGeohashCenter(hash string) (lat, lon float64, err error) {
	if hash == "" {
		return 0, 0, apperr.Codec("empty geohash bucket key", nil)
	}
	const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}
	even := true
	for _, c := range hash {
		idx := indexOf(base32, byte(c))
		if idx < 0 {
			return 0, 0, apperr.Codec("invalid geohash character", nil)
		}
		for bit := 4; bit >= 0; bit-- {
			bitVal := (idx >> uint(bit)) & 1
			if even {
				mid := (lonRange[0] + lonRange[1]) / 2
				if bitVal == 1 {
					lonRange[0] = mid
				} else {
					lonRange[1] = mid
				}
			} else {
				mid := (latRange[0] + latRange[1]) / 2
				if bitVal == 1 {
					latRange[0] = mid
				} else {
					latRange[1] = mid
				}
			}
			even = !even
		}
	}
	return (latRange[0] + latRange[1]) / 2, (lonRange[0] + lonRange[1]) / 2, nil
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
