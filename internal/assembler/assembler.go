// Package assembler implements the Tile Assembler: it orchestrates the
// Tile Store Adapter or Search Backend Adapter, applies request filters,
// optionally re-bins onto a hex or square lattice via the Binning Engine,
// and hands the result to the Vector Tile Codec for encoding.
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
	"context"

	"github.com/paulmach/orb"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/binning"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/metastore"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/mvtcodec"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/regression"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/search"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/store"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/tilemath"
)

// tileStore is the subset of *store.Adapter the Assembler depends on,
// narrowed to an interface so tests can exercise fetchFeatures and the
// points-table fallback without a live Bigtable connection.
type tileStore interface {
	GetTile(ctx context.Context, table, mapKey string, z, x, y uint) ([]byte, bool, error)
	GetPoints(ctx context.Context, table, mapKey string, bbox store.BBox) (<-chan store.Point, <-chan error)
}

// Assembler wires the store, search, and metastore dependencies together
// into the three tile-producing operations the service layer exposes. It
// holds no per-request state and is safe for concurrent use.
type Assembler struct {
	store      tileStore
	search     *search.Adapter
	meta       metastore.Metastore
	tileSize   int
	bufferSize int
}

// New constructs an Assembler. search may be nil when the deployment has no
// ad-hoc search backend configured; Adhoc then always returns a
// configuration error.
func New(storeAdapter *store.Adapter, searchAdapter *search.Adapter, meta metastore.Metastore, tileSize, bufferSize int) *Assembler {
	return &Assembler{store: storeAdapter, search: searchAdapter, meta: meta, tileSize: tileSize, bufferSize: bufferSize}
}

// HasSearch reports whether an ad-hoc search backend is configured.
func (a *Assembler) HasSearch() bool {
	return a.search != nil
}

// Ping resolves the tiles table name through the Metastore, giving callers a
// cheap way to confirm the metastore is reachable and configured without
// touching the Tile Store Adapter or Search Backend Adapter themselves.
func (a *Assembler) Ping(ctx context.Context) error {
	_, err := a.meta.Resolve(metastore.TableTiles)
	return err
}

// Density assembles a pre-aggregated density tile for mapKey from the tile
// store, applying filters and an optional re-bin. scheme governs how a
// tile-cache miss falls back to a direct points-table scan (spec.md §4.3).
func (a *Assembler) Density(ctx context.Context, addr tilemath.Address, mapKey string, scheme tilemath.Scheme, filters Filters, bin *binning.Spec) ([]byte, error) {
	table, err := a.meta.Resolve(metastore.TableTiles)
	if err != nil {
		return nil, err
	}

	decoded, err := a.fetchFeatures(ctx, table, mapKey, addr, scheme)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return emptyTile(a.tileSize, a.bufferSize)
	}

	features := applyFilters(decoded, filters)
	features, err = maybeBin(features, addr, a.tileSize, bin)
	if err != nil {
		return nil, err
	}

	return encode(a.tileSize, a.bufferSize, features)
}

// Adhoc assembles a tile from the search backend for arbitrary predicates
// that are not pre-materialised in the tile store.
func (a *Assembler) Adhoc(ctx context.Context, addr tilemath.Address, filters Filters, bin *binning.Spec) ([]byte, error) {
	if a.search == nil {
		return nil, apperr.Configuration("no search backend configured", nil)
	}

	searchFilters := search.Filters{
		Years:         search.YearRange{Lower: filters.Years.Lower, Upper: filters.Years.Upper},
		BasisOfRecord: filters.BasisOfRecord,
		Verbose:       filters.Verbose,
	}

	decoded, err := a.search.Query(ctx, addr, a.tileSize, a.bufferSize, searchFilters, filters.Predicates)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return emptyTile(a.tileSize, a.bufferSize)
	}

	features := applyFilters(decoded, filters)
	features, err = maybeBin(features, addr, a.tileSize, bin)
	if err != nil {
		return nil, err
	}

	return encode(a.tileSize, a.bufferSize, features)
}

// Regression assembles a regression tile by pairing mapKey's density tile
// (the target taxon) against higherTaxonKey's density tile (the reference),
// cell-by-cell, and fitting a trend line per cell via the Regression Engine.
func (a *Assembler) Regression(ctx context.Context, addr tilemath.Address, mapKey, higherTaxonKey string, scheme tilemath.Scheme, minYears int) ([]byte, error) {
	result, err := a.regressionCells(ctx, addr, mapKey, higherTaxonKey, scheme, minYears)
	if err != nil {
		return nil, err
	}
	return encode(a.tileSize, a.bufferSize, result)
}

// RegressionCells runs the same pairing and OLS fit as Regression but
// returns the qualifying cells directly, for the JSON regression endpoint.
func (a *Assembler) RegressionCells(ctx context.Context, addr tilemath.Address, mapKey, higherTaxonKey string, scheme tilemath.Scheme, minYears int) ([]mvtcodec.Feature, error) {
	return a.regressionCells(ctx, addr, mapKey, higherTaxonKey, scheme, minYears)
}

func (a *Assembler) regressionCells(ctx context.Context, addr tilemath.Address, mapKey, higherTaxonKey string, scheme tilemath.Scheme, minYears int) ([]mvtcodec.Feature, error) {
	table, err := a.meta.Resolve(metastore.TableTiles)
	if err != nil {
		return nil, err
	}

	speciesFeatures, err := a.fetchFeatures(ctx, table, mapKey, addr, scheme)
	if err != nil {
		return nil, err
	}
	referenceFeatures, err := a.fetchFeatures(ctx, table, higherTaxonKey, addr, scheme)
	if err != nil {
		return nil, err
	}
	if len(speciesFeatures) == 0 || len(referenceFeatures) == 0 {
		return nil, nil
	}

	result := regression.Regress(speciesFeatures, referenceFeatures, minYears)
	for i := range result {
		result[i].Layer = "regression"
	}
	return result, nil
}

// fetchFeatures returns the decoded features for mapKey at addr, falling
// back to a direct points-table scan (binned to nothing; one feature per
// point) when the tile cache has nothing stored for this key/zoom.
func (a *Assembler) fetchFeatures(ctx context.Context, table, mapKey string, addr tilemath.Address, scheme tilemath.Scheme) ([]mvtcodec.Feature, error) {
	raw, found, err := a.store.GetTile(ctx, table, mapKey, addr.Z, addr.X, addr.Y)
	if err != nil {
		return nil, err
	}
	if found {
		return mvtcodec.Decode(raw)
	}
	return a.fetchPointFallback(ctx, mapKey, addr, scheme)
}

// fetchPointFallback scans the points table within the tile's buffered
// boundary (spec.md §4.3: "used only when the tile cache is not populated")
// and projects each point into a single-count feature in tile-local pixel
// space, ready for the same filter/bin pipeline as a stored tile.
func (a *Assembler) fetchPointFallback(ctx context.Context, mapKey string, addr tilemath.Address, scheme tilemath.Scheme) ([]mvtcodec.Feature, error) {
	pointsTable, err := a.meta.Resolve(metastore.TablePoints)
	if err != nil {
		return nil, err
	}
	bounds, err := tilemath.BufferedTileBoundary(addr, scheme, a.tileSize, a.bufferSize)
	if err != nil {
		return nil, err
	}
	bbox := store.BBox{MinLat: bounds.SW.Lat, MinLon: bounds.SW.Lon, MaxLat: bounds.NE.Lat, MaxLon: bounds.NE.Lon}

	points, errc := a.store.GetPoints(ctx, pointsTable, mapKey, bbox)

	var features []mvtcodec.Feature
	for p := range points {
		global, err := tilemath.ToGlobalPixelXY(tilemath.Point{Lat: p.Lat, Lon: p.Lon}, addr.Z, scheme, a.tileSize)
		if err != nil {
			continue
		}
		local := tilemath.ToTileLocalXY(global, addr.Z, addr.X, addr.Y, a.tileSize)
		if !tilemath.InBufferedTile(local, a.tileSize, a.bufferSize) {
			continue
		}
		features = append(features, mvtcodec.Feature{
			Layer:      "occurrence",
			Geometry:   orb.Point{local.X, local.Y},
			Attributes: map[string]interface{}{"total": int64(1)},
		})
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return features, nil
}

// applyFilters runs Filters.apply over every feature's attributes, dropping
// features whose year range leaves nothing behind.
func applyFilters(features []mvtcodec.Feature, filters Filters) []mvtcodec.Feature {
	out := make([]mvtcodec.Feature, 0, len(features))
	for _, f := range features {
		attrs, keep := filters.apply(f.Attributes)
		if !keep {
			continue
		}
		f.Attributes = attrs
		out = append(out, f)
	}
	return out
}

// maybeBin re-projects features onto the requested lattice, bypassing
// binning entirely when bin is nil or the input is empty (binning.Bin's
// NoData sentinel is an internal signal, never a user-facing error).
func maybeBin(features []mvtcodec.Feature, addr tilemath.Address, tileSize int, bin *binning.Spec) ([]mvtcodec.Feature, error) {
	if bin == nil || len(features) == 0 {
		return features, nil
	}

	originGX := float64(addr.X) * float64(tileSize)
	originGY := float64(addr.Y) * float64(tileSize)

	binned, err := binning.Bin(features, originGX, originGY, tileSize, *bin)
	if err != nil {
		if apperr.IsNoData(err) {
			return nil, nil
		}
		return nil, err
	}
	return binned, nil
}

func encode(tileSize, bufferSize int, features []mvtcodec.Feature) ([]byte, error) {
	if len(features) == 0 {
		return emptyTile(tileSize, bufferSize)
	}
	return mvtcodec.EncodeFeatures(tileSize, bufferSize, features)
}

func emptyTile(tileSize, bufferSize int) ([]byte, error) {
	return mvtcodec.EncodeFeatures(tileSize, bufferSize, nil)
}
