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
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/conf"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/tilemath"
)

// parseAddress reads z/x/y path variables into a validated tilemath.Address.
func parseAddress(r *http.Request) (tilemath.Address, *appError) {
	vars := mux.Vars(r)
	return addressFromStrings(vars["z"], vars["x"], vars["y"])
}

// parseAddressFromQuery reads z/x/y query parameters into a validated
// tilemath.Address, for the path-less JSON regression route.
func parseAddressFromQuery(r *http.Request) (tilemath.Address, *appError) {
	q := r.URL.Query()
	return addressFromStrings(q.Get("z"), q.Get("x"), q.Get("y"))
}

func addressFromStrings(zs, xs, ys string) (tilemath.Address, *appError) {
	z, err := strconv.Atoi(zs)
	if err != nil {
		return tilemath.Address{}, appErrorBadRequest(err, "invalid or missing z")
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return tilemath.Address{}, appErrorBadRequest(err, "invalid or missing x")
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return tilemath.Address{}, appErrorBadRequest(err, "invalid or missing y")
	}
	if z < 0 || x < 0 || y < 0 {
		return tilemath.Address{}, appErrorBadRequest(nil, "tile coordinates must be non-negative")
	}

	addr, aerr := tilemath.NewAddress(uint(z), uint(x), uint(y))
	if aerr != nil {
		return tilemath.Address{}, appErrorFrom(aerr)
	}
	return addr, nil
}

func writeTile(w http.ResponseWriter, data []byte) *appError {
	w.Header().Set("Content-Type", ContentTypeMVT)
	maxAge := conf.Configuration.Cache.BrowserCacheMaxAge
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return appErrorInternal(err, "failed to write tile")
	}
	return nil
}

// handleDensityTile serves a pre-aggregated density tile for one map key
// from the tile store.
func handleDensityTile(w http.ResponseWriter, r *http.Request) *appError {
	addr, aerr := parseAddress(r)
	if aerr != nil {
		return aerr
	}
	mapKey, aerr := requireQueryParam(r, "mapKey")
	if aerr != nil {
		return aerr
	}
	scheme, aerr := parseScheme(r)
	if aerr != nil {
		return aerr
	}

	filters, aerr := parseFilters(r)
	if aerr != nil {
		return aerr
	}
	bin, aerr := parseBinSpec(r)
	if aerr != nil {
		return aerr
	}

	log.Debugf("density tile request: mapKey=%s z=%d x=%d y=%d", mapKey, addr.Z, addr.X, addr.Y)

	data, err := serviceInstance.assembler.Density(r.Context(), addr, mapKey, scheme, filters, bin)
	if err != nil {
		return appErrorFrom(err)
	}
	return writeTile(w, data)
}

// handleAdhocTile serves a tile assembled on demand from the search
// backend for arbitrary filter predicates.
func handleAdhocTile(w http.ResponseWriter, r *http.Request) *appError {
	addr, aerr := parseAddress(r)
	if aerr != nil {
		return aerr
	}
	filters, aerr := parseFilters(r)
	if aerr != nil {
		return aerr
	}
	bin, aerr := parseBinSpec(r)
	if aerr != nil {
		return aerr
	}

	log.Debugf("adhoc tile request: z=%d x=%d y=%d predicates=%d", addr.Z, addr.X, addr.Y, len(filters.Predicates))

	data, err := serviceInstance.assembler.Adhoc(r.Context(), addr, filters, bin)
	if err != nil {
		return appErrorFrom(err)
	}
	return writeTile(w, data)
}

// handleRegressionTile serves a regression tile pairing a target taxon's
// map key against a reference higher-taxon map key at the same address.
func handleRegressionTile(w http.ResponseWriter, r *http.Request) *appError {
	addr, aerr := parseAddress(r)
	if aerr != nil {
		return aerr
	}
	mapKey, higherTaxonKey, scheme, minYears, aerr := parseRegressionParams(r)
	if aerr != nil {
		return aerr
	}

	log.Debugf("regression tile request: mapKey=%s higherTaxonKey=%s z=%d x=%d y=%d", mapKey, higherTaxonKey, addr.Z, addr.X, addr.Y)

	data, err := serviceInstance.assembler.Regression(r.Context(), addr, mapKey, higherTaxonKey, scheme, minYears)
	if err != nil {
		return appErrorFrom(err)
	}
	return writeTile(w, data)
}

// handleRegressionJSON serves the same regression pipeline as
// handleRegressionTile, but returns the qualifying cells as a JSON body
// instead of an encoded MVT tile.
func handleRegressionJSON(w http.ResponseWriter, r *http.Request) *appError {
	addr, aerr := parseAddressFromQuery(r)
	if aerr != nil {
		return aerr
	}
	mapKey, higherTaxonKey, scheme, minYears, aerr := parseRegressionParams(r)
	if aerr != nil {
		return aerr
	}

	log.Debugf("regression json request: mapKey=%s higherTaxonKey=%s z=%d x=%d y=%d", mapKey, higherTaxonKey, addr.Z, addr.X, addr.Y)

	cells, err := serviceInstance.assembler.RegressionCells(r.Context(), addr, mapKey, higherTaxonKey, scheme, minYears)
	if err != nil {
		return appErrorFrom(err)
	}
	return writeJSON(w, ContentTypeJSON, regressionCellsToJSON(cells))
}

// parseRegressionParams reads the query parameters shared by both
// regression routes: the target taxon's mapKey, the required
// higherTaxonKey reference, the projection, and minYears.
func parseRegressionParams(r *http.Request) (mapKey, higherTaxonKey string, scheme tilemath.Scheme, minYears int, aerr *appError) {
	mapKey, aerr = requireQueryParam(r, "mapKey")
	if aerr != nil {
		return
	}
	higherTaxonKey, aerr = requireQueryParam(r, "higherTaxonKey")
	if aerr != nil {
		return
	}
	scheme, aerr = parseScheme(r)
	if aerr != nil {
		return
	}
	minYears, aerr = parseMinYears(r, conf.Configuration.Regression.MinYears)
	return
}
