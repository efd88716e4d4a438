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
	"strings"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/assembler"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/binning"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/search"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/tilemath"
)

const (
	defaultHexPerTile = 35
	defaultSquareSize = 64
)

// reservedQueryParams are consumed by query parsing itself and must never
// be forwarded to the Search Backend Adapter as arbitrary predicates.
var reservedQueryParams = map[string]bool{
	"srs": true, "bin": true, "hexPerTile": true, "squareSize": true,
	"year": true, "basisOfRecord": true, "mapKey": true,
	"higherTaxonKey": true, "verbose": true, "minYears": true,
	"z": true, "x": true, "y": true,
}

// parseFilters extracts Filters and any remaining arbitrary predicates from
// the request's query string.
func parseFilters(r *http.Request) (assembler.Filters, *appError) {
	q := r.URL.Query()

	f := assembler.Filters{
		Verbose:        q.Get("verbose") == "true" || q.Get("verbose") == "1",
		HigherTaxonKey: q.Get("higherTaxonKey"),
	}

	if v := q.Get("year"); v != "" {
		yr, err := parseYearRange(v)
		if err != nil {
			return f, appErrorBadRequest(err, "invalid year")
		}
		f.Years = yr
	}
	if v := q.Get("basisOfRecord"); v != "" {
		f.BasisOfRecord = strings.Split(v, ",")
	}

	for key, values := range q {
		if reservedQueryParams[key] || len(values) == 0 {
			continue
		}
		f.Predicates = append(f.Predicates, search.Predicate{Field: key, Value: values[0]})
	}

	return f, nil
}

// parseYearRange parses the spec's `year` query parameter: a bare `YYYY`
// pins both bounds to the same year; `YYYY,YYYY` sets both bounds;
// `,YYYY`/`YYYY,` leaves the omitted side unbounded.
func parseYearRange(v string) (assembler.YearRange, error) {
	var yr assembler.YearRange

	lower, upper, hasComma := strings.Cut(v, ",")
	if !hasComma {
		n, err := strconv.Atoi(lower)
		if err != nil {
			return yr, err
		}
		yr.Lower, yr.Upper = n, n
		return yr, nil
	}
	if lower != "" {
		n, err := strconv.Atoi(lower)
		if err != nil {
			return yr, err
		}
		yr.Lower = n
	}
	if upper != "" {
		n, err := strconv.Atoi(upper)
		if err != nil {
			return yr, err
		}
		yr.Upper = n
	}
	return yr, nil
}

// requireQueryParam reads a required, non-empty query parameter.
func requireQueryParam(r *http.Request, name string) (string, *appError) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", appErrorBadRequest(nil, "missing required query parameter: "+name)
	}
	return v, nil
}

// parseScheme reads the `srs` query parameter into a tilemath.Scheme,
// defaulting to WebMercator when absent.
func parseScheme(r *http.Request) (tilemath.Scheme, *appError) {
	scheme, err := tilemath.ParseScheme(r.URL.Query().Get("srs"))
	if err != nil {
		return "", appErrorFrom(err)
	}
	return scheme, nil
}

// parseBinSpec builds a *binning.Spec from bin/hexPerTile/squareSize query
// parameters, returning nil when bin is absent (no re-binning requested).
func parseBinSpec(r *http.Request) (*binning.Spec, *appError) {
	q := r.URL.Query()
	mode := q.Get("bin")
	if mode == "" {
		return nil, nil
	}

	switch mode {
	case "hex":
		n := defaultHexPerTile
		if v := q.Get("hexPerTile"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return nil, appErrorBadRequest(err, "invalid hexPerTile")
			}
			n = parsed
		}
		return &binning.Spec{Kind: binning.Hex, CellsPerTile: n}, nil
	case "square":
		n := defaultSquareSize
		if v := q.Get("squareSize"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return nil, appErrorBadRequest(err, "invalid squareSize")
			}
			n = parsed
		}
		return &binning.Spec{Kind: binning.Square, CellPixels: n}, nil
	default:
		return nil, appErrorBadRequest(nil, "unknown bin mode: "+mode)
	}
}

func parseMinYears(r *http.Request, fallback int) (int, *appError) {
	v := r.URL.Query().Get("minYears")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, appErrorBadRequest(err, "invalid minYears")
	}
	return n, nil
}
