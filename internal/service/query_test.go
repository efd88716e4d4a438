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
	"net/url"
	"testing"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/binning"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/tilemath"
)

func newTestRequest(rawQuery string) *http.Request {
	return &http.Request{URL: &url.URL{RawQuery: rawQuery}}
}

func TestParseFiltersCollectsYearRangeAndBasisOfRecord(t *testing.T) {
	f, aerr := parseFilters(newTestRequest("year=2000,2020&basisOfRecord=PRESERVED_SPECIMEN,OBSERVATION&verbose=true"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if f.Years.Lower != 2000 || f.Years.Upper != 2020 {
		t.Errorf("unexpected year range: %+v", f.Years)
	}
	if len(f.BasisOfRecord) != 2 {
		t.Errorf("expected 2 basisOfRecord values, got %d", len(f.BasisOfRecord))
	}
	if !f.Verbose {
		t.Error("expected verbose true")
	}
}

func TestParseFiltersSingleYearPinsBothBounds(t *testing.T) {
	f, aerr := parseFilters(newTestRequest("year=2005"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if f.Years.Lower != 2005 || f.Years.Upper != 2005 {
		t.Errorf("expected both bounds pinned to 2005, got %+v", f.Years)
	}
}

func TestParseFiltersOpenLowerYear(t *testing.T) {
	f, aerr := parseFilters(newTestRequest("year=,2020"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if f.Years.Lower != 0 || f.Years.Upper != 2020 {
		t.Errorf("expected only upper bound set, got %+v", f.Years)
	}
}

func TestParseFiltersOpenUpperYear(t *testing.T) {
	f, aerr := parseFilters(newTestRequest("year=2000,"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if f.Years.Lower != 2000 || f.Years.Upper != 0 {
		t.Errorf("expected only lower bound set, got %+v", f.Years)
	}
}

func TestParseFiltersCollectsHigherTaxonKey(t *testing.T) {
	f, aerr := parseFilters(newTestRequest("higherTaxonKey=taxonKey:2435099"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if f.HigherTaxonKey != "taxonKey:2435099" {
		t.Errorf("expected HigherTaxonKey to be parsed, got %q", f.HigherTaxonKey)
	}
}

func TestParseFiltersForwardsUnreservedParamsAsPredicates(t *testing.T) {
	f, aerr := parseFilters(newTestRequest("taxonKey=1234&datasetKey=abc&bin=hex"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if len(f.Predicates) != 2 {
		t.Fatalf("expected 2 predicates, got %d: %+v", len(f.Predicates), f.Predicates)
	}
}

func TestParseFiltersRejectsInvalidYear(t *testing.T) {
	_, aerr := parseFilters(newTestRequest("year=notanumber"))
	if aerr == nil {
		t.Fatal("expected an error for invalid year")
	}
}

func TestParseBinSpecAbsentReturnsNil(t *testing.T) {
	spec, aerr := parseBinSpec(newTestRequest(""))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if spec != nil {
		t.Error("expected nil spec when bin param absent")
	}
}

func TestParseBinSpecHexDefaultsCellsPerTile(t *testing.T) {
	spec, aerr := parseBinSpec(newTestRequest("bin=hex"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if spec.Kind != binning.Hex || spec.CellsPerTile != 35 {
		t.Errorf("unexpected spec: %+v", spec)
	}
}

func TestParseBinSpecSquareDefaultsCellPixels(t *testing.T) {
	spec, aerr := parseBinSpec(newTestRequest("bin=square"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if spec.Kind != binning.Square || spec.CellPixels != 64 {
		t.Errorf("unexpected spec: %+v", spec)
	}
}

func TestParseBinSpecSquareHonorsSquareSize(t *testing.T) {
	spec, aerr := parseBinSpec(newTestRequest("bin=square&squareSize=128"))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if spec.Kind != binning.Square || spec.CellPixels != 128 {
		t.Errorf("unexpected spec: %+v", spec)
	}
}

func TestParseBinSpecRejectsUnknownMode(t *testing.T) {
	_, aerr := parseBinSpec(newTestRequest("bin=triangle"))
	if aerr == nil {
		t.Fatal("expected error for unknown bin mode")
	}
}

func TestParseMinYearsFallsBackWhenAbsent(t *testing.T) {
	n, aerr := parseMinYears(newTestRequest(""), 3)
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if n != 3 {
		t.Errorf("expected fallback 3, got %d", n)
	}
}

func TestParseMinYearsRejectsNonPositive(t *testing.T) {
	_, aerr := parseMinYears(newTestRequest("minYears=0"), 3)
	if aerr == nil {
		t.Fatal("expected error for non-positive minYears")
	}
}

func TestParseSchemeDefaultsToWebMercator(t *testing.T) {
	scheme, aerr := parseScheme(newTestRequest(""))
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if scheme != tilemath.WebMercator {
		t.Errorf("expected default scheme WebMercator, got %s", scheme)
	}
}

func TestParseSchemeRejectsUnsupportedSRS(t *testing.T) {
	_, aerr := parseScheme(newTestRequest("srs=EPSG:9999"))
	if aerr == nil {
		t.Fatal("expected error for unsupported srs")
	}
}

func TestRequireQueryParamRejectsMissing(t *testing.T) {
	_, aerr := requireQueryParam(newTestRequest(""), "mapKey")
	if aerr == nil {
		t.Fatal("expected error for missing mapKey")
	}
}

func TestRequireQueryParamReturnsValue(t *testing.T) {
	v, aerr := requireQueryParam(newTestRequest("mapKey=taxonKey:123"), "mapKey")
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if v != "taxonKey:123" {
		t.Errorf("expected taxonKey:123, got %q", v)
	}
}
