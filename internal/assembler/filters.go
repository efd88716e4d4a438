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
	"strings"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/search"
)

// basisOfRecordPrefix tags the non-year attribute keys a stored feature
// carries alongside its per-year counts, per spec.md's TileRecord shape.
const basisOfRecordPrefix = "BASIS_OF_RECORD_"

// Filters collects the request-level predicates that narrow which
// occurrence records contribute to a tile, independent of which backend
// (store or search) serves the request.
type Filters struct {
	Years          YearRange
	BasisOfRecord  []string
	HigherTaxonKey string
	Verbose        bool
	Predicates     []search.Predicate
}

// YearRange is an inclusive [Lower, Upper] filter; zero on either bound
// means unbounded on that side.
type YearRange struct {
	Lower, Upper int
}

// apply gates a feature on the basis-of-record filter, then collapses its
// per-year attribute map down to a single "total" count (unless Verbose
// requests the per-year breakdown), honoring the year range. A feature with
// no years surviving the filter is dropped, unless it carries a numeric
// "total" attribute, which is then passed through unchanged (the year range
// is not applied to it).
func (f Filters) apply(attrs map[string]interface{}) (map[string]interface{}, bool) {
	if len(f.BasisOfRecord) > 0 && !matchesBasisOfRecord(attrs, f.BasisOfRecord) {
		return nil, false
	}

	var total int64
	out := map[string]interface{}{}
	any := false

	for key, v := range attrs {
		year, ok := yearKey(key)
		if !ok {
			// Non-year attributes (e.g. BASIS_OF_RECORD_*) never reach the
			// output: spec.md §9 adopts discarding anything non-integer
			// once basis-of-record gating has run.
			continue
		}
		if f.Years.Lower > 0 && year < f.Years.Lower {
			continue
		}
		if f.Years.Upper > 0 && year > f.Years.Upper {
			continue
		}
		n, ok := toInt64(v)
		if !ok {
			continue
		}
		any = true
		total += n
		if f.Verbose {
			out[key] = n
		}
	}

	if !any {
		if raw, ok := attrs["total"]; ok {
			if n, ok := toInt64(raw); ok {
				out["total"] = n
				return out, true
			}
		}
		return nil, false
	}

	out["total"] = total
	return out, true
}

// matchesBasisOfRecord reports whether attrs records a positive count under
// any of the requested basis-of-record categories.
func matchesBasisOfRecord(attrs map[string]interface{}, wanted []string) bool {
	for key, v := range attrs {
		bor, ok := strings.CutPrefix(key, basisOfRecordPrefix)
		if !ok {
			continue
		}
		n, ok := toInt64(v)
		if !ok || n <= 0 {
			continue
		}
		for _, want := range wanted {
			if strings.EqualFold(bor, want) {
				return true
			}
		}
	}
	return false
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
