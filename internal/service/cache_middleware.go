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
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/cache"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/conf"
)

// tileCacheMiddleware wraps a tile handler to check the response cache
// first, keyed on route, tile address, and query parameters.
func (s *Service) tileCacheMiddleware(route string, next appHandler) appHandler {
	return func(w http.ResponseWriter, r *http.Request) *appError {
		if s == nil || s.cache == nil || !s.cache.Enabled() {
			return next(w, r)
		}

		cacheKey := cache.BuildKey(route, tileAddrFromVars(r), queryParamMap(r))

		if cachedTile, found := s.cache.Get(r.Context(), cacheKey); found {
			w.Header().Set("Content-Type", ContentTypeMVT)
			w.Header().Set("X-Cache", "HIT")
			maxAge := conf.Configuration.Cache.BrowserCacheMaxAge
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			if len(cachedTile) == 0 {
				w.WriteHeader(http.StatusNoContent)
			} else {
				w.WriteHeader(http.StatusOK)
				w.Write(cachedTile)
			}
			return nil
		}

		w.Header().Set("X-Cache", "MISS")

		recorder := &responseCapturer{ResponseWriter: w, body: &bytes.Buffer{}}
		appErr := next(recorder, r)

		if appErr == nil && recorder.statusCode == http.StatusOK {
			go s.cache.Set(r.Context(), cacheKey, recorder.body.Bytes())
		}
		if appErr == nil && recorder.statusCode == http.StatusNoContent {
			go s.cache.Set(r.Context(), cacheKey, []byte{})
		}

		return appErr
	}
}

// tileAddrFromVars renders the z/x/y path variables as "z/x/y" for use as
// the address component of a cache key. mapKey/higherTaxonKey now travel as
// query parameters, so they are already captured by queryParamMap and need
// no special handling here.
func tileAddrFromVars(r *http.Request) string {
	vars := mux.Vars(r)
	return fmt.Sprintf("%s/%s/%s", vars["z"], vars["x"], vars["y"])
}

// queryParamMap flattens a request's query string into a single-valued map
// for cache.BuildKey, taking the first value of any repeated parameter.
// BuildKey sorts keys itself, so ordering here doesn't matter.
func queryParamMap(r *http.Request) map[string]string {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}

// responseCapturer captures the response body so it can be stored in the
// cache after a successful, uncached request.
type responseCapturer struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (rc *responseCapturer) Write(b []byte) (int, error) {
	if rc.statusCode == 0 {
		rc.statusCode = http.StatusOK
	}
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

func (rc *responseCapturer) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}
