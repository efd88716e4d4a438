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
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/cache"
)

// HealthResponse is the JSON body of the /health endpoint.
type HealthResponse struct {
	Status    string      `json:"status"`
	Metastore string      `json:"metastore"`
	Search    string      `json:"search"`
	Cache     CacheStatus `json:"cache"`
}

// CacheStatus reports whether the tile response cache is enabled and, if so,
// its current statistics.
type CacheStatus struct {
	Enabled bool         `json:"enabled"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

// handleHealth reports whether the Metastore resolves the tiles table
// (the cheapest possible confirmation the backend configuration is sound)
// and whether an ad-hoc search backend is wired in.
func handleHealth(w http.ResponseWriter, r *http.Request) *appError {
	health := HealthResponse{Status: "ok", Metastore: "ok"}

	if err := serviceInstance.assembler.Ping(r.Context()); err != nil {
		log.Warnf("metastore health check failed: %v", err)
		health.Status = "error"
		health.Metastore = "unreachable"
	}

	if serviceInstance.assembler.HasSearch() {
		health.Search = "configured"
	} else {
		health.Search = "disabled"
	}

	health.Cache = CacheStatus{Enabled: serviceInstance.cache.Enabled()}
	if health.Cache.Enabled {
		stats := serviceInstance.cache.Stats()
		health.Cache.Stats = &stats
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		return appErrorInternal(err, "failed to encode response")
	}
	return nil
}
