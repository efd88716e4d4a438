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
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/conf"
)

const tileCoordPattern = "{z:[0-9]+}/{x:[0-9]+}/{y:[0-9]+}"

// initRouter sets up the HTTP routes.
func initRouter() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/", appHandler(handleRoot)).Methods("GET")
	r.Handle("/health", appHandler(handleHealth)).Methods("GET")
	r.Handle("/layers", appHandler(handleLayers)).Methods("GET")

	r.Handle("/occurrence/density/"+tileCoordPattern+".mvt",
		serviceInstance.tileCacheMiddleware("density", appHandler(handleDensityTile))).Methods("GET")
	r.Handle("/occurrence/adhoc/"+tileCoordPattern+".mvt",
		serviceInstance.tileCacheMiddleware("adhoc", appHandler(handleAdhocTile))).Methods("GET")
	r.Handle("/occurrence/regression/"+tileCoordPattern+".mvt",
		serviceInstance.tileCacheMiddleware("regression", appHandler(handleRegressionTile))).Methods("GET")
	r.Handle("/occurrence/regression", appHandler(handleRegressionJSON)).Methods("GET")

	if !conf.Configuration.Cache.DisableApi {
		log.Info("cache management endpoints enabled")
		r.Handle("/cache/stats", appHandler(cacheAuthMiddleware(serviceInstance.handleCacheStats))).Methods("GET")
		r.Handle("/cache/clear", appHandler(cacheAuthMiddleware(serviceInstance.handleCacheClear))).Methods("DELETE")
		r.Handle("/cache/route/{route}", appHandler(cacheAuthMiddleware(serviceInstance.handleCacheClearRoute))).Methods("DELETE")
	} else {
		log.Info("cache management endpoints disabled")
	}

	r.Use(requestLoggingMiddleware)

	r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		if pathTemplate, err := route.GetPathTemplate(); err == nil {
			log.Debugf("registered route: %s", pathTemplate)
		}
		return nil
	})

	return r
}
