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
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/assembler"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/cache"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/conf"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeMVT  = "application/vnd.mapbox-vector-tile"
)

// appError is the shared HTTP-handler error type: it carries the
// apperr.Kind-derived status code alongside a client-safe message.
type appError struct {
	status  int
	message string
	cause   error
}

func (e *appError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// appErrorFrom classifies err via apperr.HTTPStatus, falling back to 500 for
// anything not already an *apperr.Error.
func appErrorFrom(err error) *appError {
	if err == nil {
		return nil
	}
	if ae, ok := apperr.AsAppError(err); ok {
		return &appError{status: apperr.HTTPStatus(err), message: ae.Message, cause: err}
	}
	return &appError{status: http.StatusInternalServerError, message: "internal error", cause: err}
}

func appErrorBadRequest(cause error, message string) *appError {
	return &appError{status: http.StatusBadRequest, message: message, cause: cause}
}

func appErrorUnauthorized(cause error, message string) *appError {
	return &appError{status: http.StatusUnauthorized, message: message, cause: cause}
}

func appErrorForbidden(cause error, message string) *appError {
	return &appError{status: http.StatusForbidden, message: message, cause: cause}
}

func appErrorInternal(cause error, message string) *appError {
	return &appError{status: http.StatusInternalServerError, message: message, cause: cause}
}

// appHandler is an HTTP handler that reports failure as a classified
// *appError instead of writing the response itself, so the router can
// translate it into a consistent JSON error body and log line.
type appHandler func(http.ResponseWriter, *http.Request) *appError

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if appErr := fn(w, r); appErr != nil {
		if appErr.cause != nil {
			log.Warnf("%s %s: %v", r.Method, r.URL.Path, appErr.cause)
		}
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.WriteHeader(appErr.status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": appErr.message})
	}
}

// writeJSON marshals v and writes it with the given content type, returning
// an internal-error appError if v cannot be encoded.
func writeJSON(w http.ResponseWriter, contentType string, v interface{}) *appError {
	w.Header().Set("Content-Type", contentType)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return appErrorInternal(err, "failed to encode response")
	}
	return nil
}

// Service bundles the Assembler with the tile response cache and serves as
// the receiver for every route handler that needs either.
type Service struct {
	assembler *assembler.Assembler
	cache     *cache.TileCache
}

// serviceInstance is the process-wide Service, populated by Initialize.
var serviceInstance *Service

// Initialize constructs the Service from the already-wired Assembler and
// the configured tile response cache.
func Initialize(a *assembler.Assembler) *Service {
	var tileCache *cache.TileCache
	if conf.Configuration.Cache.Enabled {
		var err error
		tileCache, err = cache.NewTileCache(conf.Configuration.Cache.MaxEntries, conf.Configuration.Cache.MaxMemoryMB)
		if err != nil {
			log.Fatalf("failed to initialize tile cache: %v", err)
		}
	} else {
		tileCache = cache.NewDisabledCache()
	}

	serviceInstance = &Service{assembler: a, cache: tileCache}
	return serviceInstance
}

// Serve starts the HTTP listener and blocks until it exits.
func Serve() error {
	router := initRouter()

	wrapped := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "DELETE"}),
	)(handlers.CompressHandler(router))

	addr := fmt.Sprintf(":%d", conf.Configuration.Server.HTTPPort)
	log.Infof("Listening on %s", addr)
	return http.ListenAndServe(addr, wrapped)
}
