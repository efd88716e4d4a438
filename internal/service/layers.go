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

	log "github.com/sirupsen/logrus"
)

// Route describes one tile-producing endpoint: its path template, the
// binning modes it accepts, and whether it requires a search backend.
type Route struct {
	Path           string   `json:"path"`
	BinModes       []string `json:"binModes"`
	RequiresSearch bool     `json:"requiresSearch"`
}

// LayersResponse is the JSON body of the /layers discovery endpoint. There
// is no enumerable layer catalog in this deployment - map keys are supplied
// per request - so this describes the routes and the parameters they accept
// instead.
type LayersResponse struct {
	Routes []Route `json:"routes"`
}

// handleLayers describes the tile-producing routes this deployment exposes,
// standing in for a database-driven layer catalog.
func handleLayers(w http.ResponseWriter, r *http.Request) *appError {
	log.Debug("layers request")

	response := LayersResponse{
		Routes: []Route{
			{Path: "/occurrence/density/{z}/{x}/{y}.mvt?mapKey=...", BinModes: []string{"hex", "square"}, RequiresSearch: false},
			{Path: "/occurrence/adhoc/{z}/{x}/{y}.mvt", BinModes: []string{"hex", "square"}, RequiresSearch: true},
			{Path: "/occurrence/regression/{z}/{x}/{y}.mvt?mapKey=...&higherTaxonKey=...", BinModes: nil, RequiresSearch: false},
			{Path: "/occurrence/regression?mapKey=...&higherTaxonKey=...", BinModes: nil, RequiresSearch: false},
		},
	}

	return writeJSON(w, ContentTypeJSON, response)
}
