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

	"github.com/biodiversity-maps/occurrence-tileserver/internal/conf"
)

// serviceBanner is the body of the root endpoint: a terse, machine-readable
// description of the service in place of an HTML map viewer.
type serviceBanner struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Routes  []string `json:"routes"`
}

// handleRoot reports service identity and the route table, since this
// deployment has no bundled map viewer.
func handleRoot(w http.ResponseWriter, r *http.Request) *appError {
	banner := serviceBanner{
		Name:    conf.AppConfig.Name,
		Version: conf.AppConfig.Version,
		Routes: []string{
			"/occurrence/density/{z}/{x}/{y}.mvt?mapKey=...",
			"/occurrence/adhoc/{z}/{x}/{y}.mvt",
			"/occurrence/regression/{z}/{x}/{y}.mvt?mapKey=...&higherTaxonKey=...",
			"/occurrence/regression?mapKey=...&higherTaxonKey=...",
			"/health",
			"/layers",
		},
	}
	return writeJSON(w, ContentTypeJSON, banner)
}
