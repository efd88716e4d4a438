// Package metastore resolves logical table names ("tiles", "points") to the
// physical table names the Tile Store Adapter queries, either from a static
// map or by watching a coordination-service path.
package metastore

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

import "github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"

// Logical table names the rest of the pipeline asks the Metastore to
// resolve.
const (
	TableTiles  = "tiles"
	TablePoints = "points"
)

// Metastore resolves a logical table name to its current physical name.
type Metastore interface {
	Resolve(logical string) (string, error)
}

// Mapping is the serialised form stored at the coordination-service path,
// and the shape of a Static metastore's constant configuration.
type Mapping map[string]string

func (m Mapping) resolve(logical string, fallback Mapping) (string, error) {
	if name, ok := m[logical]; ok && name != "" {
		return name, nil
	}
	if fallback != nil {
		if name, ok := fallback[logical]; ok && name != "" {
			return name, nil
		}
	}
	return "", apperr.Configuration("no table configured for "+logical, nil)
}
