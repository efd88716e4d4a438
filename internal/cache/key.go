package cache

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
	"fmt"
	"sort"
	"strings"
)

// BuildKey builds the cache key for one tile response: route identifies the
// operation ("density", "adhoc", "regression"), addr is the "z/x/y" tile
// coordinate, and params are the request's normalised query parameters.
// TileCache.ClearRoute(route) relies on the route prefix this produces.
func BuildKey(route, addr string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(route)
	b.WriteByte(':')
	b.WriteString(addr)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "&%s=%s", k, params[k])
		}
	}
	return b.String()
}
