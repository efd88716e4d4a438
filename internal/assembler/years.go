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

import "strconv"

// yearKey reports whether attribute key k is a per-year count (a bare
// positive integer string, as stored by the Tile Store Adapter and the
// Search Backend Adapter), and if so its numeric year.
func yearKey(k string) (int, bool) {
	n, err := strconv.Atoi(k)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
