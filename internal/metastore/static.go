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

// Static is a constant logical->physical table mapping. It never changes
// for the lifetime of the process.
type Static struct {
	mapping Mapping
}

// NewStatic builds a Static metastore from a fixed mapping.
func NewStatic(mapping Mapping) *Static {
	return &Static{mapping: mapping}
}

// Resolve implements Metastore.
func (s *Static) Resolve(logical string) (string, error) {
	return s.mapping.resolve(logical, nil)
}
