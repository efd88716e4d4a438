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

import "testing"

func TestStaticResolve(t *testing.T) {
	s := NewStatic(Mapping{TableTiles: "occurrence_tiles_v1", TablePoints: "occurrence_points_v1"})

	name, err := s.Resolve(TableTiles)
	if err != nil {
		t.Fatal(err)
	}
	if name != "occurrence_tiles_v1" {
		t.Fatalf("unexpected table name: %s", name)
	}

	if _, err := s.Resolve("unknown"); err == nil {
		t.Fatal("expected configuration error for unknown logical name")
	}
}

func TestWatchedFallsBackWhenCacheEmpty(t *testing.T) {
	fallback := Mapping{TableTiles: "fallback_tiles"}
	w := &Watched{fallback: fallback}

	name, err := w.Resolve(TableTiles)
	if err != nil {
		t.Fatal(err)
	}
	if name != "fallback_tiles" {
		t.Fatalf("expected fallback table name, got %s", name)
	}

	if _, err := w.Resolve(TablePoints); err == nil {
		t.Fatal("expected configuration error when neither cache nor fallback has the key")
	}
}

func TestWatchedPrefersLiveMappingOverFallback(t *testing.T) {
	fallback := Mapping{TableTiles: "fallback_tiles"}
	live := Mapping{TableTiles: "table_b"}
	w := &Watched{fallback: fallback}
	w.cache.Store(&live)

	name, err := w.Resolve(TableTiles)
	if err != nil {
		t.Fatal(err)
	}
	if name != "table_b" {
		t.Fatalf("expected live mapping to win, got %s", name)
	}
}
