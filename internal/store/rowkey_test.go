package store

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

func TestRowKeyEncodesSaltMapKeyAndCoordinates(t *testing.T) {
	k1 := rowKey(3, "taxonKey:12345", 5, 10, 20)
	k2 := rowKey(3, "taxonKey:12345", 5, 10, 20)
	if k1 != k2 {
		t.Fatal("expected rowKey to be deterministic")
	}

	k3 := rowKey(4, "taxonKey:12345", 5, 10, 20)
	if k1 == k3 {
		t.Fatal("expected different salt to produce a different row key")
	}

	k4 := rowKey(3, "taxonKey:12345", 5, 11, 20)
	if k1 == k4 {
		t.Fatal("expected different x to produce a different row key")
	}
}

func TestSaltOfIsStableAndWithinModulus(t *testing.T) {
	const modulus = 8
	s1 := saltOf("taxonKey:12345", modulus)
	s2 := saltOf("taxonKey:12345", modulus)
	if s1 != s2 {
		t.Fatal("expected saltOf to be deterministic for a given mapKey")
	}
	if int(s1) >= modulus {
		t.Fatalf("expected salt < modulus, got %d", s1)
	}
}

func TestSaltCompletenessAcrossDistinctKeys(t *testing.T) {
	// Exercises the invariant's precondition: distinct map keys are free to
	// land on distinct salts, but a given key always lands on exactly one.
	const modulus = 16
	keys := []string{"taxonKey:1", "taxonKey:2", "datasetKey:abc", "country:DK", "taxonKey:1", "country:DK"}
	seen := make(map[string]byte)
	for _, k := range keys {
		salt := saltOf(k, modulus)
		if prior, ok := seen[k]; ok && prior != salt {
			t.Fatalf("salt for %s changed between calls", k)
		}
		seen[k] = salt
	}
}
