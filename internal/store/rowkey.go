// Package store implements the Tile Store Adapter: it maps
// (mapKey, z, x, y) to a salted row key in the partitioned key-value store,
// fans out one lookup per salt bucket in parallel, and merges the results.
// The projection is not part of the row key.
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

import (
	"encoding/binary"
	"hash/fnv"
)

// rowKey builds the salted row key for one salt bucket:
// salt<1 byte> | mapKey | z<1 byte> | varint(x) | varint(y).
func rowKey(salt byte, mapKey string, z uint, x, y uint) string {
	buf := make([]byte, 0, 1+len(mapKey)+1+2*binary.MaxVarintLen64)
	buf = append(buf, salt)
	buf = append(buf, mapKey...)
	buf = append(buf, byte(z))

	var varintBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varintBuf[:], uint64(x))
	buf = append(buf, varintBuf[:n]...)
	n = binary.PutUvarint(varintBuf[:], uint64(y))
	buf = append(buf, varintBuf[:n]...)

	return string(buf)
}

// saltOf deterministically derives the bucket a given mapKey would hash
// into for a given modulus. The adapter does not rely on this to skip the
// fan-out (see adapter.go) — it still queries every bucket — but exposes it
// so tests can assert the salt-completeness invariant.
func saltOf(mapKey string, saltModulus int) byte {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mapKey))
	return byte(h.Sum32() % uint32(saltModulus))
}
