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
	"context"
	"encoding/binary"
	"math"
	"time"

	"cloud.google.com/go/bigtable"
	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
)

const (
	columnFamily    = "tile"
	columnQualifier = "data"

	pointsColumnFamily = "point"
	pointsLatQualifier = "lat"
	pointsLonQualifier = "lon"

	retryMaxAttempts    = 3
	retryBaseInterval   = 50 * time.Millisecond
)

// Point is a single occurrence record returned by GetPoints.
type Point struct {
	Lat float64
	Lon float64
}

// Adapter is the Tile Store Adapter: a thin, concurrency-safe wrapper
// around a Bigtable client that salts row keys and fans out one lookup per
// salt bucket. It is shared across requests; its connection pool is sized
// to saturate the worker pool via Bigtable's own gRPC connection pooling.
type Adapter struct {
	client      *bigtable.Client
	saltModulus int
}

// New constructs an Adapter around an already-connected Bigtable client.
func New(client *bigtable.Client, saltModulus int) *Adapter {
	return &Adapter{client: client, saltModulus: saltModulus}
}

// GetTile fetches the encoded tile for (table, mapKey, z, x, y), if present.
// It issues one ReadRow per salt bucket concurrently; spec's salt
// completeness invariant guarantees at most one bucket returns data.
func (a *Adapter) GetTile(ctx context.Context, table, mapKey string, z, x, y uint) ([]byte, bool, error) {
	tbl := a.client.Open(table)

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]byte, a.saltModulus)

	for salt := 0; salt < a.saltModulus; salt++ {
		salt := salt
		g.Go(func() error {
			key := rowKey(byte(salt), mapKey, z, x, y)
			data, err := fetchWithRetry(gctx, func(ctx context.Context) ([]byte, error) {
				row, err := tbl.ReadRow(ctx, key)
				if err != nil {
					return nil, err
				}
				return extractColumn(row, columnFamily, columnQualifier), nil
			})
			if err != nil {
				return apperr.Backend("tile store read failed", err)
			}
			results[salt] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	for _, data := range results {
		if data != nil {
			return data, true, nil
		}
	}
	return nil, false, nil
}

// BBox is a geographic bounding box used to scan the points table when the
// tile cache is not populated for a given zoom/key.
type BBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// GetPoints scans the points table within bbox across all salt buckets,
// streaming decoded points on the returned channel. The channel is closed
// when the scan completes or ctx is cancelled; a send error is reported via
// the returned error channel only after all goroutines finish.
func (a *Adapter) GetPoints(ctx context.Context, table, mapKey string, bbox BBox) (<-chan Point, <-chan error) {
	out := make(chan Point)
	errc := make(chan error, 1)

	tbl := a.client.Open(table)

	go func() {
		defer close(out)
		defer close(errc)

		g, gctx := errgroup.WithContext(ctx)
		for salt := 0; salt < a.saltModulus; salt++ {
			salt := salt
			g.Go(func() error {
				prefix := string([]byte{byte(salt)}) + mapKey
				_, err := fetchWithRetry(gctx, func(ctx context.Context) (struct{}, error) {
					readErr := tbl.ReadRows(ctx, bigtable.PrefixRange(prefix), func(row bigtable.Row) bool {
						lat := extractFloat(row, pointsColumnFamily, pointsLatQualifier)
						lon := extractFloat(row, pointsColumnFamily, pointsLonQualifier)
						if lat < bbox.MinLat || lat > bbox.MaxLat || lon < bbox.MinLon || lon > bbox.MaxLon {
							return true
						}
						select {
						case out <- Point{Lat: lat, Lon: lon}:
							return true
						case <-ctx.Done():
							return false
						}
					})
					return struct{}{}, readErr
				})
				if err != nil {
					return apperr.Backend("points store scan failed", err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			errc <- err
		}
	}()

	return out, errc
}

// fetchWithRetry wraps a single salt-bucket operation in the spec's
// 3-attempt, 50ms-base exponential backoff policy for transient I/O
// failures.
func fetchWithRetry[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryBaseInterval

	result, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil {
			log.Debugf("tile store operation failed, will retry: %v", err)
			return v, err
		}
		return v, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(retryMaxAttempts))
	return result, err
}

func extractColumn(row bigtable.Row, family, qualifier string) []byte {
	items, ok := row[family]
	if !ok {
		return nil
	}
	for _, item := range items {
		if item.Column == family+":"+qualifier {
			return item.Value
		}
	}
	return nil
}

func extractFloat(row bigtable.Row, family, qualifier string) float64 {
	data := extractColumn(row, family, qualifier)
	if len(data) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data))
}
