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

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
)

// Watched maintains a cached copy of a mapping stored at a coordination
// service path, kept current by a background watch. Reads never block on a
// mutex held across I/O: the cache is an atomic pointer swapped in whole by
// the watch goroutine, so readers always see either the old or the new
// mapping, never a half-updated one.
type Watched struct {
	client   *clientv3.Client
	path     string
	fallback Mapping
	cache    atomic.Pointer[Mapping]
	cancel   context.CancelFunc
}

// NewWatched creates a Watched metastore, seeds its cache with a blocking
// initial read, and starts the background watch. fallback is consulted when
// a key is missing from the live mapping; if both are silent, Resolve fails
// with ConfigurationError.
func NewWatched(ctx context.Context, client *clientv3.Client, path string, fallback Mapping) (*Watched, error) {
	w := &Watched{client: client, path: path, fallback: fallback}

	initCtx, cancelInit := context.WithTimeout(ctx, 5*time.Second)
	defer cancelInit()
	resp, err := client.Get(initCtx, path)
	if err != nil {
		return nil, apperr.Configuration("failed to read initial metastore mapping", err)
	}
	m := Mapping{}
	if len(resp.Kvs) > 0 {
		if err := json.Unmarshal(resp.Kvs[0].Value, &m); err != nil {
			return nil, apperr.Configuration("malformed metastore mapping", err)
		}
	}
	w.cache.Store(&m)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)

	return w, nil
}

func (w *Watched) watchLoop(ctx context.Context) {
	watchChan := w.client.Watch(ctx, w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-watchChan:
			if !ok {
				return
			}
			if resp.Err() != nil {
				log.Warnf("metastore watch error on %s: %v", w.path, resp.Err())
				continue
			}
			for _, ev := range resp.Events {
				var m Mapping
				if err := json.Unmarshal(ev.Kv.Value, &m); err != nil {
					log.Warnf("metastore watch: malformed mapping at %s: %v", w.path, err)
					continue
				}
				w.cache.Store(&m)
				log.Infof("metastore mapping updated at %s", w.path)
			}
		}
	}
}

// Resolve implements Metastore, returning the last known mapping without
// blocking on network I/O.
func (w *Watched) Resolve(logical string) (string, error) {
	m := w.cache.Load()
	if m == nil {
		return w.fallback.resolve(logical, nil)
	}
	return (*m).resolve(logical, w.fallback)
}

// Close stops the background watch.
func (w *Watched) Close() {
	if w.cancel != nil {
		w.cancel()
	}
}
