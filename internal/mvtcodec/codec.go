// Package mvtcodec decodes and encodes Mapbox Vector Tiles, preserving
// integer feature coordinates in tile-local pixel space. Auto-scaling to a
// normalised 0-4096 grid is never applied: callers are expected to already
// work in the tile's native pixel frame (tileSize + bufferSize), matching
// what is stored by the producers that populate the tile store.
package mvtcodec

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

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/apperr"
)

// Feature is a single decoded/encodable MVT feature: a geometry in
// tile-local pixel space plus its attribute map.
type Feature struct {
	ID         *uint64
	Layer      string
	Geometry   orb.Geometry
	Attributes map[string]interface{}
}

// Decode parses an MVT byte stream into its constituent features, grouped by
// layer name. Coordinates are returned exactly as stored: integer tile
// pixels, no rescaling.
func Decode(data []byte) ([]Feature, error) {
	if len(data) == 0 {
		return nil, nil
	}
	layers, err := mvt.Unmarshal(data)
	if err != nil {
		return nil, apperr.Codec("malformed tile payload", err)
	}

	var out []Feature
	for _, layer := range layers {
		for _, f := range layer.Features {
			if f.Geometry == nil {
				continue
			}
			out = append(out, Feature{
				ID:         f.ID,
				Layer:      layer.Name,
				Geometry:   f.Geometry,
				Attributes: f.Tags,
			})
		}
	}
	return out, nil
}

// Encoder accumulates features for a single tile and produces the final MVT
// byte stream on Finalize. It is not safe for concurrent use and must never
// be shared across requests.
type Encoder struct {
	tileSize   int
	bufferSize int
	layers     map[string]*mvt.Layer
	order      []string
}

// NewEncoder creates an encoder for a tile with the given geometry
// parameters. Auto-scaling is always disabled: features are expected in
// tile-local integer pixel coordinates already.
func NewEncoder(tileSize, bufferSize int) *Encoder {
	return &Encoder{
		tileSize:   tileSize,
		bufferSize: bufferSize,
		layers:     make(map[string]*mvt.Layer),
	}
}

// AddFeature appends a feature to the named layer. Features added in any
// order; Finalize drops anything lying entirely outside the buffered tile
// extent.
func (e *Encoder) AddFeature(layer string, f Feature) {
	l, ok := e.layers[layer]
	if !ok {
		l = &mvt.Layer{Name: layer, Version: 2, Extent: uint32(e.tileSize)}
		e.layers[layer] = l
		e.order = append(e.order, layer)
	}
	l.Features = append(l.Features, &mvt.Feature{
		ID:       f.ID,
		Geometry: f.Geometry,
		Tags:     f.Attributes,
	})
}

// Finalize drops out-of-bounds features and emits the MVT byte stream.
// Layers are emitted in first-added order; within a layer, features keep
// insertion order, so callers that need deterministic bytes must insert in
// a stable order themselves (the assembler sorts by cell ID before adding).
func (e *Encoder) Finalize() ([]byte, error) {
	out := make(mvt.Layers, 0, len(e.layers))
	for _, name := range e.order {
		l := e.layers[name]
		kept := l.Features[:0:0]
		for _, f := range l.Features {
			if e.inBounds(f.Geometry) {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, &mvt.Layer{Name: l.Name, Version: l.Version, Extent: l.Extent, Features: kept})
	}

	data, err := mvt.Marshal(out)
	if err != nil {
		return nil, apperr.Codec("failed to encode tile", err)
	}
	return data, nil
}

func (e *Encoder) inBounds(geom orb.Geometry) bool {
	if geom == nil {
		return false
	}
	bound := geom.Bound()
	lo := float64(-e.bufferSize)
	hi := float64(e.tileSize + e.bufferSize)
	xOut := bound.Max[0] < lo || bound.Min[0] > hi
	yOut := bound.Max[1] < lo || bound.Min[1] > hi
	return !xOut && !yOut
}

// EncodeFeatures is a convenience wrapper for the common case of encoding a
// fixed, already-ordered feature set in one shot.
func EncodeFeatures(tileSize, bufferSize int, features []Feature) ([]byte, error) {
	enc := NewEncoder(tileSize, bufferSize)
	for _, f := range features {
		layer := f.Layer
		if layer == "" {
			layer = "occurrence"
		}
		enc.AddFeature(layer, f)
	}
	data, err := enc.Finalize()
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	return data, nil
}
