// Package regression pairs cells from a species tile and a reference tile
// at the same tile address, normalises per-year counts, and fits an
// ordinary least squares regression whose coefficients become attributes on
// each output feature.
package regression

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
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Stats holds the fitted OLS coefficients and derived statistics for one
// cell's (year, normalised count) series.
type Stats struct {
	Slope            float64
	Intercept        float64
	Significance     float64
	SSE              float64
	InterceptStdErr  float64
	MeanSquareError  float64
	SlopeStdErr      float64
}

// accumulator implements incremental (Welford-style) OLS: running means and
// sums of squares/cross-products, updated one point at a time with no
// matrix inversion.
type accumulator struct {
	n       int
	meanX   float64
	meanY   float64
	sumXX   float64 // sum of squared deviations of x
	sumYY   float64 // sum of squared deviations of y
	sumXY   float64 // sum of cross-deviation products
}

func (a *accumulator) add(x, y float64) {
	a.n++
	dx := x - a.meanX
	a.meanX += dx / float64(a.n)
	dy := y - a.meanY
	a.meanY += dy / float64(a.n)
	a.sumXX += dx * (x - a.meanX)
	a.sumYY += dy * (y - a.meanY)
	a.sumXY += dx * (y - a.meanY)
}

// fit computes OLS stats from the accumulated sums. Returns NaN for slope,
// intercept, and derived stats when x has zero variance (all points share
// the same year), per spec guard, while still returning a Stats value so
// the caller can still emit the feature.
func (a *accumulator) fit() Stats {
	if a.sumXX == 0 {
		return Stats{
			Slope: math.NaN(), Intercept: math.NaN(), Significance: math.NaN(),
			SSE: math.NaN(), InterceptStdErr: math.NaN(), MeanSquareError: math.NaN(),
			SlopeStdErr: math.NaN(),
		}
	}

	slope := a.sumXY / a.sumXX
	intercept := a.meanY - slope*a.meanX
	sse := a.sumYY - slope*a.sumXY

	df := a.n - 2
	if df <= 0 {
		return Stats{
			Slope: slope, Intercept: intercept, SSE: sse,
			Significance: math.NaN(), InterceptStdErr: math.NaN(),
			MeanSquareError: math.NaN(), SlopeStdErr: math.NaN(),
		}
	}

	mse := sse / float64(df)
	slopeStdErr := math.Sqrt(mse / a.sumXX)
	interceptStdErr := math.Sqrt(mse * (1.0/float64(a.n) + a.meanX*a.meanX/a.sumXX))

	significance := math.NaN()
	if slopeStdErr > 0 {
		t := slope / slopeStdErr
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
		significance = 2 * (1 - tDist.CDF(math.Abs(t)))
	}

	return Stats{
		Slope:           slope,
		Intercept:       intercept,
		Significance:    significance,
		SSE:             sse,
		InterceptStdErr: interceptStdErr,
		MeanSquareError: mse,
		SlopeStdErr:     slopeStdErr,
	}
}

// FitSeries fits OLS over paired (x, y) samples using incremental
// accumulation. Returns an error if fewer than minYears distinct x values
// are present.
func FitSeries(xs, ys []float64, minYears int) (Stats, error) {
	distinct := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		distinct[x] = struct{}{}
	}
	if len(distinct) < minYears {
		return Stats{}, errTooFewYears
	}

	var acc accumulator
	for i := range xs {
		acc.add(xs[i], ys[i])
	}
	return acc.fit(), nil
}
