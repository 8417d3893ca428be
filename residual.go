/*
Copyright © 2024 the isofit authors.
This file is part of isofit.

isofit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isofit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isofit.  If not, see <http://www.gnu.org/licenses/>.
*/

package isofit

import "math"

// A datasetSlice locates one dataset's observations within the
// flattened observation vector: indexes [start, end). The slices of a
// problem exactly partition the flattened vector with no gaps or
// overlaps.
type datasetSlice struct {
	start, end int
}

// A problem is the residual function for one global fit. It holds the
// flattened observations and the precomputed bulk densities; both are
// fixed for the lifetime of the fit, so each solver evaluation only
// recomputes occupancies and predicted uptakes.
//
// The parameter vector layout depends on the pore-volume mode:
//
//	fitted: [vP, rhoA, c, b_1 … b_N]
//	fixed:  [rhoA, c, b_1 … b_N]
//
// where N is the number of datasets and b_i corresponds positionally
// to Datasets[i].
type problem struct {
	req *FitRequest

	pressures []float64
	observed  []float64
	rhoB      []float64
	slices    []datasetSlice
}

func newProblem(req *FitRequest, d *DensityContext) *problem {
	p := &problem{req: req}
	cursor := 0
	for _, ds := range req.Datasets {
		start := cursor
		for _, m := range ds.Data {
			p.pressures = append(p.pressures, m.Pressure)
			p.observed = append(p.observed, m.ExcessUptake)
			cursor++
		}
		p.slices = append(p.slices, datasetSlice{start: start, end: cursor})
	}

	// Bulk density depends only on pressure and temperature, both of
	// which are fixed during the fit, so compute it once up front.
	p.rhoB = make([]float64, len(p.pressures))
	for i, sl := range p.slices {
		d.DensityBatch(p.rhoB[sl.start:sl.end], p.pressures[sl.start:sl.end],
			req.Datasets[i].Temperature, req.Species)
	}
	return p
}

// nParams returns the length of the parameter vector: 3+N in fitted
// pore-volume mode, 2+N in fixed mode.
func (p *problem) nParams() int {
	n := len(p.req.Datasets)
	if p.req.PoreVolumeMode == PoreVolumeFixed {
		return 2 + n
	}
	return 3 + n
}

// unpack splits a candidate parameter vector into its physical
// components according to the pore-volume mode.
func (p *problem) unpack(x []float64) (vP, rhoA, c float64, b []float64) {
	if p.req.PoreVolumeMode == PoreVolumeFixed {
		return p.req.FixedPoreVolume, x[0], x[1], x[2:]
	}
	return x[0], x[1], x[2], x[3:]
}

// residuals computes predicted−observed excess uptake for the candidate
// parameter vector x, writing one residual per observation into out.
func (p *problem) residuals(x, out []float64) {
	vP, rhoA, c, b := p.unpack(x)
	for i, sl := range p.slices {
		bi := b[i]
		for j := sl.start; j < sl.end; j++ {
			theta := p.req.Model.Theta(p.pressures[j], bi, c)
			out[j] = excessUptake(vP, rhoA, p.rhoB[j], theta) - p.observed[j]
		}
	}
}

// initial returns the initial guess and box bounds for the fit. The
// bounds keep every parameter strictly positive: a non-positive pore
// volume or density is physically meaningless, and a non-positive
// heterogeneity makes the Toth and Sips forms undefined.
func (p *problem) initial() (x0, lb, ub []float64) {
	// The adsorbate density guess tracks the real relative densities
	// of the adsorbed phases: much smaller for hydrogen than for the
	// heavier gases.
	rhoGuess := 0.4
	if p.req.Species == Hydrogen {
		rhoGuess = 0.08
	}

	n := len(p.req.Datasets)
	if p.req.PoreVolumeMode == PoreVolumeFixed {
		x0 = []float64{rhoGuess, 0.5}
		lb = []float64{0.01, 0.1}
		ub = []float64{3, 10}
	} else {
		x0 = []float64{0.5, rhoGuess, 0.5}
		lb = []float64{0.01, 0.01, 0.1}
		ub = []float64{5, 3, 10}
	}
	for i := 0; i < n; i++ {
		x0 = append(x0, 1)
		lb = append(lb, 1e-5)
		ub = append(ub, math.Inf(1))
	}
	return x0, lb, ub
}
