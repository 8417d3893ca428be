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

import (
	"math"
	"testing"

	"github.com/adsorptionmodel/isofit/isotherm"
)

func testRequest(mode PoreVolumeMode) *FitRequest {
	return &FitRequest{
		Species:        Hydrogen,
		Model:          isotherm.Langmuir{},
		PoreVolumeMode: mode,
		Datasets: []IsothermDataset{
			{Temperature: 77, Data: []Measurement{
				{Pressure: 0.1, ExcessUptake: 1.1},
				{Pressure: 1, ExcessUptake: 2.3},
				{Pressure: 5, ExcessUptake: 3.0},
			}},
			{Temperature: 250, Data: []Measurement{
				{Pressure: 1, ExcessUptake: 0.8},
				{Pressure: 10, ExcessUptake: 1.9},
			}},
			{Temperature: 298, Data: []Measurement{
				{Pressure: 20, ExcessUptake: 1.2},
			}},
		},
	}
}

// The dataset slices must exactly partition the flattened observation
// vector: no gaps, no overlaps.
func TestSlicePartition(t *testing.T) {
	p := newProblem(testRequest(PoreVolumeFitted), NewDensityContext())

	if p.slices[0].start != 0 {
		t.Errorf("first slice starts at %d; want 0", p.slices[0].start)
	}
	for i := 0; i < len(p.slices)-1; i++ {
		if p.slices[i].end != p.slices[i+1].start {
			t.Errorf("slice %d ends at %d but slice %d starts at %d", i, p.slices[i].end, i+1, p.slices[i+1].start)
		}
	}
	last := p.slices[len(p.slices)-1]
	if last.end != len(p.observed) {
		t.Errorf("last slice ends at %d; want %d", last.end, len(p.observed))
	}
	if len(p.observed) != 6 || len(p.pressures) != 6 || len(p.rhoB) != 6 {
		t.Errorf("flattened lengths = %d, %d, %d; want 6", len(p.observed), len(p.pressures), len(p.rhoB))
	}
}

// Fitted mode fits 3+N parameters, fixed mode 2+N, for N datasets.
func TestParameterVectorLength(t *testing.T) {
	d := NewDensityContext()

	p := newProblem(testRequest(PoreVolumeFitted), d)
	x0, lb, ub := p.initial()
	if n := p.nParams(); n != 3+3 {
		t.Errorf("fitted mode nParams = %d; want 6", n)
	}
	if len(x0) != 6 || len(lb) != 6 || len(ub) != 6 {
		t.Errorf("fitted mode x0/lb/ub lengths = %d/%d/%d; want 6", len(x0), len(lb), len(ub))
	}

	req := testRequest(PoreVolumeFixed)
	req.FixedPoreVolume = 0.3
	p = newProblem(req, d)
	x0, lb, ub = p.initial()
	if n := p.nParams(); n != 2+3 {
		t.Errorf("fixed mode nParams = %d; want 5", n)
	}
	if len(x0) != 5 || len(lb) != 5 || len(ub) != 5 {
		t.Errorf("fixed mode x0/lb/ub lengths = %d/%d/%d; want 5", len(x0), len(lb), len(ub))
	}

	vP, rhoA, c, b := p.unpack(x0)
	if vP != 0.3 {
		t.Errorf("fixed mode unpacked vP = %g; want 0.3", vP)
	}
	if rhoA != 0.08 || c != 0.5 {
		t.Errorf("fixed mode initial rhoA, c = %g, %g; want 0.08, 0.5", rhoA, c)
	}
	if len(b) != 3 {
		t.Errorf("fixed mode unpacked %d affinities; want 3", len(b))
	}
}

// The bounds must keep every parameter strictly positive; a zero or
// negative heterogeneity would make the Toth and Sips forms undefined.
func TestBoundsStrictlyPositive(t *testing.T) {
	for _, mode := range []PoreVolumeMode{PoreVolumeFitted, PoreVolumeFixed} {
		p := newProblem(testRequest(mode), NewDensityContext())
		x0, lb, ub := p.initial()
		for j := range lb {
			if lb[j] <= 0 {
				t.Errorf("mode %v: lower bound %d = %g; want > 0", mode, j, lb[j])
			}
			if x0[j] < lb[j] || x0[j] > ub[j] {
				t.Errorf("mode %v: initial guess %d = %g outside [%g, %g]", mode, j, x0[j], lb[j], ub[j])
			}
		}
	}
}

// Bulk densities are precomputed per observation at the dataset's own
// temperature.
func TestPrecomputedBulkDensity(t *testing.T) {
	d := NewDensityContext()
	req := testRequest(PoreVolumeFitted)
	p := newProblem(req, d)
	for i, sl := range p.slices {
		for j := sl.start; j < sl.end; j++ {
			want := d.Density(p.pressures[j], req.Datasets[i].Temperature, req.Species)
			if p.rhoB[j] != want {
				t.Errorf("rhoB[%d] = %g; want %g", j, p.rhoB[j], want)
			}
		}
	}
}

// The residual is predicted minus observed excess uptake.
func TestResidualValues(t *testing.T) {
	const tolerance = 1e-12
	d := NewDensityContext()
	req := testRequest(PoreVolumeFitted)
	p := newProblem(req, d)

	x := []float64{0.5, 0.08, 0.5, 1, 1.2, 0.9}
	out := make([]float64, len(p.observed))
	p.residuals(x, out)

	for i, sl := range p.slices {
		temp := req.Datasets[i].Temperature
		for j := sl.start; j < sl.end; j++ {
			rhoB := d.Density(p.pressures[j], temp, req.Species)
			theta := req.Model.Theta(p.pressures[j], x[3+i], x[2])
			want := (x[1]-rhoB)*100*x[0]*theta - p.observed[j]
			if math.Abs(out[j]-want) > tolerance {
				t.Errorf("residual[%d] = %g; want %g", j, out[j], want)
			}
		}
	}
}
