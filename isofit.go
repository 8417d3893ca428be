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

// Package isofit fits physico-chemical excess-adsorption models to
// experimental gas-uptake measurements. Datasets taken at several
// temperatures are fit simultaneously: pore volume, adsorbate density,
// and isotherm heterogeneity are shared among all datasets while each
// dataset gets its own gas-affinity parameter. The fit is a bounded
// nonlinear least-squares minimization; the result includes smooth
// predicted excess, absolute, and total uptake curves plus physical
// plausibility warnings.
package isofit

import (
	"fmt"

	"github.com/adsorptionmodel/isofit/isotherm"
)

// Version gives the isofit version number.
const Version = "1.2.0"

// A Measurement is one experimental observation: the equilibrium
// pressure [MPa] and the measured excess uptake [wt%].
type Measurement struct {
	Pressure     float64
	ExcessUptake float64
}

// An IsothermDataset holds the measurements taken at one temperature.
type IsothermDataset struct {
	// Temperature is the experiment temperature [K].
	Temperature float64

	// Data holds the pressure–uptake observations. Their order does
	// not affect the fit but is preserved when mapping raw points
	// onto the output curve.
	Data []Measurement
}

// PoreVolumeMode selects whether the pore volume is a fitted parameter
// or supplied by the caller.
type PoreVolumeMode int

const (
	// PoreVolumeFitted includes the pore volume in the fitted
	// parameter vector.
	PoreVolumeFitted PoreVolumeMode = iota

	// PoreVolumeFixed holds the pore volume constant at the value
	// given in FitRequest.FixedPoreVolume.
	PoreVolumeFixed
)

// ParsePoreVolumeMode converts a pore-volume-mode token ("fitted" or
// "fixed") into a PoreVolumeMode.
func ParsePoreVolumeMode(name string) (PoreVolumeMode, error) {
	switch name {
	case "fitted":
		return PoreVolumeFitted, nil
	case "fixed":
		return PoreVolumeFixed, nil
	default:
		return 0, &InvalidInputError{Reason: fmt.Sprintf("'%s' is not a valid pore volume mode; valid options are fitted and fixed", name)}
	}
}

// A FitRequest specifies one global fit.
type FitRequest struct {
	// Species is the gas the measurements were taken with.
	Species Species

	// Model is the occupancy-fraction model to fit.
	Model isotherm.Model

	// Datasets holds one dataset per experimental temperature.
	Datasets []IsothermDataset

	// PoreVolumeMode selects fitted or fixed pore volume.
	PoreVolumeMode PoreVolumeMode

	// FixedPoreVolume is the pore volume [cm³/g] used when
	// PoreVolumeMode is PoreVolumeFixed. It is ignored otherwise.
	FixedPoreVolume float64

	// MaxEvaluations caps the number of residual evaluations the
	// solver may perform. Zero means DefaultMaxEvaluations.
	MaxEvaluations int
}

// GlobalParameters holds the parameters shared among all datasets in a
// fit.
type GlobalParameters struct {
	// PoreVolume is the accessible pore volume [cm³/g].
	PoreVolume float64

	// AdsorbateDensity is the density of the adsorbed phase [g/cm³].
	AdsorbateDensity float64

	// Heterogeneity is the isotherm shape parameter c. For the
	// Langmuir model it does not influence the fit and is reported
	// at its initial value.
	Heterogeneity float64

	// RMSR is the root-mean-square residual of the fit [wt%].
	RMSR float64
}

// A ChartPoint is one point of a predicted uptake curve.
type ChartPoint struct {
	Pressure  float64
	ExcessFit float64
	Absolute  float64
	Total     float64

	// ExcessRaw holds the measured excess uptake for observations
	// mapped onto this grid point, or nil if no observation maps
	// here.
	ExcessRaw *float64
}

// A DatasetResult holds the per-dataset fit output.
type DatasetResult struct {
	Temperature float64

	// Affinity is this dataset's fitted affinity parameter b [1/MPa].
	Affinity float64

	Chart []ChartPoint
}

// A FitResult is the output of a successful fit. Warnings flag
// physically implausible fitted values; they never indicate failure.
type FitResult struct {
	Global   GlobalParameters
	Datasets []DatasetResult
	Warnings []string
}

// validate checks the request against the input rules: at least one
// dataset, each dataset non-empty with a positive temperature and
// non-negative pressures, and a model to fit.
func (req *FitRequest) validate() error {
	if req.Model == nil {
		return &InvalidInputError{Reason: "no isotherm model specified"}
	}
	if len(req.Datasets) == 0 {
		return &InvalidInputError{Reason: "no datasets supplied"}
	}
	for i, ds := range req.Datasets {
		if ds.Temperature <= 0 {
			return &InvalidInputError{Reason: fmt.Sprintf("dataset %d: temperature must be positive, got %g K", i, ds.Temperature)}
		}
		if len(ds.Data) == 0 {
			return &InvalidInputError{Reason: fmt.Sprintf("dataset %d (%g K): no measurements", i, ds.Temperature)}
		}
		for j, m := range ds.Data {
			if m.Pressure < 0 {
				return &InvalidInputError{Reason: fmt.Sprintf("dataset %d (%g K): measurement %d has negative pressure %g MPa", i, ds.Temperature, j, m.Pressure)}
			}
		}
	}
	if req.PoreVolumeMode == PoreVolumeFixed && req.FixedPoreVolume < 0 {
		return &InvalidInputError{Reason: fmt.Sprintf("fixed pore volume must be non-negative, got %g cm³/g", req.FixedPoreVolume)}
	}
	return nil
}

// Fit performs a global multi-temperature fit of the requested isotherm
// model to the measurements in req, using d for bulk gas densities.
// It returns an InvalidInputError if the request fails validation and a
// FitConvergenceError if the solver exhausts its evaluation budget; no
// partial results accompany either error.
func Fit(d *DensityContext, req *FitRequest) (*FitResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	prob := newProblem(req, d)
	x0, lb, ub := prob.initial()
	maxEval := req.MaxEvaluations
	if maxEval <= 0 {
		maxEval = DefaultMaxEvaluations
	}
	x, err := solveBounded(prob.residuals, len(prob.observed), x0, lb, ub, maxEval)
	if err != nil {
		return nil, err
	}
	vP, rhoA, c, b := prob.unpack(x)

	resid := make([]float64, len(prob.observed))
	prob.residuals(x, resid)

	datasets, warnings := generateCurves(d, req, vP, rhoA, c, b)
	return &FitResult{
		Global: GlobalParameters{
			PoreVolume:       vP,
			AdsorbateDensity: rhoA,
			Heterogeneity:    c,
			RMSR:             rmsr(resid),
		},
		Datasets: datasets,
		Warnings: warnings,
	}, nil
}
