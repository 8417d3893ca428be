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
	"fmt"
	"math"

	"github.com/adsorptionmodel/isofit/isotherm"
)

const (
	// curvePoints is the number of points in each smooth output curve.
	curvePoints = 60

	// curveSpanFactor extends each curve past the highest observed
	// pressure.
	curveSpanFactor = 1.2

	// poreVolumeCeiling is the pore volume [cm³/g] above which a
	// fitted value is flagged as physically unlikely.
	poreVolumeCeiling = 5.0
)

// generateCurves evaluates the fitted model on a dense pressure grid
// for every dataset, overlays the raw observations on their nearest
// grid points, and returns the per-dataset curves together with any
// physical plausibility warnings.
func generateCurves(d *DensityContext, req *FitRequest, vP, rhoA, c float64, b []float64) ([]DatasetResult, []string) {
	results := make([]DatasetResult, len(req.Datasets))
	maxRhoB := 0.0
	for i, ds := range req.Datasets {
		maxP := 0.0
		for _, m := range ds.Data {
			if m.Pressure > maxP {
				maxP = m.Pressure
			}
		}
		grid := make([]float64, curvePoints)
		span := maxP * curveSpanFactor
		for j := range grid {
			grid[j] = span * float64(j) / (curvePoints - 1)
		}

		rhoB := d.DensityBatch(nil, grid, ds.Temperature, req.Species)
		theta := isotherm.ThetaBatch(req.Model, nil, grid, b[i], c)

		chart := make([]ChartPoint, curvePoints)
		for j := range grid {
			if rhoB[j] > maxRhoB {
				maxRhoB = rhoB[j]
			}
			excess := excessUptake(vP, rhoA, rhoB[j], theta[j])
			chart[j] = ChartPoint{
				Pressure:  grid[j],
				ExcessFit: excess,
				Absolute:  absoluteUptake(vP, rhoA, theta[j]),
				Total:     totalUptake(vP, rhoB[j], excess),
			}
		}
		for _, m := range ds.Data {
			raw := m.ExcessUptake
			chart[nearestIndex(grid, m.Pressure)].ExcessRaw = &raw
		}
		results[i] = DatasetResult{
			Temperature: ds.Temperature,
			Affinity:    b[i],
			Chart:       chart,
		}
	}

	var warnings []string
	if rhoA < maxRhoB {
		warnings = append(warnings, fmt.Sprintf(
			"fitted adsorbate density (%.3f g/cm³) is lower than the maximum bulk gas density (%.3f g/cm³): the model cannot distinguish the adsorbed phase from bulk gas",
			rhoA, maxRhoB))
	}
	if vP > poreVolumeCeiling {
		warnings = append(warnings, fmt.Sprintf(
			"fitted pore volume (%.2f cm³/g) is physically unlikely (usually < 2.0)", vP))
	}
	return results, warnings
}

// nearestIndex returns the index of the grid point closest in absolute
// pressure difference to p.
func nearestIndex(grid []float64, p float64) int {
	best := 0
	bestDist := math.Inf(1)
	for j, gp := range grid {
		if d := math.Abs(gp - p); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}
