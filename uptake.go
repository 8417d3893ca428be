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

// Uptake equations relating the adsorbed phase to measured quantities.
// All uptakes are in wt%: pore volume vP [cm³/g], adsorbate density
// rhoA and bulk density rhoB [g/cm³], occupancy theta dimensionless.

// excessUptake returns the excess uptake,
// mE = (rhoA − rhoB) · 100 · vP · θ.
func excessUptake(vP, rhoA, rhoB, theta float64) float64 {
	return (rhoA - rhoB) * 100 * vP * theta
}

// absoluteUptake returns the mass confined to the dense adsorbed layer,
// mA = rhoA · 100 · vP · θ, clamped to ≥ 0. Negative values are a
// numerical artifact of extrapolation, not physical.
func absoluteUptake(vP, rhoA, theta float64) float64 {
	return math.Max(0, rhoA*100*vP*theta)
}

// totalUptake returns the total mass held in the pore volume: the
// excess uptake plus the bulk gas occupying the pores,
// mP = mE + rhoB · 100 · vP.
func totalUptake(vP, rhoB, excess float64) float64 {
	return excess + rhoB*100*vP
}
