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

	"gonum.org/v1/gonum/floats"
)

// rmsr returns the root-mean-square of the residual vector, a
// goodness-of-fit measure in the same units as the observations.
func rmsr(resid []float64) float64 {
	if len(resid) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(resid, resid) / float64(len(resid)))
}
