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

import "fmt"

// InvalidInputError indicates that a fit request failed validation
// before any fitting was attempted: an empty dataset, a non-positive
// temperature, a negative pressure, or an unknown species, model, or
// pore-volume-mode token.
type InvalidInputError struct {
	// Reason describes what was wrong with the input.
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "isofit: invalid input: " + e.Reason
}

// UnknownSpeciesError indicates a gas species token that is not in the
// supported set. An unknown species is always rejected rather than
// silently mapped to a default molar mass.
type UnknownSpeciesError struct {
	Name string
}

func (e *UnknownSpeciesError) Error() string {
	return fmt.Sprintf("isofit: '%s' is not a valid gas species; valid options are Hydrogen, Methane, and CO2", e.Name)
}

// DensityTableLoadError indicates that a density lookup table could not
// be loaded, for example because the rows for a species do not form a
// complete rectangular grid. It is a startup-time error: callers are
// expected to log it and continue with a fallback-only DensityContext.
type DensityTableLoadError struct {
	Err error
}

func (e *DensityTableLoadError) Error() string {
	return fmt.Sprintf("isofit: loading density table: %v", e.Err)
}

func (e *DensityTableLoadError) Unwrap() error { return e.Err }

// FitConvergenceError indicates that the bounded least-squares solver
// exhausted its evaluation budget or could not make progress. LastX
// holds the final iterate for diagnostic purposes; it must not be
// reported as a fit result.
type FitConvergenceError struct {
	// LastX is the parameter vector at the final iteration.
	LastX []float64

	// Evaluations is the number of residual evaluations performed.
	Evaluations int

	// Reason describes why the solve was abandoned.
	Reason string
}

func (e *FitConvergenceError) Error() string {
	return fmt.Sprintf("isofit: fit did not converge after %d residual evaluations: %s", e.Evaluations, e.Reason)
}
