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
	"io"
	"math"
)

// Species identifies a gas species for which bulk densities and
// adsorption parameters can be calculated.
type Species int

// The supported gas species.
const (
	Hydrogen Species = iota
	Methane
	CO2
)

// ParseSpecies converts a species token from a request or a lookup
// table into a Species. It accepts "CarbonDioxide" as an alias for
// "CO2" because that is the name the table generator writes.
// Unknown tokens return an UnknownSpeciesError.
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "Hydrogen":
		return Hydrogen, nil
	case "Methane":
		return Methane, nil
	case "CO2", "CarbonDioxide":
		return CO2, nil
	default:
		return 0, &UnknownSpeciesError{Name: name}
	}
}

func (s Species) String() string {
	switch s {
	case Hydrogen:
		return "Hydrogen"
	case Methane:
		return "Methane"
	case CO2:
		return "CO2"
	default:
		return "unknown"
	}
}

// physical constants
const (
	rGas = 8.314 // J/(mol K), universal gas constant

	// Molar masses [kg/mol].
	mwH2  = 2.016e-3
	mwCH4 = 16.04e-3
	mwCO2 = 44.01e-3
)

// molarMass returns the molar mass of the species in kg/mol.
func (s Species) molarMass() float64 {
	switch s {
	case Methane:
		return mwCH4
	case CO2:
		return mwCO2
	default:
		return mwH2
	}
}

// compressibility returns the empirical compressibility factor Z for
// the species at pressure p [MPa]. The corrections are quadratic in
// pressure and are clamped to a floor where the quadratic would
// otherwise drop below physically sensible values; hydrogen needs no
// floor because its correction is always ≥ 1.
func (s Species) compressibility(p float64) float64 {
	pBar := p * 10
	switch s {
	case Methane:
		return math.Max(0.6, 1-0.002*pBar)
	case CO2:
		return math.Max(0.3, 1-0.005*pBar+2e-5*pBar*pBar)
	default: // Hydrogen
		return 1 + 0.0006*pBar
	}
}

// DensityContext calculates bulk gas densities. It optionally holds
// tabulated equation-of-state data; queries outside the tabulated
// domain, or for species without a table, fall back to an analytic
// compressibility-factor approximation.
//
// A DensityContext is immutable after construction and may be shared
// among concurrently running fits without locking.
type DensityContext struct {
	tables map[Species]*densityGrid
}

// NewDensityContext returns a DensityContext with no tabulated data;
// all queries use the analytic fallback.
func NewDensityContext() *DensityContext {
	return &DensityContext{}
}

// NewDensityContextFromTable returns a DensityContext backed by the
// tabulated density data read from r in the lookup-table CSV format
// (see ReadDensityTable). On error the returned context is nil; the
// caller may log the error and continue with NewDensityContext().
func NewDensityContextFromTable(r io.Reader) (*DensityContext, error) {
	tables, err := ReadDensityTable(r)
	if err != nil {
		return nil, err
	}
	return &DensityContext{tables: tables}, nil
}

// HasTable reports whether tabulated data is available for the given
// species.
func (d *DensityContext) HasTable(s Species) bool {
	_, ok := d.tables[s]
	return ok
}

// Density returns the bulk density [g/cm³] of species s at pressure
// p [MPa] and temperature t [K]. Tabulated data is consulted first;
// the analytic fallback is used only when no table exists for s or the
// query point lies outside the table's domain.
func (d *DensityContext) Density(p, t float64, s Species) float64 {
	if g, ok := d.tables[s]; ok {
		if rho, err := g.interpolate(t, p); err == nil {
			return rho
		}
		// Out of the tabulated domain; fall through to the
		// analytic approximation.
	}
	return fallbackDensity(p, t, s)
}

// DensityBatch evaluates Density elementwise over the pressures in p
// at temperature t, storing the results in dst and returning it. If
// dst is nil a new slice is allocated.
func (d *DensityContext) DensityBatch(dst, p []float64, t float64, s Species) []float64 {
	if dst == nil {
		dst = make([]float64, len(p))
	}
	if len(dst) != len(p) {
		panic("isofit: length mismatch in DensityBatch")
	}
	for i, pi := range p {
		dst[i] = d.Density(pi, t, s)
	}
	return dst
}

// fallbackDensity is the analytic equation-of-state approximation:
// ideal-gas density corrected by an empirical compressibility factor.
func fallbackDensity(p, t float64, s Species) float64 {
	z := s.compressibility(p)
	pPa := p * 1e6
	rhoKgM3 := (pPa * s.molarMass()) / (z * rGas * t)
	return rhoKgM3 / 1000 // kg/m³ -> g/cm³
}
