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

// Package isotherm contains the closed set of occupancy-fraction models
// used for excess-adsorption fitting. Each model maps a pressure, an
// affinity, and (where applicable) a heterogeneity parameter to a
// fractional pore occupancy θ in [0, 1].
package isotherm

import (
	"fmt"
	"math"
)

// Model is an occupancy-fraction isotherm model.
type Model interface {
	// Name returns the lower-case token identifying this model in
	// requests and configuration files.
	Name() string

	// Theta returns the fractional occupancy for pressure p [MPa],
	// affinity b [1/MPa], and heterogeneity c. Models without a
	// heterogeneity parameter accept and ignore c.
	//
	// Preconditions: p ≥ 0, b > 0, and c > 0 for models that use it.
	// The fitting bounds keep all parameters inside these ranges.
	Theta(p, b, c float64) float64
}

// Langmuir is the single-site Langmuir isotherm,
// θ = bP / (1 + bP). It has no heterogeneity parameter.
type Langmuir struct{}

// Name returns "langmuir".
func (Langmuir) Name() string { return "langmuir" }

// Theta returns the Langmuir occupancy fraction. c is ignored.
func (Langmuir) Theta(p, b, c float64) float64 {
	if p == 0 {
		return 0
	}
	x := b * p
	return x / (1 + x)
}

// Toth is the Toth isotherm, θ = bP / (1 + (bP)^c)^(1/c),
// which reduces to Langmuir at c = 1.
type Toth struct{}

// Name returns "toth".
func (Toth) Name() string { return "toth" }

// Theta returns the Toth occupancy fraction.
func (Toth) Theta(p, b, c float64) float64 {
	if p == 0 {
		return 0
	}
	x := b * p
	return x / math.Pow(1+math.Pow(x, c), 1/c)
}

// Sips is the Sips (Langmuir–Freundlich) isotherm,
// θ = (bP)^(1/c) / (1 + (bP)^(1/c)).
type Sips struct{}

// Name returns "sips".
func (Sips) Name() string { return "sips" }

// Theta returns the Sips occupancy fraction.
func (Sips) Theta(p, b, c float64) float64 {
	if p == 0 {
		return 0
	}
	x := math.Pow(b*p, 1/c)
	return x / (1 + x)
}

// ByName returns the model corresponding to the given token.
// It is the single dispatch point between model names and model
// implementations; valid tokens are "langmuir", "toth", and "sips".
func ByName(name string) (Model, error) {
	switch name {
	case "langmuir":
		return Langmuir{}, nil
	case "toth":
		return Toth{}, nil
	case "sips":
		return Sips{}, nil
	default:
		return nil, fmt.Errorf("isotherm: '%s' is not a valid isotherm model; valid options are langmuir, toth, and sips", name)
	}
}

// ThetaBatch evaluates m elementwise over the pressures in p, storing
// the occupancies in dst and returning it. If dst is nil a new slice is
// allocated. Each element is computed independently, so the result for
// every element is identical to a scalar Theta call.
func ThetaBatch(m Model, dst, p []float64, b, c float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(p))
	}
	if len(dst) != len(p) {
		panic("isotherm: length mismatch in ThetaBatch")
	}
	for i, pi := range p {
		dst[i] = m.Theta(pi, b, c)
	}
	return dst
}
