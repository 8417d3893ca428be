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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ErrOutOfDomain is returned by density-grid interpolation when the
// query point lies outside the tabulated temperature or pressure range.
// It signals that the caller should fall back to the analytic
// equation-of-state approximation; any other interpolation failure is
// a bug, not a fallback condition.
var ErrOutOfDomain = errors.New("isofit: query point outside density table domain")

// densityGrid holds tabulated densities for one species on a
// rectangular (temperature, pressure) grid. Both axes are strictly
// increasing and rho is stored row-major with temperature as the
// slower-varying index.
type densityGrid struct {
	temps     []float64
	pressures []float64
	rho       []float64
}

func (g *densityGrid) at(ti, pi int) float64 {
	return g.rho[ti*len(g.pressures)+pi]
}

// interpolate returns the bilinearly interpolated density at
// temperature t [K] and pressure p [MPa], or ErrOutOfDomain if the
// point is not within the grid's bounds.
func (g *densityGrid) interpolate(t, p float64) (float64, error) {
	nt, np := len(g.temps), len(g.pressures)
	if t < g.temps[0] || t > g.temps[nt-1] || p < g.pressures[0] || p > g.pressures[np-1] {
		return 0, ErrOutOfDomain
	}
	ti := sort.SearchFloat64s(g.temps, t)
	if ti == nt || g.temps[ti] != t {
		ti-- // left edge of the bracketing interval
	}
	if ti == nt-1 {
		ti--
	}
	pi := sort.SearchFloat64s(g.pressures, p)
	if pi == np || g.pressures[pi] != p {
		pi--
	}
	if pi == np-1 {
		pi--
	}

	t0, t1 := g.temps[ti], g.temps[ti+1]
	p0, p1 := g.pressures[pi], g.pressures[pi+1]
	ft := (t - t0) / (t1 - t0)
	fp := (p - p0) / (p1 - p0)

	v00 := g.at(ti, pi)
	v01 := g.at(ti, pi+1)
	v10 := g.at(ti+1, pi)
	v11 := g.at(ti+1, pi+1)

	v0 := v00 + fp*(v01-v00)
	v1 := v10 + fp*(v11-v10)
	return v0 + ft*(v1-v0), nil
}

// ReadDensityTable reads tabulated gas densities from r. The expected
// format is the CSV written by the offline table generator: a header
// row followed by rows of (Gas, T_K, P_MPa, Density_g_cm3). The rows
// for each species must form a complete rectangular grid over the
// cross product of that species' temperature and pressure values;
// duplicate coordinates or missing grid cells are load-time errors.
func ReadDensityTable(r io.Reader) (map[Species]*densityGrid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4

	header, err := cr.Read()
	if err != nil {
		return nil, &DensityTableLoadError{Err: fmt.Errorf("reading header: %v", err)}
	}
	if header[0] != "Gas" || header[1] != "T_K" || header[2] != "P_MPa" || header[3] != "Density_g_cm3" {
		return nil, &DensityTableLoadError{Err: fmt.Errorf("unexpected header %v; want [Gas T_K P_MPa Density_g_cm3]", header)}
	}

	type point struct{ t, p float64 }
	rows := make(map[Species]map[point]float64)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("line %d: %v", line, err)}
		}
		s, err := ParseSpecies(rec[0])
		if err != nil {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("line %d: %v", line, err)}
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("line %d: parsing temperature: %v", line, err)}
		}
		p, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("line %d: parsing pressure: %v", line, err)}
		}
		rho, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("line %d: parsing density: %v", line, err)}
		}
		if rows[s] == nil {
			rows[s] = make(map[point]float64)
		}
		if _, ok := rows[s][point{t, p}]; ok {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("line %d: duplicate grid point (%s, %g K, %g MPa)", line, s, t, p)}
		}
		rows[s][point{t, p}] = rho
	}

	tables := make(map[Species]*densityGrid)
	for s, pts := range rows {
		tSet := make(map[float64]struct{})
		pSet := make(map[float64]struct{})
		for pt := range pts {
			tSet[pt.t] = struct{}{}
			pSet[pt.p] = struct{}{}
		}
		g := &densityGrid{
			temps:     sortedKeys(tSet),
			pressures: sortedKeys(pSet),
		}
		if len(g.temps) < 2 || len(g.pressures) < 2 {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("species %s: grid needs at least 2 temperatures and 2 pressures, got %d and %d", s, len(g.temps), len(g.pressures))}
		}
		if len(pts) != len(g.temps)*len(g.pressures) {
			return nil, &DensityTableLoadError{Err: fmt.Errorf("species %s: %d rows do not form a %d×%d rectangular grid", s, len(pts), len(g.temps), len(g.pressures))}
		}
		g.rho = make([]float64, 0, len(pts))
		for _, t := range g.temps {
			for _, p := range g.pressures {
				rho, ok := pts[point{t, p}]
				if !ok {
					return nil, &DensityTableLoadError{Err: fmt.Errorf("species %s: missing grid point (%g K, %g MPa)", s, t, p)}
				}
				g.rho = append(g.rho, rho)
			}
		}
		tables[s] = g
	}
	return tables, nil
}

func sortedKeys(set map[float64]struct{}) []float64 {
	o := make([]float64, 0, len(set))
	for v := range set {
		o = append(o, v)
	}
	sort.Float64s(o)
	return o
}
