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

package isofitutil

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adsorptionmodel/isofit"
	"github.com/adsorptionmodel/isofit/isofitserve"
)

// densityContext loads the configured density table, degrading to the
// analytic fallback when no table is available.
func densityContext() *isofit.DensityContext {
	file := os.ExpandEnv(Cfg.GetString("DensityTableFile"))
	if file == "" {
		return isofit.NewDensityContext()
	}
	f, err := os.Open(file)
	if err != nil {
		logger.WithError(err).Warn("density table unavailable; using analytic fallback only")
		return isofit.NewDensityContext()
	}
	defer f.Close()
	d, err := isofit.NewDensityContextFromTable(f)
	if err != nil {
		logger.WithError(err).Warn("density table failed to load; using analytic fallback only")
		return isofit.NewDensityContext()
	}
	return d
}

var fitCmd = &cobra.Command{
	Use:   "fit request.json",
	Short: "Run one fit from a JSON request file.",
	Long: `fit reads a fit request in the same JSON format the HTTP server
accepts, runs the fit, and writes the JSON result to the output file
(or standard output).`,
	DisableAutoGenTag: true,
	Args:              cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		req, err := isofitserve.DecodeRequest(f)
		f.Close()
		if err != nil {
			return err
		}
		req.MaxEvaluations = Cfg.GetInt("MaxSolverEvaluations")

		result, err := isofit.Fit(densityContext(), req)
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			logger.Warn(w)
		}

		var out io.Writer = cmd.OutOrStdout()
		if path := Cfg.GetString("OutputFile"); path != "" {
			of, err := os.Create(os.ExpandEnv(path))
			if err != nil {
				return err
			}
			defer of.Close()
			out = of
		}
		return isofitserve.EncodeResult(out, result)
	},
}
