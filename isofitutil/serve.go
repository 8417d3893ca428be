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
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/adsorptionmodel/isofit/isofitserve"
)

// serverConfig builds the server configuration, starting from the
// command-line and environment options and then overriding from the
// TOML server configuration file if one is given.
func serverConfig() (*isofitserve.ServerConfig, error) {
	c := &isofitserve.ServerConfig{
		Addr:                 Cfg.GetString("addr"),
		DensityTableFile:     os.ExpandEnv(Cfg.GetString("DensityTableFile")),
		AllowedOrigins:       GetStringSlice("AllowedOrigins"),
		MaxSolverEvaluations: Cfg.GetInt("MaxSolverEvaluations"),
	}
	if f := Cfg.GetString("ServerConfigFile"); f != "" {
		if _, err := toml.DecodeFile(os.ExpandEnv(f), c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve fitting requests over HTTP.",
	Long: `serve starts an HTTP server accepting fit requests on
POST /calculate. The density lookup table, if configured, is loaded
once at startup and shared read-only among all requests; if it cannot
be loaded the server logs the problem and runs with the analytic
density fallback only.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := serverConfig()
		if err != nil {
			return err
		}
		logger.Info("setting up...")
		s, err := isofitserve.NewServer(c)
		if err != nil {
			return err
		}
		s.Log = logger

		srv := &http.Server{
			Addr:              c.Addr,
			Handler:           s,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		logger.Infof("listening on http://%s", c.Addr)
		return srv.ListenAndServe()
	},
}
