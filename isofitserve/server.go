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

// Package isofitserve serves the isofit fitting engine over HTTP.
package isofitserve

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/adsorptionmodel/isofit"
	"github.com/adsorptionmodel/isofit/isotherm"
)

// ServerConfig holds the configuration for a Server. It is typically
// decoded from a TOML file.
type ServerConfig struct {
	// Addr is the address to listen on, for example ":8000".
	Addr string

	// DensityTableFile is the path to the density lookup CSV produced
	// by the offline table generator. If it is empty or the file
	// cannot be loaded, the server runs with the analytic density
	// fallback only.
	DensityTableFile string

	// AllowedOrigins configures cross-origin access. Empty means all
	// origins are allowed.
	AllowedOrigins []string

	// MaxSolverEvaluations caps the residual evaluations per fit.
	// Zero means the engine default.
	MaxSolverEvaluations int
}

// Server serves isotherm fitting requests.
type Server struct {
	density *isofit.DensityContext
	maxEval int
	handler http.Handler

	Log logrus.FieldLogger
}

// NewServer creates a new fitting server. A failure to load the density
// table is logged and degrades the server to fallback-only density
// calculation; it is not fatal.
func NewServer(c *ServerConfig) (*Server, error) {
	s := &Server{
		maxEval: c.MaxSolverEvaluations,
		density: isofit.NewDensityContext(),
		Log:     logrus.StandardLogger(),
	}

	if c.DensityTableFile != "" {
		f, err := os.Open(os.ExpandEnv(c.DensityTableFile))
		if err != nil {
			s.Log.WithError(err).Warn("density table unavailable; using analytic fallback only")
		} else {
			d, err := isofit.NewDensityContextFromTable(f)
			f.Close()
			if err != nil {
				s.Log.WithError(err).Warn("density table failed to load; using analytic fallback only")
			} else {
				s.density = d
				s.Log.WithField("file", c.DensityTableFile).Info("loaded density lookup table")
			}
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/calculate", s.calculate)
	mux.HandleFunc("/health", s.health)

	origins := c.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Request and response schemas. These mirror the JSON the front end
// exchanges with the service.

type dataPoint struct {
	Pressure     float64 `json:"pressure"`
	ExcessUptake float64 `json:"excessUptake"`
}

type isothermDataset struct {
	Temperature float64     `json:"temperature"`
	Data        []dataPoint `json:"data"`
}

type globalFitRequest struct {
	GasType         string            `json:"gasType"`
	Model           string            `json:"model"`
	Datasets        []isothermDataset `json:"datasets"`
	PoreVolumeMode  string            `json:"poreVolumeMode"`
	FixedPoreVolume float64           `json:"fixedPoreVolume"`
}

type chartPoint struct {
	Pressure  float64  `json:"pressure"`
	ExcessFit float64  `json:"excessFit"`
	Absolute  float64  `json:"absolute"`
	Total     float64  `json:"total"`
	ExcessRaw *float64 `json:"excessRaw"`
}

type datasetResult struct {
	Temperature float64      `json:"temperature"`
	B           float64      `json:"b"`
	ChartData   []chartPoint `json:"chartData"`
}

type globalParameters struct {
	VP   float64 `json:"vp"`
	RhoA float64 `json:"rhoA"`
	C    float64 `json:"c"`
	RMSR float64 `json:"rmsr"`
}

type fitResponse struct {
	GlobalParameters globalParameters `json:"globalParameters"`
	Datasets         []datasetResult  `json:"datasets"`
	Warnings         []string         `json:"warnings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": isofit.Version})
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed; use POST", r.Method))
		return
	}

	req, err := DecodeRequest(r.Body)
	if err != nil {
		s.Log.WithError(err).Warn("rejected fit request")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.MaxEvaluations = s.maxEval

	result, err := isofit.Fit(s.density, req)
	if err != nil {
		var invalid *isofit.InvalidInputError
		var conv *isofit.FitConvergenceError
		switch {
		case errors.As(err, &invalid):
			s.Log.WithError(err).Warn("rejected fit request")
			writeError(w, http.StatusBadRequest, err)
		case errors.As(err, &conv):
			s.Log.WithError(err).Warn("fit did not converge")
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			s.Log.WithError(err).Error("fit failed")
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.Log.WithFields(logrus.Fields{
		"species":  req.Species,
		"model":    req.Model.Name(),
		"datasets": len(req.Datasets),
		"rmsr":     result.Global.RMSR,
	}).Info("fit complete")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildResponse(result))
}

// DecodeRequest reads a wire-format fit request from r and converts it
// into the engine's representation. Unknown species, model, or mode
// tokens are rejected here; they never reach the fitting engine.
func DecodeRequest(r io.Reader) (*isofit.FitRequest, error) {
	var in globalFitRequest
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, &isofit.InvalidInputError{Reason: fmt.Sprintf("decoding request: %v", err)}
	}
	return parseRequest(&in)
}

// EncodeResult writes the wire-format JSON response for result to w.
func EncodeResult(w io.Writer, result *isofit.FitResult) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(buildResponse(result))
}

func parseRequest(in *globalFitRequest) (*isofit.FitRequest, error) {
	species, err := isofit.ParseSpecies(in.GasType)
	if err != nil {
		return nil, err
	}
	model, err := isotherm.ByName(in.Model)
	if err != nil {
		return nil, &isofit.InvalidInputError{Reason: err.Error()}
	}
	modeToken := in.PoreVolumeMode
	if modeToken == "" {
		modeToken = "fitted"
	}
	mode, err := isofit.ParsePoreVolumeMode(modeToken)
	if err != nil {
		return nil, err
	}

	req := &isofit.FitRequest{
		Species:         species,
		Model:           model,
		PoreVolumeMode:  mode,
		FixedPoreVolume: in.FixedPoreVolume,
	}
	for _, ds := range in.Datasets {
		data := make([]isofit.Measurement, len(ds.Data))
		for i, d := range ds.Data {
			data[i] = isofit.Measurement{Pressure: d.Pressure, ExcessUptake: d.ExcessUptake}
		}
		req.Datasets = append(req.Datasets, isofit.IsothermDataset{
			Temperature: ds.Temperature,
			Data:        data,
		})
	}
	return req, nil
}

// buildResponse converts a fit result into the wire schema, rounding
// values to four decimals the way the front end expects.
func buildResponse(result *isofit.FitResult) *fitResponse {
	out := &fitResponse{
		GlobalParameters: globalParameters{
			VP:   round4(result.Global.PoreVolume),
			RhoA: round4(result.Global.AdsorbateDensity),
			C:    round4(result.Global.Heterogeneity),
			RMSR: round4(result.Global.RMSR),
		},
		Warnings: []string{},
	}
	out.Warnings = append(out.Warnings, result.Warnings...)
	for _, ds := range result.Datasets {
		dr := datasetResult{
			Temperature: ds.Temperature,
			B:           round4(ds.Affinity),
		}
		for _, cp := range ds.Chart {
			p := chartPoint{
				Pressure:  round4(cp.Pressure),
				ExcessFit: round4(cp.ExcessFit),
				Absolute:  round4(cp.Absolute),
				Total:     round4(cp.Total),
			}
			if cp.ExcessRaw != nil {
				raw := *cp.ExcessRaw
				p.ExcessRaw = &raw
			}
			dr.ChartData = append(dr.ChartData, p)
		}
		out.Datasets = append(out.Datasets, dr)
	}
	return out
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
