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

package isofitserve

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adsorptionmodel/isofit"
)

const validRequest = `{
	"gasType": "Hydrogen",
	"model": "langmuir",
	"datasets": [
		{
			"temperature": 77,
			"data": [
				{"pressure": 0, "excessUptake": 0},
				{"pressure": 0.5, "excessUptake": 2.1},
				{"pressure": 1, "excessUptake": 3.4},
				{"pressure": 2, "excessUptake": 4.6},
				{"pressure": 5, "excessUptake": 5.3},
				{"pressure": 10, "excessUptake": 5.1}
			]
		}
	]
}`

func testServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(&ServerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCalculate(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(validRequest))
	s.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200; body: %s", w.Code, w.Body.String())
	}
	var resp fitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GlobalParameters.VP <= 0 {
		t.Errorf("vp = %g; want > 0", resp.GlobalParameters.VP)
	}
	if len(resp.Datasets) != 1 {
		t.Fatalf("got %d datasets; want 1", len(resp.Datasets))
	}
	if len(resp.Datasets[0].ChartData) != 60 {
		t.Errorf("got %d chart points; want 60", len(resp.Datasets[0].ChartData))
	}
	if resp.Datasets[0].Temperature != 77 {
		t.Errorf("temperature = %g; want 77", resp.Datasets[0].Temperature)
	}
	if resp.Warnings == nil {
		t.Error("warnings field absent; want an array, possibly empty")
	}
}

func TestCalculateErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"unknown gas", `{"gasType": "argon", "model": "langmuir", "datasets": [{"temperature": 77, "data": [{"pressure": 1, "excessUptake": 2}]}]}`, http.StatusBadRequest},
		{"unknown model", `{"gasType": "Hydrogen", "model": "freundlich", "datasets": [{"temperature": 77, "data": [{"pressure": 1, "excessUptake": 2}]}]}`, http.StatusBadRequest},
		{"unknown mode", `{"gasType": "Hydrogen", "model": "langmuir", "poreVolumeMode": "frozen", "datasets": [{"temperature": 77, "data": [{"pressure": 1, "excessUptake": 2}]}]}`, http.StatusBadRequest},
		{"no datasets", `{"gasType": "Hydrogen", "model": "langmuir", "datasets": []}`, http.StatusBadRequest},
		{"malformed JSON", `{"gasType": `, http.StatusBadRequest},
	}
	s := testServer(t)
	for _, c := range cases {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(c.body))
		s.ServeHTTP(w, r)
		if w.Code != c.code {
			t.Errorf("%s: status = %d; want %d", c.name, w.Code, c.code)
			continue
		}
		var resp errorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if resp.Error == "" {
			t.Errorf("%s: empty error message", c.name)
		}
	}
}

func TestCalculateMethodNotAllowed(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/calculate", nil)
	s.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d; want 405", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q; want ok", resp["status"])
	}
	if resp["version"] != isofit.Version {
		t.Errorf("version = %q; want %q", resp["version"], isofit.Version)
	}
}

func TestDecodeRequestDefaults(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(validRequest))
	if err != nil {
		t.Fatal(err)
	}
	if req.Species != isofit.Hydrogen {
		t.Errorf("species = %v; want hydrogen", req.Species)
	}
	if req.Model.Name() != "langmuir" {
		t.Errorf("model = %q; want langmuir", req.Model.Name())
	}
	if req.PoreVolumeMode != isofit.PoreVolumeFitted {
		t.Errorf("mode = %v; want fitted when the field is omitted", req.PoreVolumeMode)
	}
	if len(req.Datasets) != 1 || len(req.Datasets[0].Data) != 6 {
		t.Errorf("datasets not carried through: %+v", req.Datasets)
	}
}

func TestDecodeRequestCarbonDioxideAlias(t *testing.T) {
	body := strings.Replace(validRequest, `"Hydrogen"`, `"CarbonDioxide"`, 1)
	req, err := DecodeRequest(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if req.Species != isofit.CO2 {
		t.Errorf("species = %v; want CO2", req.Species)
	}
}

func TestEncodeResultRounding(t *testing.T) {
	raw := 3.41
	result := &isofit.FitResult{
		Global: isofit.GlobalParameters{
			PoreVolume:       0.523456789,
			AdsorbateDensity: 0.081234567,
			Heterogeneity:    0.5,
			RMSR:             0.00123456,
		},
		Datasets: []isofit.DatasetResult{
			{
				Temperature: 77,
				Affinity:    1.23456789,
				Chart: []isofit.ChartPoint{
					{Pressure: 1.000049, ExcessFit: 3.4000501, Absolute: 4.1, Total: 4.2, ExcessRaw: &raw},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := EncodeResult(&buf, result); err != nil {
		t.Fatal(err)
	}
	var resp fitResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GlobalParameters.VP != 0.5235 {
		t.Errorf("vp = %g; want 0.5235", resp.GlobalParameters.VP)
	}
	if resp.Datasets[0].B != 1.2346 {
		t.Errorf("b = %g; want 1.2346", resp.Datasets[0].B)
	}
	cp := resp.Datasets[0].ChartData[0]
	if cp.Pressure != 1.0 {
		t.Errorf("pressure = %g; want 1", cp.Pressure)
	}
	if cp.ExcessFit != 3.4001 {
		t.Errorf("excessFit = %g; want 3.4001", cp.ExcessFit)
	}
	if cp.ExcessRaw == nil || *cp.ExcessRaw != 3.41 {
		t.Errorf("excessRaw = %v; want 3.41", cp.ExcessRaw)
	}
}
