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

// Package isofitutil wires the isofit fitting engine into a command
// line interface.
package isofitutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/adsorptionmodel/isofit"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var logger *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	logger = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	// Options are the configuration options available to isofit.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "addr",
			usage: `
              addr specifies the address the HTTP server listens on.`,
			shorthand:  "a",
			defaultVal: ":8000",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "ServerConfigFile",
			usage: `
              ServerConfigFile is the path to a TOML file holding the
              server configuration. Values from the file override the
              individual command-line options.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "DensityTableFile",
			usage: `
              DensityTableFile is the path to the density lookup CSV
              produced by the offline table generator. When empty, bulk
              densities come from the analytic equation-of-state
              approximation only.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "AllowedOrigins",
			usage: `
              AllowedOrigins lists the origins allowed to make
              cross-origin requests to the server. An empty list allows
              all origins.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "MaxSolverEvaluations",
			usage: `
              MaxSolverEvaluations caps the number of residual
              evaluations per fit. Zero uses the engine default.`,
			defaultVal: isofit.DefaultMaxEvaluations,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path the fit command writes its JSON
              result to. When empty the result goes to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fitCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ISOFIT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(serveCmd)
	Root.AddCommand(fitCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("isofit: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// GetStringSlice returns a string-slice configuration value. A plain
// string, as delivered by an environment variable, is split on commas.
func GetStringSlice(name string) []string {
	v := Cfg.Get(name)
	if s, ok := v.(string); ok {
		if s == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	if slice, err := cast.ToStringSliceE(v); err == nil {
		return slice
	}
	return Cfg.GetStringSlice(name)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "isofit",
	Short: "A multi-temperature gas adsorption isotherm fitting tool.",
	Long: `isofit fits excess-adsorption isotherm models (Langmuir, Toth, Sips)
to experimental gas-uptake measurements taken at one or more
temperatures, recovering pore volume, adsorbate density, gas affinity,
and surface heterogeneity by bounded nonlinear least squares.

Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the
format 'ISOFIT_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of isofit.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("isofit v%s\n", isofit.Version)
	},
	DisableAutoGenTag: true,
}
