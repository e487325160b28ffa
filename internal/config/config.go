// Package config loads go1090track's runtime configuration from layered
// sources: built-in defaults, an optional config file, environment
// variables, then command-line flags — in that increasing order of
// precedence, via spf13/viper bound to spf13/cobra flags.
package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go1090track/internal/track"
)

// Daemon bundles the tracker config plus the handful of settings specific
// to running go1090track as a long-lived process.
type Daemon struct {
	Track track.Config

	RTLADSBPath string
	LogLevel    string
	AMQPURL     string
	AMQPExchange string
}

// BindFlags registers the daemon's flags on cmd and binds them into v,
// following saviobatista/go1090's cobra flag style.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.Float64P("lat", "", 0, "receiver latitude")
	flags.Float64P("lon", "", 0, "receiver longitude")
	flags.Float64P("max-range", "", 0, "maximum accepted range in meters (0 = unlimited)")
	flags.BoolP("mode-ac", "", false, "enable Mode A/C correlation")
	flags.IntP("filter-persistence", "", track.DefaultFilterPersistence, "CPR reliability filter persistence")
	flags.StringP("rtl-adsb-path", "", "rtl_adsb", "path to the rtl_adsb-style demodulator binary")
	flags.StringP("log-level", "l", "info", "log level (trace, debug, info, warn, error)")
	flags.StringP("amqp-url", "", "", "AMQP broker URL for snapshot publication (disabled if empty)")
	flags.StringP("amqp-exchange", "", "go1090track.aircraft", "AMQP fanout exchange name")

	_ = v.BindPFlags(flags)
}

// New builds a Daemon config from v, which should already have defaults,
// an optional config file, environment variables, and flags merged in by
// the caller (see cmd/trackd).
func New(v *viper.Viper) Daemon {
	return Daemon{
		Track: track.Config{
			Latitude:          v.GetFloat64("lat"),
			Longitude:         v.GetFloat64("lon"),
			LatLonValid:       v.GetFloat64("lat") != 0 || v.GetFloat64("lon") != 0,
			MaxRangeMeters:    v.GetFloat64("max-range"),
			ModeAC:            v.GetBool("mode-ac"),
			FilterPersistence: v.GetInt("filter-persistence"),
		},
		RTLADSBPath:  v.GetString("rtl-adsb-path"),
		LogLevel:     v.GetString("log-level"),
		AMQPURL:      v.GetString("amqp-url"),
		AMQPExchange: v.GetString("amqp-exchange"),
	}
}

// NewViper returns a Viper instance configured to also read
// GO1090TRACK_-prefixed environment variables (e.g. GO1090TRACK_LAT for
// --lat), matching the env-var convention billglover/go-adsb-console's
// go.mod implies through its viper dependency.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GO1090TRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetConfigName("go1090track")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/go1090track")
	return v
}
