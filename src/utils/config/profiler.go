package config

import (
	"github.com/spf13/viper"
)

type Profiler struct {
	// Registers /debug/pprof endpoints on the REST server
	Enabled bool
}

func setProfilerDefaults() {
	viper.SetDefault("Profiler.Enabled", false)
}
