// ABOUTME: Flag to configuration key binding
// ABOUTME: Loads merged configuration with command line flags taking precedence
package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/heywifi/heywifi-go/internal/config"
)

// flagKeys maps flag names to configuration keys
var flagKeys = map[string]string{
	"device":        "device",
	"driver":        "driver",
	"format":        "format",
	"rate":          "rate",
	"channels":      "channels",
	"buffer-frames": "buffer_frames",
	"read-timeout":  "read_timeout",
	"profiles-file": "profiles_file",
	"profile":       "profile",
	"message-size":  "message_size",
	"exec":          "exec",
	"exec-timeout":  "exec_timeout",
	"ack-tone":      "ack_tone",
	"log-level":     "log_level",
	"log-file":      "log_file",
	"metrics-addr":  "metrics_addr",
	"tui":           "tui",
}

// loadConfig merges flags, environment, config file and defaults. Only flags
// set on the command line override the other sources.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	v := config.New()
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}
	return config.Load(v, configFile)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("flag %q not defined", name)
		}
		if !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
