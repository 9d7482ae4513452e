// ABOUTME: Receiver configuration loading
// ABOUTME: Merges flags, HEYWIFI_* environment, heywifi.yaml and defaults through viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/heywifi/heywifi-go/pkg/audio"
	"github.com/heywifi/heywifi-go/pkg/audio/capture"
	"github.com/heywifi/heywifi-go/pkg/modem"
	"github.com/spf13/viper"
)

const (
	// DefaultProfilesFile is looked up relative to the working directory
	DefaultProfilesFile = "quiet-profiles.json"
	// DefaultProfile is the profile name used when none is configured
	DefaultProfile = "wave"
	// MaxMessageSize bounds the decoder receive buffer
	MaxMessageSize = 65535
)

// Config holds all receiver configuration
type Config struct {
	// Capture
	Device       string        `mapstructure:"device"`
	Driver       string        `mapstructure:"driver"`
	Format       string        `mapstructure:"format"`
	Rate         int           `mapstructure:"rate"`
	Channels     int           `mapstructure:"channels"`
	BufferFrames int           `mapstructure:"buffer_frames"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`

	// Decoder
	ProfilesFile string `mapstructure:"profiles_file"`
	Profile      string `mapstructure:"profile"`
	MessageSize  int    `mapstructure:"message_size"`

	// Hand-off
	Exec        string        `mapstructure:"exec"`
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
	AckTone     bool          `mapstructure:"ack_tone"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Observability
	MetricsAddr string `mapstructure:"metrics_addr"`
	TUI         bool   `mapstructure:"tui"`
}

// DefaultConfig returns configuration with the receiver's defaults
func DefaultConfig() *Config {
	return &Config{
		Device:       capture.DefaultDevice,
		Format:       audio.FormatF32LE.String(),
		Rate:         capture.DefaultSampleRate,
		Channels:     capture.DefaultChannels,
		BufferFrames: capture.DefaultBufferFrames,
		ProfilesFile: DefaultProfilesFile,
		Profile:      DefaultProfile,
		MessageSize:  modem.DefaultMessageSize,
		ExecTimeout:  30 * time.Second,
	}
}

// New returns a viper instance carrying defaults, search paths and the
// HEYWIFI_ environment prefix. Callers bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("device", d.Device)
	v.SetDefault("driver", d.Driver)
	v.SetDefault("format", d.Format)
	v.SetDefault("rate", d.Rate)
	v.SetDefault("channels", d.Channels)
	v.SetDefault("buffer_frames", d.BufferFrames)
	v.SetDefault("read_timeout", d.ReadTimeout)
	v.SetDefault("profiles_file", d.ProfilesFile)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("message_size", d.MessageSize)
	v.SetDefault("exec", d.Exec)
	v.SetDefault("exec_timeout", d.ExecTimeout)
	v.SetDefault("ack_tone", d.AckTone)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("tui", d.TUI)

	v.SetConfigName("heywifi")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/heywifi")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "heywifi"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("HEYWIFI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (file if set, else the search paths) and
// unmarshals the merged settings. A missing file on the search paths is not an
// error; a missing explicit file is.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate checks values before any device is touched
func (c *Config) Validate() error {
	if _, err := c.CaptureConfig(); err != nil {
		return err
	}
	if c.MessageSize < 1 || c.MessageSize > MaxMessageSize {
		return fmt.Errorf("message size must be in 1..%d, got %d", MaxMessageSize, c.MessageSize)
	}
	if c.Profile == "" {
		return fmt.Errorf("profile name is empty")
	}
	if c.ExecTimeout < 0 {
		return fmt.Errorf("exec timeout must not be negative, got %s", c.ExecTimeout)
	}
	return CheckReadable(c.ProfilesFile)
}

// CaptureConfig converts the capture settings into a capture request
func (c *Config) CaptureConfig() (capture.Config, error) {
	format, err := audio.ParseSampleFormat(c.Format)
	if err != nil {
		return capture.Config{}, err
	}
	cc := capture.Config{
		Device:       c.Device,
		Format:       format,
		SampleRate:   c.Rate,
		Channels:     c.Channels,
		BufferFrames: c.BufferFrames,
		ReadTimeout:  c.ReadTimeout,
	}
	if err := cc.Validate(); err != nil {
		return capture.Config{}, err
	}
	return cc, nil
}

// CheckReadable fails unless path names a readable regular file
func CheckReadable(path string) error {
	if path == "" {
		return fmt.Errorf("profiles file not set")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("profiles file %s is not readable: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("profiles file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("profiles file %s is a directory", path)
	}
	return nil
}
