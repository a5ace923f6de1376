package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the master
// server. Most fields are populated from a YAML config file via viper, with
// MASTERD_-prefixed environment variables able to override any nested key
// (channels.server_count becomes MASTERD_CHANNELS_SERVER_COUNT, etc). The
// two USERSERVICE_* variables are bound without the MASTERD_ prefix since
// their names are mandated by the upstream contract itself, not chosen by
// this server.
type Config struct {
	// Hostname or IP address on which the TCP and UDP listeners bind.
	Hostname string `mapstructure:"hostname"`
	// TCP port for the framed session protocol.
	MasterPort int `mapstructure:"master_port"`
	// UDP port for the NAT hole-punch echo endpoint.
	HolepunchPort int `mapstructure:"holepunch_port"`
	// Configured connection limit. It is loaded but not read by the server,
	// which applies no limit on concurrent connections.
	MaxConnections int `mapstructure:"max_connections"`

	// Full path to a file logs will be written to. Blank writes to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum log level: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	Channels struct {
		// Number of channel servers in the directory.
		ServerCount int `mapstructure:"server_count"`
		// Number of channels per channel server.
		ChannelsPerServer int `mapstructure:"channels_per_server"`
	} `mapstructure:"channels"`

	Room struct {
		// Fixed player-slot capacity for every room.
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"room"`

	Upstream struct {
		// Host/port of the external user service. Populated from
		// USERSERVICE_HOST/USERSERVICE_PORT, see LoadConfig.
		Host string
		Port string
		// Request timeout for a single upstream HTTP call.
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
		// Configured interval between automatic liveness probes. It is
		// loaded but not read; the probe always ticks every 5 seconds.
		ProbeIntervalSeconds int `mapstructure:"probe_interval_seconds"`
	} `mapstructure:"upstream"`

	Debugging struct {
		// Dump every inbound/outbound frame to PacketDumpDir; has no effect
		// when PacketDumpDir is empty.
		LogPackets bool `mapstructure:"log_packets"`
		// Base directory for raw frame dumps; empty disables dumping.
		PacketDumpDir string `mapstructure:"packet_dump_dir"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "MASTERD"

// LoadConfig initializes viper with the contents of the config file under
// configPath (if present) and overlays environment variables, following
// the same nested-key-to-env-var binding the teacher's LoadConfig uses.
func LoadConfig(configPath string) (*Config, error) {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("hostname", "0.0.0.0")
	viper.SetDefault("master_port", 30001)
	viper.SetDefault("holepunch_port", 30002)
	viper.SetDefault("max_connections", 4096)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("channels.server_count", 1)
	viper.SetDefault("channels.channels_per_server", 1)
	viper.SetDefault("room.capacity", 16)
	viper.SetDefault("upstream.timeout_seconds", 5)
	viper.SetDefault("upstream.probe_interval_seconds", 5)

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults plus env vars are sufficient.
	}

	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s_%s: %w", k, envVarPrefix, envVar, err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %w", err)
	}

	config.Upstream.Host = os.Getenv("USERSERVICE_HOST")
	config.Upstream.Port = os.Getenv("USERSERVICE_PORT")
	if config.Upstream.Host == "" || config.Upstream.Port == "" {
		return nil, errors.New("USERSERVICE_HOST and USERSERVICE_PORT must both be set")
	}

	return config, nil
}

// UpstreamAddress returns the fully qualified base URL of the user service.
func (c *Config) UpstreamAddress() string {
	return fmt.Sprintf("http://%s:%s", c.Upstream.Host, c.Upstream.Port)
}

// MasterAddress returns the TCP listen address for the framed session protocol.
func (c *Config) MasterAddress() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.MasterPort)
}

// HolepunchAddress returns the UDP listen address for the hole-punch endpoint.
func (c *Config) HolepunchAddress() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.HolepunchPort)
}
