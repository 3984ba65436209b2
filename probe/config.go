package probe

import (
	"bytes"
	"io/ioutil"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// revive:exported
const (
	DefaultPrefix            = "body"
	DefaultWaitSeconds       = 5
	DefaultIntervalMillis    = 100
	DefaultDriverHost        = "localhost"
	DefaultDriverPort        = "9222"
	DefaultConnectRetries    = 5
	DefaultNavigationTimeout = 30
)

// Environment variables that override file configuration.
const (
	EnvDriverURL   = "BROWSER_DRIVER_URL"
	EnvDriverPort  = "BROWSER_DRIVER_PORT"
	EnvPrefix      = "PAGEPROBE_PREFIX"
	EnvWaitSeconds = "PAGEPROBE_WAIT_SECONDS"
)

// DriverConfig where to reach an already running browser's debugger endpoint
type DriverConfig struct {
	Host                     string `toml:"host"`
	Port                     string `toml:"port"`
	ConnectRetries           int    `toml:"connect_retries"`
	NavigationTimeoutSeconds int    `toml:"navigation_timeout_seconds"`
}

// Config for pageprobe
type Config struct {
	Prefix         string       `toml:"prefix"`          // scope every generic selector is nested under
	WaitSeconds    int          `toml:"wait_seconds"`    // default wait timeout
	IntervalMillis int          `toml:"interval_millis"` // default wait polling interval
	JournalPath    string       `toml:"journal_path"`    // empty disables the wait journal
	Driver         DriverConfig `toml:"driver"`
}

// DefaultConfig returns a config with every field set to its default
func DefaultConfig() *Config {
	return &Config{
		Prefix:         DefaultPrefix,
		WaitSeconds:    DefaultWaitSeconds,
		IntervalMillis: DefaultIntervalMillis,
		Driver: DriverConfig{
			Host:                     DefaultDriverHost,
			Port:                     DefaultDriverPort,
			ConnectRetries:           DefaultConnectRetries,
			NavigationTimeoutSeconds: DefaultNavigationTimeout,
		},
	}
}

// LoadConfig reads a TOML config from path (if not empty) on top of the
// defaults, then applies environment overrides. Variables from envFiles
// (".env" if none are given) are used when the process environment does not
// set them. Missing env files are ignored.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decoding config")
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	env := make(map[string]string)
	for _, file := range envFiles {
		vals, err := godotenv.Read(file)
		if err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				continue
			}
			return nil, errors.Wrapf(err, "reading env file %s", file)
		}
		for k, v := range vals {
			env[k] = v
		}
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return env[key]
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) string) error {
	if v := lookup(EnvDriverURL); v != "" {
		c.Driver.Host = driverHost(v)
	}
	if v := lookup(EnvDriverPort); v != "" {
		c.Driver.Port = v
	}
	if v := lookup(EnvPrefix); v != "" {
		c.Prefix = v
	}
	if v := lookup(EnvWaitSeconds); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvWaitSeconds)
		}
		c.WaitSeconds = seconds
	}
	return nil
}

// driverHost accepts either a bare host or a url like http://localhost
func driverHost(v string) string {
	if !strings.Contains(v, "://") {
		return v
	}
	u, err := url.Parse(v)
	if err != nil || u.Hostname() == "" {
		return v
	}
	return u.Hostname()
}

// Validate the config values
func (c *Config) Validate() error {
	if c.WaitSeconds <= 0 {
		return &InvalidInputErr{Message: "wait_seconds must be positive"}
	}
	if c.IntervalMillis <= 0 {
		return &InvalidInputErr{Message: "interval_millis must be positive"}
	}
	if c.Driver.ConnectRetries < 0 {
		return &InvalidInputErr{Message: "driver.connect_retries must not be negative"}
	}
	return nil
}

// WaitTimeout as a duration
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

// WaitInterval as a duration
func (c *Config) WaitInterval() time.Duration {
	return time.Duration(c.IntervalMillis) * time.Millisecond
}

// NavigationTimeout as a duration, falls back to the default if unset
func (c *Config) NavigationTimeout() time.Duration {
	if c.Driver.NavigationTimeoutSeconds <= 0 {
		return DefaultNavigationTimeout * time.Second
	}
	return time.Duration(c.Driver.NavigationTimeoutSeconds) * time.Second
}
