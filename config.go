package aztec

import (
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultPxeUrl        = "http://localhost:8080"
	DefaultAddressesFile = "addresses.json"
	DefaultLogLevel      = "info"
)

const (
	EnvPxeUrl         = "PXE_URL"
	EnvAddressesFile  = "ADDRESSES_FILE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvTxWaitInterval = "TX_WAIT_INTERVAL"
	EnvTxWaitTimeout  = "TX_WAIT_TIMEOUT"
)

type Config struct {
	PxeUrl         string        `json:"pxeUrl"`
	AddressesFile  string        `json:"addressesFile"`
	LogLevel       string        `json:"logLevel"`
	TxWaitInterval time.Duration `json:"txWaitInterval"`
	TxWaitTimeout  time.Duration `json:"txWaitTimeout"`
}

func DefaultConfig() *Config {
	return &Config{
		PxeUrl:         DefaultPxeUrl,
		AddressesFile:  DefaultAddressesFile,
		LogLevel:       DefaultLogLevel,
		TxWaitInterval: DefaultWaitInterval,
	}
}

// LoadConfig reads the process environment over the defaults.
func LoadConfig() (config *Config, err error) {
	config = DefaultConfig()
	if err = config.LoadEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return
}

// LoadEnv overrides fields for every variable getenv reports as non-empty.
func (c *Config) LoadEnv(getenv func(string) string) (err error) {
	if v := getenv(EnvPxeUrl); v != "" {
		c.PxeUrl = v
	}
	if v := getenv(EnvAddressesFile); v != "" {
		c.AddressesFile = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}

	for _, d := range []struct {
		env    string
		target *time.Duration
	}{
		{EnvTxWaitInterval, &c.TxWaitInterval},
		{EnvTxWaitTimeout, &c.TxWaitTimeout},
	} {
		v := getenv(d.env)
		if v == "" {
			continue
		}
		if *d.target, err = time.ParseDuration(v); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s: %v", d.env, err)
		}
	}

	return
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.PxeUrl)
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "pxe url '%s': %v", c.PxeUrl, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(ErrInvalidConfig, "pxe url '%s' must be http(s)://host[:port]", c.PxeUrl)
	}
	if c.AddressesFile == "" {
		return errors.Wrap(ErrInvalidConfig, "addresses file not set")
	}
	if _, err = zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log level '%s'", c.LogLevel)
	}
	if c.TxWaitInterval <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "tx wait interval %s must be positive", c.TxWaitInterval)
	}
	if c.TxWaitTimeout < 0 {
		return errors.Wrapf(ErrInvalidConfig, "tx wait timeout %s must not be negative", c.TxWaitTimeout)
	}
	return nil
}

func (c *Config) WaitOpts() *WaitOpts {
	return &WaitOpts{
		Interval: c.TxWaitInterval,
		Timeout:  c.TxWaitTimeout,
	}
}
