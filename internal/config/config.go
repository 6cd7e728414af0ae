package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigOption describes one setting: its viper key, CLI flag, default and help text.
type ConfigOption struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

const (
	KeyServerAddress       = "server.address"
	KeyServerDecayLifespan = "server.decay.lifespan"
	KeyServerDecaySteps    = "server.decay.steps"
	KeyServerDebugEnabled  = "server.debug.enabled"
)

const (
	KeyDemoLifespan     = "demo.lifespan"
	KeyDemoSteps        = "demo.steps"
	KeyDemoItems        = "demo.items"
	KeyDemoDebugEnabled = "demo.debug.enabled"
)

// ServerOptions are the settings of the serve command.
var ServerOptions = []ConfigOption{
	{Key: KeyServerAddress, Flag: flag(KeyServerAddress), Default: ":8080", Description: "Server listen address"},
	{Key: KeyServerDecayLifespan, Flag: flag(KeyServerDecayLifespan), Default: 30 * time.Second, Description: "Lifespan of a stored key"},
	{Key: KeyServerDecaySteps, Flag: flag(KeyServerDecaySteps), Default: 0, Description: "Buckets per lifespan (0 = one per second)"},
	{Key: KeyServerDebugEnabled, Flag: flag(KeyServerDebugEnabled), Default: false, Description: "Server debug enabled"},
}

// DemoOptions are the settings of the demo command.
var DemoOptions = []ConfigOption{
	{Key: KeyDemoLifespan, Flag: flag(KeyDemoLifespan), Default: 3 * time.Second, Description: "Lifespan of demo items"},
	{Key: KeyDemoSteps, Flag: flag(KeyDemoSteps), Default: 3, Description: "Buckets per lifespan"},
	{Key: KeyDemoItems, Flag: flag(KeyDemoItems), Default: 5, Description: "Number of items inserted per collection"},
	{Key: KeyDemoDebugEnabled, Flag: flag(KeyDemoDebugEnabled), Default: false, Description: "Demo debug enabled"},
}

// Config resolves settings from flags, environment, config file and defaults, in that order.
type Config struct {
	v *viper.Viper
}

// New loads defaults, the optional config.yaml and DECAYING_* environment variables.
func New() (*Config, error) {
	v := viper.New()

	// default values
	for _, o := range ServerOptions {
		v.SetDefault(o.Key, o.Default)
	}

	for _, o := range DemoOptions {
		v.SetDefault(o.Key, o.Default)
	}

	// load config from file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/decaying/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// load config from environment variables
	v.SetEnvPrefix("DECAYING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Config{v: v}, nil
}

// BindFlags registers a flag per option on fs and binds it to the option's key.
func (c *Config) BindFlags(fs *pflag.FlagSet, options []ConfigOption) error {
	for _, o := range options {
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}

	return nil
}

func (c *Config) ServerAddress() string {
	return c.v.GetString(KeyServerAddress) // DECAYING_SERVER_ADDRESS
}

func (c *Config) ServerDecayLifespan() time.Duration {
	return c.v.GetDuration(KeyServerDecayLifespan) // DECAYING_SERVER_DECAY_LIFESPAN
}

func (c *Config) ServerDecaySteps() int {
	return c.v.GetInt(KeyServerDecaySteps) // DECAYING_SERVER_DECAY_STEPS
}

func (c *Config) ServerDebugEnabled() bool {
	return c.v.GetBool(KeyServerDebugEnabled) // DECAYING_SERVER_DEBUG_ENABLED
}

func (c *Config) DemoLifespan() time.Duration {
	return c.v.GetDuration(KeyDemoLifespan) // DECAYING_DEMO_LIFESPAN
}

func (c *Config) DemoSteps() int {
	return c.v.GetInt(KeyDemoSteps) // DECAYING_DEMO_STEPS
}

func (c *Config) DemoItems() int {
	return c.v.GetInt(KeyDemoItems) // DECAYING_DEMO_ITEMS
}

func (c *Config) DemoDebugEnabled() bool {
	return c.v.GetBool(KeyDemoDebugEnabled) // DECAYING_DEMO_DEBUG_ENABLED
}

func flag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	flag = strings.TrimPrefix(flag, "server-")
	flag = strings.TrimPrefix(flag, "demo-")
	return flag
}
