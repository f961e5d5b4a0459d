package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klothoplatform/fabric/pkg/cli_config"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/validation"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

type (
	// Config is resolved once at startup and passed explicitly to the components that need it.
	Config struct {
		// DefaultLocation is used when a graph names neither a location nor a region.
		DefaultLocation string `mapstructure:"default_location"`
		// StateDir holds stack state for both engines.
		StateDir string `mapstructure:"state_dir"`
		// Engine selects the provisioning engine: pulumi or local.
		Engine     string            `mapstructure:"engine"`
		Passphrase string            `mapstructure:"passphrase"`
		Refresh    bool              `mapstructure:"refresh"`
		Plugins    map[string]string `mapstructure:"plugins"`
		// Credentials are the process-wide defaults. Requests may carry their own.
		Credentials provision.Credentials `mapstructure:"credentials"`
		Policy      validation.Policy     `mapstructure:"policy"`
		Server      ServerConfig          `mapstructure:"server"`
	}

	ServerConfig struct {
		Address      string        `mapstructure:"address"`
		CORSOrigins  []string      `mapstructure:"cors_origins"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	}
)

const (
	EnginePulumi = "pulumi"
	EngineLocal  = "local"

	envPrefix = "FABRIC"
)

// envAliases are the unprefixed variables accepted for compatibility with existing deployments.
var envAliases = map[string][]string{
	"default_location":            {"AZURE_LOCATION"},
	"state_dir":                   {"PULUMI_STATE_DIR"},
	"passphrase":                  {"PULUMI_CONFIG_PASSPHRASE"},
	"server.cors_origins":         {"CORS_ALLOW_ORIGINS"},
	"credentials.client_id":       {"ARM_CLIENT_ID"},
	"credentials.client_secret":   {"ARM_CLIENT_SECRET"},
	"credentials.subscription_id": {"ARM_SUBSCRIPTION_ID"},
	"credentials.tenant_id":       {"ARM_TENANT_ID"},
}

// Load reads configuration from, in increasing precedence: defaults, the config file, and the
// environment. With an empty path, fabric.{yaml,json,toml} is looked up in the working directory
// and ~/.fabric, and a missing file is not an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fabric")
		v.AddConfigPath(".")
		if dir, err := cli_config.FabricConfigPath(""); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{envName(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Config{Policy: validation.DefaultPolicy()}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if !v.IsSet("policy.defaultLocation") {
		cfg.Policy.DefaultLocation = cfg.DefaultLocation
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_location", "westeurope")
	v.SetDefault("engine", EnginePulumi)
	v.SetDefault("passphrase", "local-dev-only")
	v.SetDefault("refresh", false)
	if dir, err := cli_config.FabricConfigPath("state"); err == nil {
		v.SetDefault("state_dir", dir)
	} else {
		v.SetDefault("state_dir", ".fabric/state")
	}
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Minute)
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Engine {
	case EnginePulumi, EngineLocal:
	default:
		return fmt.Errorf("engine must be one of %s or %s, got: %q", EnginePulumi, EngineLocal, c.Engine)
	}
	if c.DefaultLocation == "" {
		return errors.New("default_location must not be empty")
	}
	if c.StateDir == "" {
		return errors.New("state_dir must not be empty")
	}
	return nil
}

// DefaultCredentials returns the configured credentials, or nil when they are incomplete.
func (c *Config) DefaultCredentials() *provision.Credentials {
	if !c.Credentials.Complete() {
		return nil
	}
	creds := c.Credentials
	return &creds
}
