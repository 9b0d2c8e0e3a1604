package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config keys. Each is also read from OVPM_<KEY>.
const (
	keyConfig        = "config"
	keyURL           = "url"
	keyProfile       = "profile"
	keySessionFile   = "session_file"
	keyEndpointsFile = "endpoints_file"
	keyTimeout       = "timeout"
	keyLogLevel      = "log_level"
	keyLogFormat     = "log_format"
	keyOutput        = "output"
	keyMetricsAddr   = "metrics_addr"
)

const (
	defaultURL         = "http://127.0.0.1:8080/api/v1"
	defaultProfile     = "default"
	defaultTimeout     = 30 * time.Second
	defaultMetricsAddr = ":9469"
)

// Config is the resolved ovpmctl configuration.
type Config struct {
	URL           string
	Profile       string
	SessionFile   string
	EndpointsFile string
	Timeout       time.Duration
	LogLevel      string
	LogFormat     string
	Output        string
	MetricsAddr   string

	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("OVPM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyURL, defaultURL)
	v.SetDefault(keyProfile, defaultProfile)
	v.SetDefault(keySessionFile, defaultSessionFile())
	v.SetDefault(keyTimeout, defaultTimeout)
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyLogFormat, "auto")
	v.SetDefault(keyOutput, string(FormatTable))
	v.SetDefault(keyMetricsAddr, defaultMetricsAddr)
	return v
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ovpmctl.db")
}

// bindFlags maps command-line flags onto config keys. Flags only win when set.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{
		keyConfig, keyURL, keyProfile, keySessionFile, keyEndpointsFile,
		keyTimeout, keyLogLevel, keyLogFormat, keyOutput, keyMetricsAddr,
	} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// LoadConfig resolves configuration in order of precedence:
//  1. Command-line flags
//  2. OVPM_* environment variables
//  3. .env and .env.local in the working directory
//  4. Config file (--config, or ~/.ovpmctl.yaml)
//  5. Defaults
func LoadConfig(v *viper.Viper) (*Config, error) {
	loadEnvFiles()

	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".ovpmctl")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		URL:           strings.TrimSpace(v.GetString(keyURL)),
		Profile:       strings.TrimSpace(v.GetString(keyProfile)),
		SessionFile:   v.GetString(keySessionFile),
		EndpointsFile: v.GetString(keyEndpointsFile),
		Timeout:       v.GetDuration(keyTimeout),
		LogLevel:      strings.ToLower(v.GetString(keyLogLevel)),
		LogFormat:     strings.ToLower(v.GetString(keyLogFormat)),
		Output:        strings.ToLower(v.GetString(keyOutput)),
		MetricsAddr:   v.GetString(keyMetricsAddr),
		ConfigFile:    v.ConfigFileUsed(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Profile == "" {
		return errors.New("profile must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := ParseFormat(c.Output); err != nil {
		return err
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (auto, console, json)", c.LogFormat)
	}
	return nil
}

// loadEnvFiles loads .env files without overriding variables already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
