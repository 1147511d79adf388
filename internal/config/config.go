package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	MinBufferSize = 100
	MaxBufferSize = 1000000
)

type Config struct {
	DaemonPort  int           `mapstructure:"daemon_port"`
	DBPath      string        `mapstructure:"db_path"`
	BufferSize  int           `mapstructure:"buffer_size"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	MoveWindow  time.Duration `mapstructure:"move_window"`
	IgnoreList  []string      `mapstructure:"ignore_list"`
}

var Default = Config{
	DaemonPort:  9101,
	DBPath:      "mirrorsync.db",
	BufferSize:  1000,
	SettleDelay: 100 * time.Millisecond,
	MoveWindow:  50 * time.Millisecond,
	IgnoreList:  []string{},
}

// Dir returns the per-user configuration directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(home, ".mirrorsync")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	return dir, nil
}

func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("db_path", filepath.Join(dir, Default.DBPath))
	v.SetDefault("buffer_size", Default.BufferSize)
	v.SetDefault("settle_delay", Default.SettleDelay)
	v.SetDefault("move_window", Default.MoveWindow)
	v.SetDefault("ignore_list", Default.IgnoreList)

	v.SetEnvPrefix("MIRRORSYNC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DaemonPort <= 0 || c.DaemonPort > 65535 {
		errs = append(errs, fmt.Errorf("daemon_port %d out of range", c.DaemonPort))
	}
	if c.BufferSize < MinBufferSize || c.BufferSize > MaxBufferSize {
		errs = append(errs, fmt.Errorf("buffer_size must be between %d and %d", MinBufferSize, MaxBufferSize))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle_delay must not be negative"))
	}
	if c.MoveWindow < 0 {
		errs = append(errs, fmt.Errorf("move_window must not be negative"))
	}

	return errors.Join(errs...)
}

type fileConfig struct {
	DaemonPort  int      `yaml:"daemon_port"`
	DBPath      string   `yaml:"db_path"`
	BufferSize  int      `yaml:"buffer_size"`
	SettleDelay string   `yaml:"settle_delay"`
	MoveWindow  string   `yaml:"move_window"`
	IgnoreList  []string `yaml:"ignore_list"`
}

// Write renders cfg as a config file that Load reads back.
func Write(path string, cfg Config) error {
	out, err := yaml.Marshal(fileConfig{
		DaemonPort:  cfg.DaemonPort,
		DBPath:      cfg.DBPath,
		BufferSize:  cfg.BufferSize,
		SettleDelay: cfg.SettleDelay.String(),
		MoveWindow:  cfg.MoveWindow.String(),
		IgnoreList:  cfg.IgnoreList,
	})
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
