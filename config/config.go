package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wpatui/poll"
)

type Config struct {
	Interface   string            `mapstructure:"-"`
	Scan        ScanConfig        `mapstructure:"scan"`
	Verify      VerifyConfig      `mapstructure:"verify"`
	Supplicant  SupplicantConfig  `mapstructure:"supplicant"`
	DHCP        DHCPConfig        `mapstructure:"dhcp"`
	AutoConnect AutoConnectConfig `mapstructure:"autoconnect"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ScanConfig struct {
	Passes   int           `mapstructure:"passes"`
	Interval time.Duration `mapstructure:"interval"` // delay between passes
}

type VerifyConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
}

type SupplicantConfig struct {
	Binary    string `mapstructure:"binary"`
	CLI       string `mapstructure:"cli"`
	ConfigDir string `mapstructure:"config_dir"`
	CtrlDir   string `mapstructure:"ctrl_dir"`
	CtrlGroup string `mapstructure:"ctrl_group"`
	LogDir    string `mapstructure:"log_dir"`
	Driver    string `mapstructure:"driver"`
}

type DHCPConfig struct {
	Client string        `mapstructure:"client"`
	Settle time.Duration `mapstructure:"settle"` // wait after acquiring a lease in autoconnect mode
}

type AutoConnectConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

func setDefaults(v *viper.Viper, iface string) {
	v.SetDefault("scan.passes", 3)
	v.SetDefault("scan.interval", 2*time.Second)
	v.SetDefault("verify.attempts", 10)
	v.SetDefault("verify.interval", time.Second)

	v.SetDefault("supplicant.binary", "wpa_supplicant")
	v.SetDefault("supplicant.cli", "wpa_cli")
	v.SetDefault("supplicant.config_dir", "/etc/wpa_supplicant")
	v.SetDefault("supplicant.ctrl_dir", "/var/run/wpa_supplicant")
	v.SetDefault("supplicant.ctrl_group", "netdev")
	v.SetDefault("supplicant.log_dir", os.TempDir())
	v.SetDefault("supplicant.driver", "")

	v.SetDefault("dhcp.client", "dhclient")
	v.SetDefault("dhcp.settle", 5*time.Second)

	v.SetDefault("autoconnect.attempts", 15)
	v.SetDefault("autoconnect.interval", time.Second)

	v.SetDefault("log.file", filepath.Join(os.TempDir(), fmt.Sprintf("wpatui-%s.debug.log", iface)))
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.textfile", "")
}

// Load reads configuration for iface from defaults, the optional YAML file
// at path and WPATUI_* environment variables, in increasing precedence.
func Load(path, iface string) (*Config, error) {
	v := viper.New()
	setDefaults(v, iface)

	v.SetEnvPrefix("WPATUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Interface = iface
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects budgets that could never complete.
func (c *Config) Validate() error {
	var errs []error
	if c.Interface == "" {
		errs = append(errs, errors.New("interface is required"))
	}
	if c.Scan.Passes < 1 {
		errs = append(errs, fmt.Errorf("scan.passes must be positive, got %d", c.Scan.Passes))
	}
	if c.Scan.Interval < 0 {
		errs = append(errs, fmt.Errorf("scan.interval must not be negative, got %s", c.Scan.Interval))
	}
	if c.Verify.Attempts < 1 || c.Verify.Interval <= 0 {
		errs = append(errs, fmt.Errorf("verify budget must be positive, got %d x %s", c.Verify.Attempts, c.Verify.Interval))
	}
	if c.AutoConnect.Attempts < 1 || c.AutoConnect.Interval <= 0 {
		errs = append(errs, fmt.Errorf("autoconnect budget must be positive, got %d x %s", c.AutoConnect.Attempts, c.AutoConnect.Interval))
	}
	return errors.Join(errs...)
}

// ScanBudget is the number of scan passes and the delay between them.
func (c *Config) ScanBudget() poll.Budget {
	return poll.Budget{Attempts: c.Scan.Passes, Interval: c.Scan.Interval}
}

// VerifyBudget bounds how long a connection attempt is watched.
func (c *Config) VerifyBudget() poll.Budget {
	return poll.Budget{Attempts: c.Verify.Attempts, Interval: c.Verify.Interval}
}

// AutoConnectBudget bounds how long autoconnect waits for association.
func (c *Config) AutoConnectBudget() poll.Budget {
	return poll.Budget{Attempts: c.AutoConnect.Attempts, Interval: c.AutoConnect.Interval}
}

// EventLogPath is where the supplicant writes its event log.
func (c *Config) EventLogPath() string {
	return filepath.Join(c.Supplicant.LogDir, fmt.Sprintf("wpa_supplicant-%s.log", c.Interface))
}
