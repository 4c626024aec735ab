package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/T03ty/Hytale-F2P/internal/archive"
)

// Config is the launcher's local state. InstalledVersion is what the
// resolver treats as "current"; empty means a fresh install with no
// client on disk.
type Config struct {
	InstalledVersion string `mapstructure:"installed_version"`
	Branch           string `mapstructure:"branch"`
	InstallDir       string `mapstructure:"install_dir"`

	PrimaryEndpoint string `mapstructure:"primary_endpoint"`
	LegacyEndpoint  string `mapstructure:"legacy_endpoint"`
	PatchEndpoint   string `mapstructure:"patch_endpoint"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`

	ProbeWorkers int     `mapstructure:"probe_workers"`
	ProbeMax     int     `mapstructure:"probe_max"`
	ProbeRPS     float64 `mapstructure:"probe_rps"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

func Default() *Config {
	return &Config{
		Branch:          "release",
		PrimaryEndpoint: "https://api.hytale-f2p.com/v2/catalog.json",
		LegacyEndpoint:  "https://api.hytale-f2p.com/version.php",
		PatchEndpoint:   "https://api.hytale-f2p.com/v2/patches",
		CDNBaseURL:      archive.DefaultBaseURL,
		ProbeWorkers:    1,
		ProbeMax:        50,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("launcher")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(Dir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HYTALE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("installed_version", cfg.InstalledVersion)
	viper.Set("branch", cfg.Branch)
	viper.Set("install_dir", cfg.InstallDir)
	viper.Set("primary_endpoint", cfg.PrimaryEndpoint)
	viper.Set("legacy_endpoint", cfg.LegacyEndpoint)
	viper.Set("patch_endpoint", cfg.PatchEndpoint)
	viper.Set("cdn_base_url", cfg.CDNBaseURL)
	viper.Set("probe_workers", cfg.ProbeWorkers)
	viper.Set("probe_max", cfg.ProbeMax)
	viper.Set("probe_rps", cfg.ProbeRPS)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
	viper.Set("log_file", cfg.LogFile)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(Dir(), "launcher.yaml")
		if err := os.MkdirAll(Dir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	return os.Chmod(cfgPath, 0600)
}

// Dir is the per-user config directory. The launcher runs as the player,
// never as a service, so everything lives under the user's profile.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "hytale-f2p")
}

// DefaultLogFile is where logs rotate when log_file is not set.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, "hytale-f2p", "launcher.log")
}
