package agent

import (
	"os"
	"path/filepath"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to keep
// the TOML surface friendly, and a pointer for the batch size so an
// explicit zero survives.
type FileConfig struct {
	Scheme          string `toml:"scheme"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	Database        string `toml:"database"`
	RetentionPolicy string `toml:"retention_policy"`
	Precision       string `toml:"precision"`
	Transport       string `toml:"transport"`
	UDPAddr         string `toml:"udp_addr"`
	BatchSize       *int   `toml:"batch_size"`
	PollInterval    string `toml:"poll_interval"`
	SendInterval    string `toml:"send_interval"`
	HTTPTimeout     string `toml:"http_timeout"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.metricship/config.toml if the user
// home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".metricship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file, skipping any
// value whose flag was set explicitly.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("scheme", fc.Scheme, &cfg.Scheme)
	s.setString("host", fc.Host, &cfg.Host)
	s.setInt("port", fc.Port, &cfg.Port)
	s.setString("username", fc.Username, &cfg.Username)
	s.setString("password", fc.Password, &cfg.Password)
	s.setString("database", fc.Database, &cfg.Database)
	s.setString("retention-policy", fc.RetentionPolicy, &cfg.RetentionPolicy)
	s.setString("precision", fc.Precision, &cfg.Precision)
	s.setString("transport", fc.Transport, &cfg.Transport)
	s.setString("udp-addr", fc.UDPAddr, &cfg.UDPAddr)

	if err := s.setIntPtr("batch-size", fc.BatchSize, &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setDuration("poll-interval", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("send-interval", fc.SendInterval, &cfg.SendInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// parseOptionalInt turns an environment string into an optional int.
func parseOptionalInt(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
