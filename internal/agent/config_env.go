package agent

import (
	"fmt"
	"os"
)

// ApplyEnvConfig applies configuration from METRICSHIP_* environment
// variables. Env values override the config file but lose to flags
// the user set explicitly.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("scheme", os.Getenv("METRICSHIP_SCHEME"), &cfg.Scheme)
	s.setString("host", os.Getenv("METRICSHIP_HOST"), &cfg.Host)
	s.setString("username", os.Getenv("METRICSHIP_USERNAME"), &cfg.Username)
	s.setString("password", os.Getenv("METRICSHIP_PASSWORD"), &cfg.Password)
	s.setString("database", os.Getenv("METRICSHIP_DATABASE"), &cfg.Database)
	s.setString("retention-policy", os.Getenv("METRICSHIP_RETENTION_POLICY"), &cfg.RetentionPolicy)
	s.setString("precision", os.Getenv("METRICSHIP_PRECISION"), &cfg.Precision)
	s.setString("transport", os.Getenv("METRICSHIP_TRANSPORT"), &cfg.Transport)
	s.setString("udp-addr", os.Getenv("METRICSHIP_UDP_ADDR"), &cfg.UDPAddr)

	port, err := parseOptionalInt(os.Getenv("METRICSHIP_PORT"))
	if err != nil {
		return fmt.Errorf("parse METRICSHIP_PORT: %w", err)
	}
	if port != nil && *port > 0 {
		s.setInt("port", *port, &cfg.Port)
	}

	batch, err := parseOptionalInt(os.Getenv("METRICSHIP_BATCH_SIZE"))
	if err != nil {
		return fmt.Errorf("parse METRICSHIP_BATCH_SIZE: %w", err)
	}
	if err := s.setIntPtr("batch-size", batch, &cfg.BatchSize); err != nil {
		return err
	}

	if err := s.setDuration("poll-interval", os.Getenv("METRICSHIP_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("send-interval", os.Getenv("METRICSHIP_SEND_INTERVAL"), &cfg.SendInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("METRICSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	return nil
}
