// Package agent wires the batching writer into a small shipping
// agent: it samples runtime metrics on an interval and writes them
// through the writer to a line-protocol endpoint.
package agent

import (
	"fmt"
	"net/url"
	"time"
)

// Transport kinds accepted by the agent.
const (
	TransportHTTP = "http"
	TransportUDP  = "udp"
)

// Config holds the configuration for the shipping agent. The writer
// core never interprets these fields; they exist to construct the
// destination endpoint and to tune the agent loop.
type Config struct {
	Scheme          string
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	RetentionPolicy string
	Precision       string

	Transport string
	UDPAddr   string

	BatchSize    int
	PollInterval time.Duration
	SendInterval time.Duration
	HTTPTimeout  time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Scheme:       "http",
		Host:         "localhost",
		Port:         8086,
		Database:     "metrics",
		Precision:    "ns",
		Transport:    TransportHTTP,
		BatchSize:    200,
		PollInterval: 10 * time.Second,
		SendInterval: 30 * time.Second,
		HTTPTimeout:  10 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
		if c.Scheme != "http" && c.Scheme != "https" {
			return fmt.Errorf("scheme must be http or https, got %q", c.Scheme)
		}
		if c.Host == "" {
			return fmt.Errorf("host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
		}
		if c.Database == "" {
			return fmt.Errorf("database is required")
		}
	case TransportUDP:
		if c.UDPAddr == "" {
			return fmt.Errorf("udp-addr is required for the udp transport")
		}
	default:
		return fmt.Errorf("transport must be %s or %s, got %q", TransportHTTP, TransportUDP, c.Transport)
	}

	if _, err := c.PrecisionDuration(); err != nil {
		return err
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must be >= 0, got %d", c.BatchSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.SendInterval <= 0 {
		return fmt.Errorf("send interval must be positive")
	}
	return nil
}

// WriteURL builds the HTTP write endpoint for the configured
// database, retention policy, precision, and credentials.
func (c *Config) WriteURL() string {
	q := url.Values{}
	q.Set("db", c.Database)
	if c.RetentionPolicy != "" {
		q.Set("rp", c.RetentionPolicy)
	}
	if c.Precision != "" && c.Precision != "ns" {
		q.Set("precision", c.Precision)
	}
	if c.Username != "" {
		q.Set("u", c.Username)
		q.Set("p", c.Password)
	}

	u := url.URL{
		Scheme:   c.Scheme,
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/write",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// PrecisionDuration maps the precision token to the duration the
// serializer expects.
func (c *Config) PrecisionDuration() (time.Duration, error) {
	switch c.Precision {
	case "", "ns":
		return time.Nanosecond, nil
	case "us":
		return time.Microsecond, nil
	case "ms":
		return time.Millisecond, nil
	case "s":
		return time.Second, nil
	default:
		return 0, fmt.Errorf("precision must be one of ns, us, ms, s, got %q", c.Precision)
	}
}

// configSetter applies configuration values while respecting flag
// precedence: values are skipped for flags the user set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr applies an optional int. Unlike setInt it accepts zero,
// which is meaningful for the batch size.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) error {
	if value == nil || s.changed[flag] {
		return nil
	}
	if *value < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", flag, *value)
	}
	*dst = *value
	return nil
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
