package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/cfddns/cfddns.conf"

// Configuration holds the parameters of the reconciliation loop. It is
// loaded once at startup and never mutated afterwards.
type Configuration struct {
	ZoneID       string   `yaml:"zone_id"`
	ServiceKey   string   `yaml:"service_key"`
	AccountEmail string   `yaml:"account_email"`
	Domains      []string `yaml:"domains"`
	IPv6         bool     `yaml:"ipv6"`
}

// Load reads the configuration at path and applies CFDDNS_* environment
// overrides. Files ending in .yaml or .yml are decoded as YAML, anything else
// is parsed as key=value lines.
func Load(path string) (Configuration, error) {
	var conf Configuration

	f, err := os.Open(path)
	if err != nil {
		return conf, fmt.Errorf("unable to open config %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		conf, err = parseYAML(f)
	default:
		conf, err = Parse(f)
	}
	if err != nil {
		return conf, fmt.Errorf("unable to parse config %s: %w", path, err)
	}

	applyEnv(&conf)
	conf.normalize()
	return conf, nil
}

// FromEnv builds a configuration from CFDDNS_* environment variables only.
func FromEnv() Configuration {
	var conf Configuration
	applyEnv(&conf)
	conf.normalize()
	return conf
}

// Parse reads key=value lines. Blank lines, '#' comments, unknown keys and
// lines without '=' are skipped.
func Parse(r io.Reader) (Configuration, error) {
	var conf Configuration
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "zone_id":
			conf.ZoneID = value
		case "service_key":
			conf.ServiceKey = value
		case "account_email":
			conf.AccountEmail = value
		case "domains":
			conf.Domains = splitDomains(value)
		case "ipv6":
			conf.IPv6 = parseBool(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return conf, err
	}
	return conf, nil
}

func parseYAML(r io.Reader) (Configuration, error) {
	var conf Configuration
	if err := yaml.NewDecoder(r).Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return conf, err
	}
	return conf, nil
}

func applyEnv(conf *Configuration) {
	if v, ok := os.LookupEnv("CFDDNS_ZONE_ID"); ok {
		conf.ZoneID = v
	}
	if v, ok := os.LookupEnv("CFDDNS_SERVICE_KEY"); ok {
		conf.ServiceKey = v
	}
	if v, ok := os.LookupEnv("CFDDNS_ACCOUNT_EMAIL"); ok {
		conf.AccountEmail = v
	}
	if v, ok := os.LookupEnv("CFDDNS_DOMAINS"); ok {
		conf.Domains = splitDomains(v)
	}
	if v, ok := os.LookupEnv("CFDDNS_IPV6"); ok {
		conf.IPv6 = parseBool(v)
	}
}

func (c *Configuration) normalize() {
	c.ZoneID = strings.TrimSpace(c.ZoneID)
	c.ServiceKey = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.ServiceKey), "Bearer "))
	c.AccountEmail = strings.TrimSpace(c.AccountEmail)
	domains := c.Domains[:0]
	for _, d := range c.Domains {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	c.Domains = domains
}

// Validate reports the first missing mandatory setting.
func (c Configuration) Validate() error {
	if c.ZoneID == "" {
		return errors.New("zone_id cannot be empty")
	}
	if c.ServiceKey == "" {
		return errors.New("service_key cannot be empty")
	}
	return nil
}

func splitDomains(v string) []string {
	var out []string
	for _, d := range strings.Split(v, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}
