package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
)

const (
	DefaultConfigPath = "/etc/admin-transfer"
	ConfigFileName    = "transfer.yml"
	EnvPrefix         = "TRANSFER_"
)

// Sources an attribute value can come from.
const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
)

// Config holds all service configuration settings
type Config struct {
	// ProtocolAddress is the identity the protocol acts as towards pools
	ProtocolAddress string `yaml:"protocol_address" json:"protocol_address"`

	// AllowUnauthenticatedPropose enables the propose form that records no
	// current admin
	AllowUnauthenticatedPropose bool `yaml:"allow_unauthenticated_propose" json:"allow_unauthenticated_propose"`

	// InstanceTTLDays and InstanceThresholdDays govern the shared allowance
	InstanceTTLDays       int `yaml:"instance_ttl_days" json:"instance_ttl_days"`
	InstanceThresholdDays int `yaml:"instance_threshold_days" json:"instance_threshold_days"`

	// TransferTTLDays and TransferThresholdDays govern each transfer record
	TransferTTLDays       int `yaml:"transfer_ttl_days" json:"transfer_ttl_days"`
	TransferThresholdDays int `yaml:"transfer_threshold_days" json:"transfer_threshold_days"`

	// TokenMaxAgeSeconds caps the lifetime of accepted bearer tokens
	TokenMaxAgeSeconds int `yaml:"token_max_age_seconds" json:"token_max_age_seconds"`

	// LogLevel is a zerolog level name
	LogLevel string `yaml:"log_level" json:"log_level"`

	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For is honoured
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// fileConfig mirrors Config with pointers so that explicit zero values in
// the file are distinguishable from absent keys.
type fileConfig struct {
	ProtocolAddress             *string  `yaml:"protocol_address"`
	AllowUnauthenticatedPropose *bool    `yaml:"allow_unauthenticated_propose"`
	InstanceTTLDays             *int     `yaml:"instance_ttl_days"`
	InstanceThresholdDays       *int     `yaml:"instance_threshold_days"`
	TransferTTLDays             *int     `yaml:"transfer_ttl_days"`
	TransferThresholdDays       *int     `yaml:"transfer_threshold_days"`
	TokenMaxAgeSeconds          *int     `yaml:"token_max_age_seconds"`
	LogLevel                    *string  `yaml:"log_level"`
	TrustedProxies              []string `yaml:"trusted_proxies"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	policy := ledger.DefaultPolicy()
	c := &Config{
		ProtocolAddress:       "admin-transfer",
		InstanceTTLDays:       int(policy.Instance.ExtendTo / ledger.OneDay),
		InstanceThresholdDays: int(policy.Instance.Threshold / ledger.OneDay),
		TransferTTLDays:       int(policy.Transfer.ExtendTo / ledger.OneDay),
		TransferThresholdDays: int(policy.Transfer.Threshold / ledger.OneDay),
		TokenMaxAgeSeconds:    300,
		LogLevel:              "info",
		TrustedProxies:        []string{},
		sources:               make(map[string]string),
	}
	for _, name := range attributeNames() {
		c.sources[name] = SourceDefault
	}
	return c
}

// Path returns the config file path honouring TRANSFER_CONFIG_PATH.
func Path() string {
	dir := os.Getenv(EnvPrefix + "CONFIG_PATH")
	if dir == "" {
		dir = DefaultConfigPath
	}
	return filepath.Join(dir, ConfigFileName)
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile loads configuration from path and the environment. A missing
// file is not an error.
func LoadFile(path string) (*Config, error) {
	config := newDefault()
	config.configFilePath = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		config.applyFileConfig(&file)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}
	return config, nil
}

func attributeNames() []string {
	return []string{
		"protocol_address", "allow_unauthenticated_propose",
		"instance_ttl_days", "instance_threshold_days",
		"transfer_ttl_days", "transfer_threshold_days",
		"token_max_age_seconds", "log_level", "trusted_proxies",
	}
}

func setFrom[T any](c *Config, name string, dst *T, src *T) {
	if src != nil {
		*dst = *src
		c.sources[name] = SourceFile
	}
}

func (c *Config) applyFileConfig(file *fileConfig) {
	setFrom(c, "protocol_address", &c.ProtocolAddress, file.ProtocolAddress)
	setFrom(c, "allow_unauthenticated_propose", &c.AllowUnauthenticatedPropose, file.AllowUnauthenticatedPropose)
	setFrom(c, "instance_ttl_days", &c.InstanceTTLDays, file.InstanceTTLDays)
	setFrom(c, "instance_threshold_days", &c.InstanceThresholdDays, file.InstanceThresholdDays)
	setFrom(c, "transfer_ttl_days", &c.TransferTTLDays, file.TransferTTLDays)
	setFrom(c, "transfer_threshold_days", &c.TransferThresholdDays, file.TransferThresholdDays)
	setFrom(c, "token_max_age_seconds", &c.TokenMaxAgeSeconds, file.TokenMaxAgeSeconds)
	setFrom(c, "log_level", &c.LogLevel, file.LogLevel)
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = SourceFile
	}
}

func envName(attr string) string {
	return EnvPrefix + strings.ToUpper(attr)
}

func (c *Config) applyEnvConfig() error {
	for _, s := range []struct {
		name string
		dst  *string
	}{
		{"protocol_address", &c.ProtocolAddress},
		{"log_level", &c.LogLevel},
	} {
		if val := os.Getenv(envName(s.name)); val != "" {
			*s.dst = val
			c.sources[s.name] = SourceEnvironment
		}
	}

	for _, i := range []struct {
		name string
		dst  *int
	}{
		{"instance_ttl_days", &c.InstanceTTLDays},
		{"instance_threshold_days", &c.InstanceThresholdDays},
		{"transfer_ttl_days", &c.TransferTTLDays},
		{"transfer_threshold_days", &c.TransferThresholdDays},
		{"token_max_age_seconds", &c.TokenMaxAgeSeconds},
	} {
		val := os.Getenv(envName(i.name))
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %q is not an integer", envName(i.name), val)
		}
		*i.dst = n
		c.sources[i.name] = SourceEnvironment
	}

	if val := os.Getenv(envName("allow_unauthenticated_propose")); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %q is not a boolean", envName("allow_unauthenticated_propose"), val)
		}
		c.AllowUnauthenticatedPropose = b
		c.sources["allow_unauthenticated_propose"] = SourceEnvironment
	}

	if val := os.Getenv(envName("trusted_proxies")); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = SourceEnvironment
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// Policy returns the retention windows.
func (c *Config) Policy() ledger.Policy {
	return ledger.PolicyFromDays(c.InstanceThresholdDays, c.InstanceTTLDays, c.TransferThresholdDays, c.TransferTTLDays)
}

// TokenMaxAge returns the maximum bearer token lifetime.
func (c *Config) TokenMaxAge() time.Duration {
	return time.Duration(c.TokenMaxAgeSeconds) * time.Second
}

// Level returns the parsed log level, or info if it does not parse.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *Config) IsTrustedProxy(ip string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if other := net.ParseIP(cidr); other != nil && other.Equal(parsedIP) {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProtocolAddress) == "" {
		return fmt.Errorf("protocol_address must not be empty")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid retention days: %w", err)
	}
	if c.TokenMaxAgeSeconds <= 0 {
		return fmt.Errorf("token_max_age_seconds must be positive, got %d", c.TokenMaxAgeSeconds)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	attr := func(name, value string) Attribute {
		return Attribute{Name: name, Value: value, Source: c.Source(name)}
	}
	return []Attribute{
		attr("protocol_address", c.ProtocolAddress),
		attr("allow_unauthenticated_propose", strconv.FormatBool(c.AllowUnauthenticatedPropose)),
		attr("instance_ttl_days", strconv.Itoa(c.InstanceTTLDays)),
		attr("instance_threshold_days", strconv.Itoa(c.InstanceThresholdDays)),
		attr("transfer_ttl_days", strconv.Itoa(c.TransferTTLDays)),
		attr("transfer_threshold_days", strconv.Itoa(c.TransferThresholdDays)),
		attr("token_max_age_seconds", strconv.Itoa(c.TokenMaxAgeSeconds)),
		attr("log_level", c.LogLevel),
		attr("trusted_proxies", strings.Join(c.TrustedProxies, ",")),
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Config file: %s\n\n", c.configFilePath)
	fmt.Fprintf(&sb, "%-32s %-30s %s\n", "NAME", "VALUE", "SOURCE")
	fmt.Fprintf(&sb, "%-32s %-30s %s\n", "----", "-----", "------")

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(&sb, "%-32s %-30s %s\n", attr.Name, value, attr.Source)
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
