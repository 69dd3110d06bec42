package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Resolver kinds.
const (
	ResolverLexical  = "lexical"
	ResolverSemantic = "semantic"
)

// Config is the in-memory representation of ~/.docseek/docseek.yaml.
type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Repository RepositoryConfig `yaml:"repository"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Server     ServerConfig     `yaml:"server"`
}

// IndexConfig controls the embedding index and similarity ranking.
type IndexConfig struct {
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
	Normalize bool    `yaml:"normalize"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Threshold, validation.Min(-1.0), validation.Max(1.0)),
		validation.Field(&c.TopK, validation.Required, validation.Min(1)),
	)
}

// RepositoryConfig describes the remote document repository API.
type RepositoryConfig struct {
	BaseURL   string   `yaml:"base_url"`
	RateLimit float64  `yaml:"rate_limit"`
	Burst     int      `yaml:"burst"`
	Timeout   Duration `yaml:"timeout"`
}

// Validate validates the repository configuration.
func (c *RepositoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(Duration(0))),
	)
}

// Duration is a time.Duration that reads and writes YAML as "30s".
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

// ResolverConfig selects the fuzzy identifier resolver used while navigating.
type ResolverConfig struct {
	Kind          string  `yaml:"kind"`
	MinConfidence float64 `yaml:"min_confidence"`
	// Margin is the lead the best candidate needs over the runner-up.
	Margin        float64 `yaml:"margin"`
}

// Validate validates the resolver configuration.
func (c *ResolverConfig) Validate() error {
	if c.Kind == "" {
		c.Kind = ResolverLexical
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.In(ResolverLexical, ResolverSemantic)),
		validation.Field(&c.MinConfidence, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.Margin, validation.Min(0.0), validation.Max(0.5)),
	)
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Listen, validation.Required),
	)
}

// Validate validates the whole configuration.
func (c *Config) Validate() error {
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Repository.Validate(); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// DocseekDir returns the absolute path to ~/.docseek/.
func DocseekDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".docseek"), nil
}

// ConfigPath returns the absolute path to ~/.docseek/docseek.yaml.
func ConfigPath() (string, error) {
	dir, err := DocseekDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "docseek.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration written on first docseek init.
func DefaultConfig() (*Config, error) {
	dir, err := DocseekDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Index: IndexConfig{
			Path:      filepath.Join(dir, "embeddings.json"),
			Threshold: 0.3,
			TopK:      3,
			Normalize: false,
		},
		Repository: RepositoryConfig{
			BaseURL:   "https://developer.api.autodesk.com",
			RateLimit: 5,
			Burst:     5,
			Timeout:   Duration(30 * time.Second),
		},
		Resolver: ResolverConfig{
			Kind:          ResolverLexical,
			MinConfidence: 0.5,
			Margin:        0.05,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8088",
		},
	}, nil
}

// Load reads and parses ~/.docseek/docseek.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path on top of the defaults. Environment
// variables referenced as ${VAR} are expanded before decoding.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	cfg.Index.Path, err = ExpandPath(cfg.Index.Path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like LoadFile but returns the defaults when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig()
	}
	return LoadFile(path)
}

// Save marshals cfg and writes it to ~/.docseek/docseek.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg as YAML to path.
func SaveFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
