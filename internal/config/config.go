package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/SHA256-news/studious-giggle-sub001/internal/logger"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "sha256news"

// QueueFileEnv overrides queue_file when set.
const QueueFileEnv = "SHA256NEWS_QUEUE_FILE"

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type PostConfig struct {
	Hashtags  []string `yaml:"hashtags"`
	MaxLength int      `yaml:"max_length"`
}

type Config struct {
	QueueFile  string     `yaml:"queue_file"`
	BackupDir  string     `yaml:"backup_dir"`
	AuditDB    string     `yaml:"audit_db"`
	LogLevel   string     `yaml:"log_level"`
	Retention  string     `yaml:"retention"`
	ExtraTerms []string   `yaml:"extra_terms,omitempty"`
	Post       PostConfig `yaml:"post"`
	Sources    []Source   `yaml:"sources"`
}

// QueuePath resolves the queue document path.
func (c *Config) QueuePath() string {
	if p := os.Getenv(QueueFileEnv); p != "" {
		return expandHome(p)
	}
	if c.QueueFile != "" {
		return expandHome(c.QueueFile)
	}
	return filepath.Join(DataDir(), "queue.json")
}

// BackupPath is where clean writes backups. Empty means next to the queue.
func (c *Config) BackupPath() string {
	return expandHome(c.BackupDir)
}

func (c *Config) AuditPath() string {
	if c.AuditDB != "" {
		return expandHome(c.AuditDB)
	}
	return filepath.Join(DataDir(), "blocked.db")
}

func (c *Config) RetentionDuration() time.Duration {
	d, err := ParseDuration(c.Retention)
	if err != nil || d <= 0 {
		return 90 * 24 * time.Hour
	}
	return d
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

// ParseDuration accepts Go durations plus a "Nd" day suffix.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg, defaults)
	mergeDefaultSources(&cfg, defaults)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func applyDefaults(cfg, defaults *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Retention == "" {
		cfg.Retention = defaults.Retention
	}
	if cfg.Post.Hashtags == nil {
		cfg.Post.Hashtags = defaults.Post.Hashtags
	}
	if cfg.Post.MaxLength == 0 {
		cfg.Post.MaxLength = defaults.Post.MaxLength
	}
}

// mergeDefaultSources keeps the user's sources in order, refreshes the type
// and URL of any that share a name with a default, and appends defaults the
// user does not list yet. The user's enabled flag always wins.
func mergeDefaultSources(cfg, defaults *Config) {
	byName := make(map[string]int, len(cfg.Sources))
	for i, s := range cfg.Sources {
		byName[s.Name] = i
	}
	for _, d := range defaults.Sources {
		if i, ok := byName[d.Name]; ok {
			cfg.Sources[i].Type = d.Type
			cfg.Sources[i].URL = d.URL
			continue
		}
		cfg.Sources = append(cfg.Sources, d)
	}
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if cfg.Post.MaxLength < 0 {
		return fmt.Errorf("post.max_length must not be negative, got %d", cfg.Post.MaxLength)
	}
	if cfg.Retention != "" {
		if _, err := ParseDuration(cfg.Retention); err != nil {
			return fmt.Errorf("retention: %w", err)
		}
	}
	return nil
}
