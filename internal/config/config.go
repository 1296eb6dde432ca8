package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"projectsummarizer.dev/cli/internal/summary"
)

const (
	DefaultConfigFile = ".project-summarizer.yaml"
	DefaultLogLevel   = "warn"

	EnvConfigPath = "PROJECT_SUMMARIZER_CONFIG"
	EnvReportDir  = "PROJECT_SUMMARIZER_REPORT_DIR"
	EnvPublishDir = "PROJECT_SUMMARIZER_PUBLISH_DIR"
	EnvLogLevel   = "PROJECT_SUMMARIZER_LOG_LEVEL"
	EnvPlugins    = "PROJECT_SUMMARIZER_PLUGINS"
)

type Config struct {
	ReportDir  string `yaml:"report_dir"`
	PublishDir string `yaml:"publish_dir"`
	LogLevel   string `yaml:"log_level"`

	// Plugin files loaded before any given with --add-plugin.
	Plugins []string `yaml:"plugins"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Load reads the configuration file and applies environment overrides.
// Without configPath, the file named by PROJECT_SUMMARIZER_CONFIG is used,
// then .project-summarizer.yaml in the working directory. Only a file that
// was named explicitly has to exist. JSON files are accepted as well.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		ReportDir:  summary.DefaultReportDir,
		PublishDir: "",
		LogLevel:   DefaultLogLevel,
	}

	required := configPath != ""
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
		required = configPath != ""
		if configPath == "" {
			configPath = DefaultConfigFile
		}
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
		cfg.Path = configPath
		cfg.Plugins = resolvePlugins(filepath.Dir(configPath), cfg.Plugins)
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	applyEnvironment(cfg)
	return cfg, nil
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvReportDir); v != "" {
		cfg.ReportDir = v
	}
	if v := os.Getenv(EnvPublishDir); v != "" {
		cfg.PublishDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvPlugins); v != "" {
		for _, p := range filepath.SplitList(v) {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Plugins = append(cfg.Plugins, p)
			}
		}
	}
}

// resolvePlugins makes plugin paths in a config file relative to the file.
func resolvePlugins(dir string, plugins []string) []string {
	resolved := make([]string, 0, len(plugins))
	for _, p := range plugins {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) && dir != "." {
			p = filepath.Join(dir, p)
		}
		resolved = append(resolved, p)
	}
	return resolved
}
