package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Rewrite RewriteConfig `yaml:"rewrite"`
	Whisper WhisperConfig `yaml:"whisper"`
	Style   StyleConfig   `yaml:"style"`
	Inject  InjectConfig  `yaml:"inject"`
	Hotkey  HotkeyConfig  `yaml:"hotkey"`
	Audio   AudioConfig   `yaml:"audio"`
	Log     LogConfig     `yaml:"log"`
}

type RewriteConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type WhisperConfig struct {
	Bin     string        `yaml:"bin"`
	Model   string        `yaml:"model"`
	Threads int           `yaml:"threads"`
	Timeout time.Duration `yaml:"timeout"`
}

type StyleConfig struct {
	Default string `yaml:"default"`
}

type InjectConfig struct {
	AutoPaste bool `yaml:"auto_paste"`
}

type HotkeyConfig struct {
	Chord string `yaml:"chord"`
}

type AudioConfig struct {
	MinDurationMs int    `yaml:"min_duration_ms"`
	MinChars      int    `yaml:"min_chars"`
	Device        string `yaml:"device"`
}

type LogConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultPath returns the conventional config location for this OS.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "murmur", "config.yaml")
}

// Load reads the YAML config at path, expanding ${ENV} references.
// A missing file is not an error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Rewrite.APIKey == "" {
		c.Rewrite.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Rewrite.Model == "" {
		c.Rewrite.Model = "gpt-4o-mini"
	}
	if c.Rewrite.Timeout == 0 {
		c.Rewrite.Timeout = 12 * time.Second
	}
	if c.Whisper.Bin == "" {
		c.Whisper.Bin = firstNonEmpty(os.Getenv("WHISPER_BIN"), "whisper-cpp")
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = os.Getenv("WHISPER_MODEL_PATH")
	}
	if c.Whisper.Timeout == 0 {
		c.Whisper.Timeout = 60 * time.Second
	}
	if c.Style.Default == "" {
		c.Style.Default = "plain"
	}
	if c.Hotkey.Chord == "" {
		c.Hotkey.Chord = "ctrl+shift+space"
	}
	if c.Audio.MinDurationMs == 0 {
		c.Audio.MinDurationMs = 300
	}
	if c.Audio.MinChars == 0 {
		c.Audio.MinChars = 1
	}

	c.Whisper.Bin = ExpandHome(c.Whisper.Bin)
	c.Whisper.Model = ExpandHome(c.Whisper.Model)
	c.Log.Dir = ExpandHome(c.Log.Dir)
}

func (c *Config) validate() error {
	if c.Audio.MinDurationMs < 0 {
		return fmt.Errorf("audio.min_duration_ms must be >= 0, got %d", c.Audio.MinDurationMs)
	}
	if c.Whisper.Threads < 0 {
		return fmt.Errorf("whisper.threads must be >= 0, got %d", c.Whisper.Threads)
	}
	return nil
}

// RewriteEnabled reports whether a rewrite credential is configured.
// Without one every session falls back to the raw transcript.
func (c *Config) RewriteEnabled() bool {
	return c.Rewrite.APIKey != ""
}

func (c *Config) MinDuration() time.Duration {
	return time.Duration(c.Audio.MinDurationMs) * time.Millisecond
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
