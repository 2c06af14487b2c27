// Package config loads the wikicrawler configuration.
//
// Configuration comes from an optional .env file, a YAML file under
// the data root, and WIKICRAWLER_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/GRAYgoose124/wikicrawler/core"
	"github.com/GRAYgoose124/wikicrawler/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// RootEnv names the environment variable that gives the data root.
const RootEnv = "WIKICRAWLER_ROOT"

// Schedule submits a command on a cron schedule.
type Schedule struct {
	Cron    string `yaml:"cron"`
	Command string `yaml:"command"`
}

// Serve configures the WebSocket service.
type Serve struct {
	Addr string `yaml:"addr"`
}

// MQTT configures the MQTT service.
type MQTT struct {
	Broker       string `yaml:"broker"`
	ClientId     string `yaml:"client_id"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	CommandTopic string `yaml:"command_topic"`
	ResultTopic  string `yaml:"result_topic"`
	QoS          byte   `yaml:"qos"`
}

// Config is everything the CLI needs to assemble a Prompt.
//
// Relative paths are relative to DataRoot.
type Config struct {
	DataRoot    string `yaml:"data_root"`
	MediaFolder string `yaml:"media_folder"`
	SeerFolder  string `yaml:"seer_folder"`
	DBFile      string `yaml:"db_file"`

	SearchPrecaching  bool `yaml:"search_precaching"`
	SaveMedia         bool `yaml:"save_media"`
	ProcessMediaLinks bool `yaml:"process_media_links"`

	WikiURL      string        `yaml:"wiki_url"`
	WikiAPIToken string        `yaml:"wiki_api_token"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	Rate         time.Duration `yaml:"rate"`

	// CacheTTL is the lifetime of pages in the memory cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	PromptState    string `yaml:"prompt_state"`
	PointerState   string `yaml:"pointer_state"`
	FunctionsCache string `yaml:"functions_cache"`

	// Similarity is "levenshtein" or "jaro-winkler".
	Similarity string `yaml:"similarity"`

	// Seed, if not zero, seeds the Oracle's random choices.
	Seed int64 `yaml:"seed"`

	Log       util.LogConfig `yaml:"log"`
	Schedules []Schedule     `yaml:"schedules"`
	Serve     Serve          `yaml:"serve"`
	MQTT      MQTT           `yaml:"mqtt"`
}

// Default returns the configuration used when no file says
// otherwise.
func Default(root string) *Config {
	return &Config{
		DataRoot:          root,
		MediaFolder:       "media",
		SeerFolder:        "seer",
		DBFile:            "pages.db",
		SearchPrecaching:  false,
		SaveMedia:         false,
		ProcessMediaLinks: true,
		WikiURL:           "https://en.wikipedia.org",
		UserAgent:         "wikicrawler/1.0",
		Timeout:           30 * time.Second,
		Rate:              200 * time.Millisecond,
		CacheTTL:          time.Hour,
		PromptState:       filepath.Join("prompt", "crawl_state.json"),
		PointerState:      filepath.Join("prompt", "pointer.json"),
		FunctionsCache:    filepath.Join("prompt", "functions_cache.json"),
		Similarity:        "levenshtein",
		Log: util.LogConfig{
			Level:      "info",
			File:       filepath.Join("logs", "wikicrawler.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Serve: Serve{
			Addr: "localhost:8080",
		},
		MQTT: MQTT{
			Broker:       "tcp://localhost:1883",
			ClientId:     "wikicrawler",
			CommandTopic: "wikicrawler/cmd",
			ResultTopic:  "wikicrawler/result",
			QoS:          1,
		},
	}
}

// DefaultRoot is the data root when RootEnv isn't set.
func DefaultRoot() string {
	if root := os.Getenv(RootEnv); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wikicrawler"
	}
	return filepath.Join(home, ".wikicrawler")
}

// Load reads the configuration.
//
// An empty filename means "config.yaml" in the data root.  A missing
// file gives the defaults, which are then written to that file.
func Load(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env: %w", err)
	}

	root := DefaultRoot()
	c := Default(root)
	if filename == "" {
		filename = filepath.Join(root, "config.yaml")
	}

	bs, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := c.Write(filename); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(bs, c); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	if err := c.fromEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) fromEnv() error {
	if s := os.Getenv("WIKICRAWLER_TOKEN"); s != "" {
		c.WikiAPIToken = s
	}
	if s := os.Getenv("WIKICRAWLER_LOG_LEVEL"); s != "" {
		c.Log.Level = s
	}
	if s := os.Getenv("WIKICRAWLER_USER_AGENT"); s != "" {
		c.UserAgent = s
	}
	if s := os.Getenv("WIKICRAWLER_SEED"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("WIKICRAWLER_SEED: %w", err)
		}
		c.Seed = n
	}
	return nil
}

// Validate checks values that can't be checked by decoding.
func (c *Config) Validate() error {
	if _, err := core.NewMetric(c.Similarity); err != nil {
		return err
	}
	if c.Rate < 0 || c.Timeout < 0 {
		return fmt.Errorf("negative duration in configuration")
	}
	return nil
}

// Write writes the configuration as YAML.
func (c *Config) Write(filename string) error {
	bs, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	return os.WriteFile(filename, bs, 0644)
}

// Path resolves a configured path against the data root.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataRoot, p)
}

// Metric returns the configured similarity metric.
func (c *Config) Metric() core.Metric {
	m, err := core.NewMetric(c.Similarity)
	if err != nil {
		return core.DefaultMetric
	}
	return m
}

// LogConfig returns the log configuration with the file resolved.
func (c *Config) LogConfig() util.LogConfig {
	lc := c.Log
	lc.File = c.Path(lc.File)
	return lc
}
