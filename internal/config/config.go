package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "lyricquiz.yaml"

// runtime settings for the server and the CLI commands
type Config struct {
	Addr        string `yaml:"addr"`
	UpstreamURL string `yaml:"upstream_url"`
	SongsPath   string `yaml:"songs_path"`
	AlbumsPath  string `yaml:"albums_path"`
	Database    string `yaml:"database"`
	EnglishOnly bool   `yaml:"english_only"`

	Translate struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		TargetLanguage string `yaml:"target_language"`
		Concurrency    int    `yaml:"concurrency"`
		BatchSize      int    `yaml:"batch_size"`
	} `yaml:"translate"`

	Clip struct {
		FFmpegPath string  `yaml:"ffmpeg_path"`
		Start      float64 `yaml:"start"`
		Duration   float64 `yaml:"duration"`
		Bitrate    string  `yaml:"bitrate"`
	} `yaml:"clip"`

	// API keys are only read from the environment.
	GeminiAPIKey    string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

func Default() *Config {
	c := &Config{
		Addr:        ":8080",
		UpstreamURL: "https://monster-siren.hypergryph.com/api",
		SongsPath:   "public/song-metadata/songs.json",
		AlbumsPath:  "public/song-metadata/albums.json",
	}

	c.Translate.Provider = "gemini"
	c.Translate.TargetLanguage = "English"
	c.Translate.Concurrency = 3

	c.Clip.Start = 30
	c.Clip.Duration = 15
	c.Clip.Bitrate = "128k"

	return c
}

// Load reads the yaml file over the defaults, then applies .env and the
// process environment. A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed loading .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "LYRICQUIZ_ADDR")
	setString(&c.UpstreamURL, "LYRICQUIZ_UPSTREAM")
	setString(&c.SongsPath, "LYRICQUIZ_SONGS")
	setString(&c.AlbumsPath, "LYRICQUIZ_ALBUMS")
	setString(&c.Database, "LYRICQUIZ_DB")
	setString(&c.Clip.FFmpegPath, "LYRICQUIZ_FFMPEG_PATH")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")

	if v := os.Getenv("LYRICQUIZ_ENGLISH_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LYRICQUIZ_ENGLISH_ONLY %q: %w", v, err)
		}
		c.EnglishOnly = b
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// APIKey returns the key configured for a translation provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return ""
	}
}

// checks the settings the server needs
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.UpstreamURL == "" {
		errs = append(errs, errors.New("upstream_url is required"))
	}
	if c.Database == "" && (c.SongsPath == "" || c.AlbumsPath == "") {
		errs = append(errs, errors.New("either database or songs_path and albums_path are required"))
	}
	if c.Clip.Duration < 0 || c.Clip.Start < 0 {
		errs = append(errs, errors.New("clip start and duration must not be negative"))
	}
	return errors.Join(errs...)
}
