package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadEnv.
const (
	EnvAPIKey = "MIXDL_API_KEY"
	EnvOutput = "MIXDL_OUTPUT"
	EnvDebug  = "MIXDL_DEBUG"
)

// Settings holds all configuration options.
type Settings struct {
	// Catalog settings
	APIKey       string  `json:"api_key" toml:"api_key" yaml:"api_key"`
	APIBaseURL   string  `json:"api_base_url" toml:"api_base_url" yaml:"api_base_url"`
	APIRateLimit float64 `json:"api_rate_limit" toml:"api_rate_limit" yaml:"api_rate_limit"`

	// Download settings
	DownloadsPath       string  `json:"downloads_path" toml:"downloads_path" yaml:"downloads_path"`
	MinDwellSeconds     float64 `json:"min_dwell_seconds" toml:"min_dwell_seconds" yaml:"min_dwell_seconds"`
	RateLimitCooldown   float64 `json:"rate_limit_cooldown" toml:"rate_limit_cooldown" yaml:"rate_limit_cooldown"`
	RateLimitMaxRetries int     `json:"rate_limit_max_retries" toml:"rate_limit_max_retries" yaml:"rate_limit_max_retries"`
	RateLimitExponent   float64 `json:"rate_limit_exponent" toml:"rate_limit_exponent" yaml:"rate_limit_exponent"`

	// Cover art settings
	SaveCoverArtInFolder bool   `json:"save_cover_art_in_folder" toml:"save_cover_art_in_folder" yaml:"save_cover_art_in_folder"`
	CoverArtFileName     string `json:"cover_art_file_name" toml:"cover_art_file_name" yaml:"cover_art_file_name"`
	CoverArtResize       bool   `json:"cover_art_resize" toml:"cover_art_resize" yaml:"cover_art_resize"`
	CoverArtMaxSize      int    `json:"cover_art_max_size" toml:"cover_art_max_size" yaml:"cover_art_max_size"`
	ConvertCoverArtToJPG bool   `json:"convert_cover_art_to_jpg" toml:"convert_cover_art_to_jpg" yaml:"convert_cover_art_to_jpg"`

	// Playlist settings
	PlaylistFormat string `json:"playlist_format" toml:"playlist_format" yaml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" toml:"m3u_extended" yaml:"m3u_extended"`

	// Tag settings
	ModifyTags bool `json:"modify_tags" toml:"modify_tags" yaml:"modify_tags"`

	Debug bool `json:"debug" toml:"debug" yaml:"debug"`
}

const (
	// MinimumDwell is the shortest allowed time between starting a track
	// and reporting it.
	MinimumDwell = 30 * time.Second

	// DefaultCooldown is the wait after a rate limited request.
	DefaultCooldown = 30 * time.Second
)

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		APIBaseURL:   "https://8tracks.com",
		APIRateLimit: 2,

		DownloadsPath:       filepath.Join(homeDir, "Music", "mixes"),
		MinDwellSeconds:     30,
		RateLimitCooldown:   30,
		RateLimitMaxRetries: 0,
		RateLimitExponent:   1,

		SaveCoverArtInFolder: true,
		CoverArtFileName:     "folder.jpg",
		CoverArtResize:       false,
		CoverArtMaxSize:      1000,
		ConvertCoverArtToJPG: false,

		PlaylistFormat: "m3u",
		M3UExtended:    false,

		ModifyTags: true,
	}
}

// Load reads settings from a JSON, TOML or YAML file, chosen by extension.
//
// Fields absent from the file keep their default values. A missing file
// yields DefaultSettings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, settings)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, settings)
	default:
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return settings, nil
}

// LoadEnv applies MIXDL_* environment variables on top of s.
//
// envFiles are read with godotenv first (default ".env"); missing files are
// ignored and variables already set in the environment win.
func (s *Settings) LoadEnv(envFiles ...string) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		_ = godotenv.Load(file)
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		s.APIKey = key
	}
	if output := os.Getenv(EnvOutput); output != "" {
		s.DownloadsPath = output
	}
	if debug, err := strconv.ParseBool(os.Getenv(EnvDebug)); err == nil {
		s.Debug = debug
	}
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// MinDwell is the minimum time between the start of a track download and
// its performance report. It is never shorter than MinimumDwell; larger
// values are honoured.
func (s *Settings) MinDwell() time.Duration {
	return max(seconds(s.MinDwellSeconds), MinimumDwell)
}

// Cooldown is the base wait after a rate limited request. Zero or negative
// values fall back to DefaultCooldown.
func (s *Settings) Cooldown() time.Duration {
	if d := seconds(s.RateLimitCooldown); d > 0 {
		return d
	}
	return DefaultCooldown
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
