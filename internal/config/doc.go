// Package config provides configuration management for mixdl.
//
// This package handles:
//   - Loading settings from JSON, TOML or YAML files
//   - Overrides from MIXDL_* environment variables and .env files
//   - Saving settings as JSON
//   - Default configuration values
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Music/mixes/<mix name>
//	// 30s minimum dwell, 30s cooldown on rate limits, unbounded retries
//	// Cover art saved as folder.jpg, plain M3U playlist
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/mixdl.toml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	settings.LoadEnv()
//
// # Saving Settings
//
//	settings.DownloadsPath = "/custom/path"
//	err := settings.Save("/path/to/config.json")
package config
