// Package config handles configuration loading, defaults and first-run setup.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. The config file (<user config dir>/job-queue/config.toml)
// 3. Environment variables (JOBQUEUE_*)
// 4. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// Config file locations:
// - Windows: %APPDATA%\job-queue\config.toml
// - macOS: ~/Library/Application Support/job-queue/config.toml
// - Linux/BSD: $XDG_CONFIG_HOME/job-queue/config.toml or ~/.config/job-queue/config.toml
//
// On first run the file is created together with the exported schemas and
// empty job queue and project pool documents.
package config
