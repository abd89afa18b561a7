package config

import (
	"path/filepath"
	"strconv"
)

// Source represents where a configuration value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// EnvPrefix prefixes every environment variable read by the config.
const EnvPrefix = "JOBQUEUE"

// Default values.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for jobqueue.
type Config struct {
	// Documents
	JobQueue    string `toml:"jobqueue"`
	ProjectPool string `toml:"projectpool"`
	Schemas     string `toml:"schemas"`

	// Editing
	Editor      string `toml:"editor,omitempty"`
	AbortPrompt bool   `toml:"abort_prompt"`

	// Logging configuration
	Journal       bool   `toml:"journal"`
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
}

// Default returns the default configuration for a config directory.
func Default(dir string) *Config {
	return &Config{
		JobQueue:    filepath.Join(dir, "jobqueue.json"),
		ProjectPool: filepath.Join(dir, "projectpool.json"),
		Schemas:     filepath.Join(dir, "schemas"),
		AbortPrompt: true,
		Journal:     true,
		LogDir:      filepath.Join(dir, "logs"),
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// field binds a config key to its value.
type field struct {
	key  string
	str  *string
	flag *bool
}

func (f field) String() string {
	if f.str != nil {
		return *f.str
	}
	return strconv.FormatBool(*f.flag)
}

// fields returns every configurable field in display order.
func (c *Config) fields() []field {
	return []field{
		{key: "jobqueue", str: &c.JobQueue},
		{key: "projectpool", str: &c.ProjectPool},
		{key: "schemas", str: &c.Schemas},
		{key: "editor", str: &c.Editor},
		{key: "abort_prompt", flag: &c.AbortPrompt},
		{key: "journal", flag: &c.Journal},
		{key: "log_dir", str: &c.LogDir},
		{key: "log_level", str: &c.LogLevel},
		{key: "log_format", str: &c.LogFormat},
		{key: "log_timestamps", flag: &c.LogTimestamps},
		{key: "log_caller", flag: &c.LogCaller},
	}
}

// Keys returns every config key in display order.
func Keys() []string {
	fields := (&Config{}).fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// Value returns the string form of the value for key.
func (c *Config) Value(key string) (string, bool) {
	for _, f := range c.fields() {
		if f.key == key {
			return f.String(), true
		}
	}
	return "", false
}

// pathKeys are the keys holding filesystem paths.
var pathKeys = map[string]bool{
	"jobqueue":    true,
	"projectpool": true,
	"schemas":     true,
	"log_dir":     true,
}

// reconcileKeys are the keys a run may override and then offer to persist.
var reconcileKeys = []string{"jobqueue", "projectpool", "editor"}

// WithSources holds configuration along with the file it was read from and
// the source of each field.
type WithSources struct {
	Config *Config
	// File holds the values as stored in the config file, over defaults.
	File *Config
	// Path is the config file path.
	Path string
	// Exists reports whether the config file existed when loaded.
	Exists  bool
	Sources map[string]Source
}
