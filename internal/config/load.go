package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nibzard/jobqueue-go/internal/schema"
)

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// FlagName returns the CLI flag overriding key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Bind returns a viper instance reading every key from its environment
// variable and, when flags defines it, from its flag.
func Bind(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for _, key := range Keys() {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", EnvName(key), err)
		}
		if flags == nil {
			continue
		}
		if f := flags.Lookup(FlagName(key)); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag --%s: %w", f.Name, err)
			}
		}
	}
	return v, nil
}

// Load loads the config file at path over the defaults, then applies the
// environment and flag overrides carried by v. A missing file is not an
// error; WithSources.Exists reports it. v may be nil to skip overrides.
func Load(path string, v *viper.Viper, flags *pflag.FlagSet) (*WithSources, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	path = resolvePath(path)

	cfg := Default(filepath.Dir(path))
	sources := make(map[string]Source)
	for _, key := range Keys() {
		sources[key] = SourceDefault
	}

	exists := false
	if _, err := os.Stat(path); err == nil {
		exists = true
		if err := loadFile(cfg, path, sources); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	file := *cfg
	finalize(&file)

	if v != nil {
		applyOverrides(cfg, v, flags, sources)
	}
	finalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &WithSources{
		Config:  cfg,
		File:    &file,
		Path:    path,
		Exists:  exists,
		Sources: sources,
	}, nil
}

// loadFile decodes the TOML file at path into cfg after checking it against
// the config schema.
func loadFile(cfg *Config, path string, sources map[string]Source) error {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return err
	}
	if err := schema.Default().Get(schema.Config).Validate(raw); err != nil {
		return err
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, f := range cfg.fields() {
		if md.IsDefined(f.key) {
			sources[f.key] = SourceFile
		}
	}
	return nil
}

func applyOverrides(cfg *Config, v *viper.Viper, flags *pflag.FlagSet, sources map[string]Source) {
	for _, f := range cfg.fields() {
		source := overrideSource(f.key, flags)
		if source == "" {
			continue
		}
		if f.str != nil {
			*f.str = v.GetString(f.key)
		} else {
			*f.flag = v.GetBool(f.key)
		}
		sources[f.key] = source
	}
}

func overrideSource(key string, flags *pflag.FlagSet) Source {
	if flags != nil {
		if f := flags.Lookup(FlagName(key)); f != nil && f.Changed {
			return SourceFlag
		}
	}
	if _, ok := os.LookupEnv(EnvName(key)); ok {
		return SourceEnv
	}
	return ""
}

// finalize expands and absolutizes the path fields.
func finalize(cfg *Config) {
	for _, f := range cfg.fields() {
		if pathKeys[f.key] {
			*f.str = resolvePath(*f.str)
		}
	}
	cfg.Editor = strings.TrimSpace(cfg.Editor)
}

// Validate checks the effective configuration against the config schema.
func Validate(cfg *Config) error {
	doc := make(map[string]interface{})
	for _, f := range cfg.fields() {
		switch {
		case f.flag != nil:
			doc[f.key] = *f.flag
		case *f.str != "" || f.key != "editor":
			doc[f.key] = *f.str
		}
	}
	if err := schema.Default().Get(schema.Config).Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes cfg to path as TOML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	return f.Close()
}

const header = `# jobqueue configuration
# Every key can be overridden with a JOBQUEUE_<KEY> environment variable
# or the matching --flag. The editor is run as "<editor> <file>" and must
# wait until the file is closed.

`
