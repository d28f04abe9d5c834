package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. GISTSYNC_SYNC_INTERVAL
const EnvPrefix = "GISTSYNC_"

// Load builds the configuration. configPath may be empty, in which case the
// default location is used when it exists.
func Load(configPath string, p *paths.Paths) (*Config, error) {
	return LoadWithOverrides(configPath, p, nil)
}

// LoadWithOverrides is Load with a final layer of dotted keys, e.g.
// {"sync.interval": "30s"}, taking precedence over files and env vars.
func LoadWithOverrides(configPath string, p *paths.Paths, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User file
	source := configPath
	if source == "" {
		if _, err := os.Stat(p.ConfigFile()); err == nil {
			source = p.ConfigFile()
		}
	} else if _, err := os.Stat(source); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", source)
	}
	if source != "" {
		if err := k.Load(file.Provider(source), parserFor(source)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", source)
		}
	}

	// 3. Env vars. Only the first underscore separates section from key so
	// that GISTSYNC_SYNC_PROMPT_TIMEOUT maps to sync.prompt_timeout
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Command-line overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	cfg.Source = source

	// 6. Post-process
	postProcess(&cfg, p)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// postProcess expands user paths and fills derived defaults
func postProcess(cfg *Config, p *paths.Paths) {
	cfg.Store.Dir = paths.ExpandHome(cfg.Store.Dir)
	if cfg.Store.Remote == "" {
		cfg.Store.Remote = "origin"
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = p.BackupDir()
	} else {
		cfg.Backup.Dir = paths.ExpandHome(cfg.Backup.Dir)
	}
	if cfg.Sync.MergeStrategy == "" {
		cfg.Sync.MergeStrategy = MergeAuto
	}
	for i := range cfg.Files {
		cfg.Files[i].Local = paths.ExpandHome(cfg.Files[i].Local)
		cfg.Files[i].Mirror = filepath.Clean(cfg.Files[i].Mirror)
	}
	for i := range cfg.Links {
		cfg.Links[i].Path = paths.ExpandHome(cfg.Links[i].Path)
		cfg.Links[i].Target = paths.ExpandHome(cfg.Links[i].Target)
	}
}

// Validate checks the invariants the rest of the program relies on
func Validate(cfg *Config) error {
	if cfg.Store.Dir == "" {
		return errors.New(errors.ErrConfigValid, "store.dir must be set")
	}
	if len(cfg.Store.Branches) == 0 {
		return errors.New(errors.ErrConfigValid, "store.branches must list at least one branch")
	}
	if cfg.Sync.Interval <= 0 {
		return errors.Newf(errors.ErrConfigValid, "sync.interval must be positive, got %s", cfg.Sync.Interval)
	}
	if cfg.Sync.Cooldown < 0 {
		return errors.Newf(errors.ErrConfigValid, "sync.cooldown must not be negative, got %s", cfg.Sync.Cooldown)
	}
	if cfg.Sync.PromptTimeout <= 0 {
		return errors.Newf(errors.ErrConfigValid, "sync.prompt_timeout must be positive, got %s", cfg.Sync.PromptTimeout)
	}
	switch cfg.Sync.MergeStrategy {
	case MergeAuto, MergeTree, MergeWorktree:
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown sync.merge_strategy %q", cfg.Sync.MergeStrategy)
	}
	if len(cfg.Files) == 0 {
		return errors.New(errors.ErrConfigValid, "at least one tracked file is required")
	}

	seen := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		if f.Local == "" || f.Mirror == "" || f.Mirror == "." {
			return errors.Newf(errors.ErrConfigValid, "tracked file needs both local and mirror (got %q -> %q)", f.Local, f.Mirror)
		}
		if filepath.IsAbs(f.Mirror) || f.Mirror == ".." || strings.HasPrefix(f.Mirror, ".."+string(filepath.Separator)) {
			return errors.Newf(errors.ErrConfigValid, "mirror %q must stay inside the store directory", f.Mirror)
		}
		if seen[f.Mirror] {
			return errors.Newf(errors.ErrConfigValid, "mirror %q is tracked twice", f.Mirror)
		}
		seen[f.Mirror] = true
	}
	for _, l := range cfg.Links {
		if l.Target == "" || l.Path == "" {
			return errors.Newf(errors.ErrConfigValid, "link needs both target and path (got %q -> %q)", l.Path, l.Target)
		}
	}

	return nil
}

// GenerateConfigContent returns the defaults with every value commented out,
// suitable as a starting point for a user config file
func GenerateConfigContent() string {
	lines := strings.Split(GetDefaultsContent(), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
			result = append(result, line)
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			// Array tables would be created empty if left active
			if strings.HasPrefix(trimmed, "[[") {
				result = append(result, "# "+line)
			} else {
				result = append(result, line)
			}
		default:
			result = append(result, "# "+line)
		}
	}

	return fmt.Sprintf("# Generated by gistsync\n%s", strings.Join(result, "\n"))
}
