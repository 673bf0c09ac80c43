package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type (
	loggerKey struct{}
	configKey struct{}
)

// EnvPrefix is the prefix of environment variables read by the loader.
const EnvPrefix = "BOARDKIT_"

// searchDepth bounds the walk up from the working directory.
const searchDepth = 10

// configNames are the file names searched for, in order.
var configNames = []string{"boardkit.yaml", "boardkit.yml"}

// sections are nested config blocks addressable from flat env names.
var sections = []string{"framing", "migrate"}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configIn returns the config file inside dir, or "".
func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// projectRootAbove returns the nearest directory at or above dir that holds
// a config file, or "".
func projectRootAbove(dir string) string {
	for range searchDepth {
		if configIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot picks the directory of an explicit config file, then the
// nearest ancestor holding boardkit.yaml, then the working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := projectRootAbove(cwd); root != "" {
		return root
	}
	return cwd
}

// underRoot joins a relative path onto root.
func underRoot(path, root string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// envKey maps BOARDKIT_FRAMING_MAX_ZOOM to framing.max_zoom.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// ResetConfig forgets the loaded configuration. Tests call it between runs.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig layers defaults, boardkit.yaml, BOARDKIT_* variables and the
// flags the user set, each overriding the one before, then validates the
// result and makes it the current configuration.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	projectRoot := inferProjectRoot(cfgFile)

	// Flag paths are relative to the working directory, not the project root.
	var flagStatePath string
	if flags != nil && flags.Changed("state") {
		if v, _ := flags.GetString("state"); v != "" {
			flagStatePath, _ = filepath.Abs(v)
		}
	}

	// Defaults.
	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"state_path":           def.StatePath,
		"verbose":              false,
		"output":               string(def.OutputFormat),
		"framing.width":        def.Framing.Width,
		"framing.height":       def.Framing.Height,
		"framing.background":   def.Framing.Background,
		"framing.max_zoom":     def.Framing.MaxZoom,
		"migrate.auto_confirm": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// File.
	if cfgFile == "" {
		cfgFile = configIn(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// Environment.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Flags the user set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "output", "verbose":
				return key, posflag.FlagVal(flags, f)
			}
			// Persistent flags outside the config surface (e.g. --config).
			return "", nil
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Decode.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = underRoot(cfg.StatePath, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed names the file the last LoadConfig read, or "".
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the result of the last LoadConfig, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey is the context key the root command stores its logger under.
func LoggerKey() any {
	return loggerKey{}
}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the configuration stored by NewContext.
func FromContext(ctx context.Context) (*Config, bool) {
	if ctx == nil {
		return nil, false
	}
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok
}

// GetLogger returns the logger stored in ctx, or one that discards.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}
