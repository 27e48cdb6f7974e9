package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/yourusername/osz-extract-go/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. OSZEXTRACT_SERVER_PORT
const EnvPrefix = "OSZEXTRACT"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.osz-extract")
		v.AddConfigPath("/etc/osz-extract")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	if err := registerDefaults(v, config); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// A configured mirror list replaces the defaults instead of overlaying them
	if v.IsSet("fetch.mirrors") {
		config.Fetch.Mirrors = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// registerDefaults registers every scalar key of the default config with viper
func registerDefaults(v *viper.Viper, config *domain.Config) error {
	sections, err := configSections(config)
	if err != nil {
		return err
	}
	for section, values := range sections {
		fields, ok := values.(map[string]interface{})
		if !ok {
			continue
		}
		for key, value := range fields {
			// Mirror lists are replaced as a whole, never merged key by key
			if key == "mirrors" {
				continue
			}
			v.SetDefault(section+"."+key, value)
		}
	}
	return nil
}

// configSections flattens the config into section maps keyed by mapstructure names
func configSections(config *domain.Config) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := mapstructure.Decode(config, &out); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	mirrors := make([]map[string]interface{}, 0, len(config.Fetch.Mirrors))
	for _, m := range config.Fetch.Mirrors {
		mirrors = append(mirrors, map[string]interface{}{
			"name":          m.Name,
			"url_template":  m.URLTemplate,
			"requires_auth": m.RequiresAuth,
			"priority":      m.Priority,
		})
	}
	if fetch, ok := out["fetch"].(map[string]interface{}); ok {
		fetch["mirrors"] = mirrors
	}
	// Durations are written in their string form ("60s") so the file stays readable
	for _, values := range out {
		fields, ok := values.(map[string]interface{})
		if !ok {
			continue
		}
		for key, value := range fields {
			if d, ok := value.(time.Duration); ok {
				fields[key] = d.String()
			}
		}
	}
	return out, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Library.Root = expandPath(config.Library.Root)
	config.Library.DatabasePath = expandPath(config.Library.DatabasePath)
	config.Library.LogsDir = expandPath(config.Library.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME is resolved from the user database when the variable is unset
	if strings.Contains(path, "$HOME") && os.Getenv("HOME") == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Library.Root == "" {
		return fmt.Errorf("library root not configured")
	}

	if config.Library.DatabasePath == "" {
		return fmt.Errorf("library database path not configured")
	}

	if config.Library.LogsDir == "" {
		return fmt.Errorf("library logs directory not configured")
	}

	if config.Library.MaxAssetSize <= 0 {
		return fmt.Errorf("max asset size must be positive")
	}

	if config.Library.MaxNameLength < 1 || config.Library.MaxNameLength > 200 {
		return fmt.Errorf("max name length must be between 1 and 200, got %d", config.Library.MaxNameLength)
	}

	allowed := domain.NewAllowList(config.Library.AllowedExtensions)
	if len(allowed) == 0 {
		return fmt.Errorf("at least one allowed audio extension is required")
	}
	for _, ext := range allowed {
		if ext == ".wav" {
			return fmt.Errorf("%s is reserved for hit sounds and cannot be allowed", ext)
		}
	}

	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	if config.Fetch.MaxArchiveSize <= 0 {
		return fmt.Errorf("max archive size must be positive")
	}

	if len(config.Fetch.Mirrors) == 0 {
		return fmt.Errorf("at least one mirror must be configured")
	}
	for i, m := range config.Fetch.Mirrors {
		if m.Name == "" {
			return fmt.Errorf("mirror %d has no name", i)
		}
		if !strings.Contains(m.URLTemplate, domain.ContentIDPlaceholder) {
			return fmt.Errorf("mirror %s url_template must contain %s", m.Name, domain.ContentIDPlaceholder)
		}
	}

	if config.Acquire.ConcurrentLimit < 0 {
		return fmt.Errorf("concurrent limit cannot be negative")
	}

	if config.Progress.CompletedTTL < 0 || config.Progress.ErrorTTL < 0 {
		return fmt.Errorf("progress TTLs cannot be negative")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	sections, err := configSections(config)
	if err != nil {
		return err
	}
	for section, values := range sections {
		v.Set(section, values)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
