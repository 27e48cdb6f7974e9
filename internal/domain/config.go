package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Library      LibraryConfig      `mapstructure:"library"`
	Fetch        FetchConfig        `mapstructure:"fetch"`
	OsuAPI       OsuAPIConfig       `mapstructure:"osu_api"`
	Acquire      AcquireConfig      `mapstructure:"acquire"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LibraryConfig contains settings for the local music library
type LibraryConfig struct {
	Root              string   `mapstructure:"root"`
	DatabasePath      string   `mapstructure:"database_path"`
	LogsDir           string   `mapstructure:"logs_dir"`
	MaxAssetSize      int64    `mapstructure:"max_asset_size"`
	MaxNameLength     int      `mapstructure:"max_name_length"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// FetchConfig contains mirror download settings
type FetchConfig struct {
	Timeout        time.Duration  `mapstructure:"timeout"`
	UserAgent      string         `mapstructure:"user_agent"`
	MaxArchiveSize int64          `mapstructure:"max_archive_size"`
	Mirrors        []MirrorSource `mapstructure:"mirrors"`
}

// OsuAPIConfig contains settings for the beatmapset metadata lookup
type OsuAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AcquireConfig bounds how many pipelines run at once (0 = unbounded)
type AcquireConfig struct {
	ConcurrentLimit int `mapstructure:"concurrent_limit"`
}

// ProgressConfig controls how long terminal progress entries stay visible
type ProgressConfig struct {
	CompletedTTL time.Duration `mapstructure:"completed_ttl"`
	ErrorTTL     time.Duration `mapstructure:"error_ttl"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

const (
	// DefaultMaxAssetSize is the largest audio member written to the library
	DefaultMaxAssetSize int64 = 100 * 1024 * 1024
	// DefaultMaxArchiveSize caps how much of a mirror response is read
	DefaultMaxArchiveSize int64 = 512 * 1024 * 1024
	// DefaultMaxNameLength leaves room for the id prefix and extension under 255 bytes
	DefaultMaxNameLength = 100
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Library: LibraryConfig{
			Root:              "$HOME/Music/osu-music",
			DatabasePath:      "$HOME/Music/osu-music/.library/library.db",
			LogsDir:           "$HOME/Music/osu-music/.library/logs",
			MaxAssetSize:      DefaultMaxAssetSize,
			MaxNameLength:     DefaultMaxNameLength,
			AllowedExtensions: append([]string(nil), LibraryAudioExtensions...),
		},
		Fetch: FetchConfig{
			Timeout:        60 * time.Second,
			UserAgent:      "osz-extract-go/1.0",
			MaxArchiveSize: DefaultMaxArchiveSize,
			Mirrors:        DefaultMirrors(),
		},
		OsuAPI: OsuAPIConfig{
			BaseURL: "https://osu.ppy.sh/api/v2",
			Timeout: 15 * time.Second,
		},
		Acquire: AcquireConfig{
			ConcurrentLimit: 0,
		},
		Progress: ProgressConfig{
			CompletedTTL: 5 * time.Second,
			ErrorTTL:     10 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
