package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	Transfer TransferConfig `mapstructure:"transfer"`
	Disk     DiskConfig     `mapstructure:"disk"`
	Report   ReportConfig   `mapstructure:"report"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

// TransferConfig contains the rsync pull settings
type TransferConfig struct {
	SourceSpec  string `mapstructure:"source_spec"`  // user@host:/path fallback when no stored override exists
	DestDir     string `mapstructure:"dest_dir"`     // local destination root
	ReportDir   string `mapstructure:"report_dir"`   // subdirectory summarized in success reports, relative to dest_dir
	SSHKeyPath  string `mapstructure:"ssh_key_path"` // identity file for the ssh transport
	Timeout     string `mapstructure:"timeout"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	BaseDelay   string `mapstructure:"base_delay"`
}

// DiskConfig contains the disk space precondition settings
type DiskConfig struct {
	FloorGB float64 `mapstructure:"floor_gb"`
}

// ReportConfig contains notification formatting settings
type ReportConfig struct {
	FolderListThreshold int `mapstructure:"folder_list_threshold"`
}

// TelegramConfig contains the notification channel settings
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Timeout  string `mapstructure:"timeout"`
}

// ScheduleConfig contains the initial recurring-run settings.
// Runtime edits go through the schedule store and win over these.
type ScheduleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

// RemoteConfig points at the source host's status endpoint
type RemoteConfig struct {
	StatusURL string `mapstructure:"status_url"`
	Timeout   string `mapstructure:"timeout"`
}

// HTTPConfig contains the control server configuration
type HTTPConfig struct {
	BindAddr      string `mapstructure:"bind_addr"`
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	ReadTimeout   string `mapstructure:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"`
	IdleTimeout   string `mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"` // directory for the append-only run logs
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from the specified file path.
// A .env file next to the working directory, when present, is loaded
// first so secrets can stay out of the YAML file.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; an unreadable one is not
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("remote_pull")
	viper.BindEnv("telegram.bot_token", "REMOTE_PULL_TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.chat_id", "REMOTE_PULL_TELEGRAM_CHAT_ID")
	viper.BindEnv("transfer.source_spec", "REMOTE_PULL_SOURCE_SPEC")

	// Set defaults
	viper.SetDefault("transfer.dest_dir", "/data")
	viper.SetDefault("transfer.report_dir", "")
	viper.SetDefault("transfer.ssh_key_path", "/root/.ssh/id_rsa")
	viper.SetDefault("transfer.timeout", "300s")
	viper.SetDefault("transfer.max_attempts", 3)
	viper.SetDefault("transfer.base_delay", "5s")
	viper.SetDefault("disk.floor_gb", 10)
	viper.SetDefault("report.folder_list_threshold", 5)
	viper.SetDefault("telegram.enabled", false)
	viper.SetDefault("telegram.timeout", "10s")
	viper.SetDefault("schedule.enabled", true)
	viper.SetDefault("schedule.interval", "1h")
	viper.SetDefault("remote.status_url", "")
	viper.SetDefault("remote.timeout", "5s")
	viper.SetDefault("http.bind_addr", "0.0.0.0:8080")
	viper.SetDefault("http.admin_username", "admin")
	viper.SetDefault("http.admin_password", "")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "30s")
	viper.SetDefault("http.idle_timeout", "60s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.dir", "/logs")
	viper.SetDefault("database.path", "")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Transfer.DestDir == "" {
		return fmt.Errorf("transfer.dest_dir is required")
	}
	if c.Transfer.MaxAttempts < 1 {
		return fmt.Errorf("transfer.max_attempts must be at least 1")
	}
	if _, err := time.ParseDuration(c.Transfer.Timeout); err != nil {
		return fmt.Errorf("invalid transfer.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Transfer.BaseDelay); err != nil {
		return fmt.Errorf("invalid transfer.base_delay: %w", err)
	}

	if c.Disk.FloorGB < 0 {
		return fmt.Errorf("disk.floor_gb must not be negative")
	}
	if c.Report.FolderListThreshold < 0 {
		return fmt.Errorf("report.folder_list_threshold must not be negative")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram.enabled is true")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram.enabled is true")
		}
	}

	if d, err := time.ParseDuration(c.Schedule.Interval); err != nil {
		return fmt.Errorf("invalid schedule.interval: %w", err)
	} else if d < time.Minute {
		return fmt.Errorf("schedule.interval must be at least 1m")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetTimeout returns the transfer timeout as time.Duration
func (c *TransferConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	if d == 0 {
		return 300 * time.Second
	}
	return d
}

// GetBaseDelay returns the retry base delay as time.Duration
func (c *TransferConfig) GetBaseDelay() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	if d == 0 {
		return 5 * time.Second
	}
	return d
}

// GetTimeout returns the notification send timeout as time.Duration
func (c *TelegramConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetInterval returns the schedule interval as time.Duration
func (c *ScheduleConfig) GetInterval() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	if d == 0 {
		return time.Hour
	}
	return d
}

// GetTimeout returns the remote status query timeout as time.Duration
func (c *RemoteConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	if d == 0 {
		return 5 * time.Second
	}
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}
