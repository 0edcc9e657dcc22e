// Package config loads pdf2docx settings from a YAML file, the environment
// and an optional .env file, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tsawler/pdf2docx/internal/logging"
	"github.com/tsawler/pdf2docx/model"
)

// File lookup and environment naming.
const (
	FileName  = "pdf2docx"
	EnvPrefix = "PDF2DOCX"
)

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Convert ConvertConfig `mapstructure:"convert" yaml:"convert"`
	Preview PreviewConfig `mapstructure:"preview" yaml:"preview"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxConnections  int           `mapstructure:"max_connections" yaml:"max_connections"`
	// MaxUploadBytes caps request bodies; 0 means no cap.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type ConvertConfig struct {
	// StagingDir is where uploads are staged; "" means the system temp dir.
	StagingDir       string        `mapstructure:"staging_dir" yaml:"staging_dir"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ImageWidthInches float64       `mapstructure:"image_width_inches" yaml:"image_width_inches"`
	Quality          string        `mapstructure:"quality" yaml:"quality"`
}

type PreviewConfig struct {
	ThumbnailWidth int     `mapstructure:"thumbnail_width" yaml:"thumbnail_width"`
	ThumbnailDPI   float64 `mapstructure:"thumbnail_dpi" yaml:"thumbnail_dpi"`
	SnippetChars   int     `mapstructure:"snippet_chars" yaml:"snippet_chars"`
}

type OCRConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Language string `mapstructure:"language" yaml:"language"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxConnections:  8,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Convert: ConvertConfig{
			Timeout:          5 * time.Minute,
			ImageWidthInches: 5,
			Quality:          model.QualityBalanced.Slug(),
		},
		Preview: PreviewConfig{
			ThumbnailWidth: 300,
			ThumbnailDPI:   72,
			SnippetChars:   2000,
		},
		OCR: OCRConfig{
			Language: "eng",
		},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are honoured for keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("convert.staging_dir", d.Convert.StagingDir)
	v.SetDefault("convert.timeout", d.Convert.Timeout)
	v.SetDefault("convert.image_width_inches", d.Convert.ImageWidthInches)
	v.SetDefault("convert.quality", d.Convert.Quality)
	v.SetDefault("preview.thumbnail_width", d.Preview.ThumbnailWidth)
	v.SetDefault("preview.thumbnail_dpi", d.Preview.ThumbnailDPI)
	v.SetDefault("preview.snippet_chars", d.Preview.SnippetChars)
	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.language", d.OCR.Language)
}

// NewViper returns a viper instance reading configFile, or pdf2docx.yaml
// from the working directory or ~/.config/pdf2docx when configFile is "".
// A .env file in the working directory is loaded into the environment
// first. A missing default config file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be set"))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, errors.New("server.max_connections must not be negative"))
	}
	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must not be negative"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" && f != "" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Convert.Timeout <= 0 {
		errs = append(errs, errors.New("convert.timeout must be positive"))
	}
	if c.Convert.ImageWidthInches <= 0 || c.Convert.ImageWidthInches > 22 {
		errs = append(errs, errors.New("convert.image_width_inches must be in (0, 22]"))
	}
	if _, err := model.ParseQuality(c.Convert.Quality); err != nil {
		errs = append(errs, fmt.Errorf("convert.quality: %w", err))
	}
	if c.Preview.ThumbnailWidth <= 0 || c.Preview.ThumbnailDPI <= 0 || c.Preview.SnippetChars <= 0 {
		errs = append(errs, errors.New("preview sizes must be positive"))
	}
	if c.OCR.Enabled && c.OCR.Language == "" {
		errs = append(errs, errors.New("ocr.language must be set when OCR is enabled"))
	}
	return errors.Join(errs...)
}

// Quality returns the configured default conversion quality.
func (c *Config) Quality() model.Quality {
	q, _ := model.ParseQuality(c.Convert.Quality)
	return q
}

// ConvertOptions returns the default per-request options.
func (c *Config) ConvertOptions() model.Options {
	opts := model.DefaultOptions()
	opts.Quality = c.Quality()
	return opts
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
