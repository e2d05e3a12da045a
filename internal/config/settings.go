package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/feed-downloader/internal/download"
	"github.com/handiism/feed-downloader/internal/http"
	ioutils "github.com/handiism/feed-downloader/internal/io"
	"github.com/handiism/feed-downloader/internal/model"
	"github.com/handiism/feed-downloader/internal/progress"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FEEDDL_DOWNLOAD_MAX_PARALLEL.
const EnvPrefix = "FEEDDL"

// Progress backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Corrupt progress policies.
const (
	OnCorruptAbort = "abort"
	OnCorruptReset = "reset"
)

// Settings holds all configuration options.
type Settings struct {
	Download   DownloadSettings   `mapstructure:"download" yaml:"download"`
	Progress   ProgressSettings   `mapstructure:"progress" yaml:"progress"`
	FailureLog FailureLogSettings `mapstructure:"failure_log" yaml:"failure_log"`
	Tags       TagSettings        `mapstructure:"tags" yaml:"tags"`
	CoverArt   CoverArtSettings   `mapstructure:"cover_art" yaml:"cover_art"`
	Playlist   PlaylistSettings   `mapstructure:"playlist" yaml:"playlist"`
	Log        LogSettings        `mapstructure:"log" yaml:"log"`
}

type DownloadSettings struct {
	OutputRoot     string        `mapstructure:"output_root" yaml:"output_root"`
	MaxParallel    int           `mapstructure:"max_parallel" yaml:"max_parallel"`
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries"`
	BackoffUnit    time.Duration `mapstructure:"backoff_unit" yaml:"backoff_unit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type ProgressSettings struct {
	Path        string `mapstructure:"path" yaml:"path"`
	Backend     string `mapstructure:"backend" yaml:"backend"`       // json, sqlite
	OnCorrupt   string `mapstructure:"on_corrupt" yaml:"on_corrupt"` // abort, reset
	Incremental bool   `mapstructure:"incremental" yaml:"incremental"`
}

type FailureLogSettings struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type TagSettings struct {
	Modify bool `mapstructure:"modify" yaml:"modify"`
}

type CoverArtSettings struct {
	SaveInFolder bool `mapstructure:"save_in_folder" yaml:"save_in_folder"`
	SaveInTags   bool `mapstructure:"save_in_tags" yaml:"save_in_tags"`
	MaxSize      int  `mapstructure:"max_size" yaml:"max_size"`
}

type PlaylistSettings struct {
	Create      bool   `mapstructure:"create" yaml:"create"`
	Format      string `mapstructure:"format" yaml:"format"` // m3u, pls, wpl, zpl
	M3UExtended bool   `mapstructure:"m3u_extended" yaml:"m3u_extended"`
}

type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Download: DownloadSettings{
			OutputRoot:     "media",
			MaxParallel:    download.DefaultMaxParallel,
			MaxRetries:     download.DefaultMaxRetries,
			BackoffUnit:    download.DefaultBackoffUnit,
			RequestTimeout: http.DefaultTimeout,
			UserAgent:      http.DefaultUserAgent,
		},
		Progress: ProgressSettings{
			Path:      progress.DefaultPath,
			Backend:   BackendJSON,
			OnCorrupt: OnCorruptAbort,
		},
		FailureLog: FailureLogSettings{
			Path: download.DefaultFailureLogPath,
		},
		Tags: TagSettings{
			Modify: true,
		},
		CoverArt: CoverArtSettings{
			SaveInFolder: false,
			SaveInTags:   true,
			MaxSize:      1000,
		},
		Playlist: PlaylistSettings{
			Create:      false,
			Format:      "m3u",
			M3UExtended: true,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Option customizes Load.
type Option func(v *viper.Viper) error

// WithFlags binds command line flags to setting keys. keys maps a setting key
// (e.g. "download.max_parallel") to a flag name. Only flags the user actually
// set override the file and environment.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) Option {
	return func(v *viper.Viper) error {
		for key, name := range keys {
			flag := fs.Lookup(name)
			if flag == nil {
				return fmt.Errorf("unknown flag %q for %s", name, key)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
		return nil
	}
}

// Load reads settings from path, then the environment, then opts.
//
// A missing file is not an error when path is empty or the default;
// defaults and overrides still apply.
func Load(path string, opts ...Option) (*Settings, error) {
	v := viper.New()
	setDefaults(v, DefaultSettings())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes settings to path. The format follows the extension (yaml, json, toml).
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	v := viper.New()
	for key, value := range s.values() {
		v.Set(key, value)
	}
	return v.WriteConfigAs(path)
}

// Validate rejects settings no run can work with.
func (s *Settings) Validate() error {
	var errs []error

	if s.Download.OutputRoot == "" {
		errs = append(errs, errors.New("download.output_root must not be empty"))
	}
	if s.Download.MaxParallel < 1 {
		errs = append(errs, fmt.Errorf("download.max_parallel must be at least 1, got %d", s.Download.MaxParallel))
	}
	if s.Download.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("download.max_retries must be at least 1, got %d", s.Download.MaxRetries))
	}
	if s.Download.BackoffUnit < 0 {
		errs = append(errs, fmt.Errorf("download.backoff_unit must not be negative, got %s", s.Download.BackoffUnit))
	}
	if s.Download.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("download.request_timeout must not be negative, got %s", s.Download.RequestTimeout))
	}

	switch s.Progress.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("progress.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, s.Progress.Backend))
	}
	switch s.Progress.OnCorrupt {
	case OnCorruptAbort, OnCorruptReset:
	default:
		errs = append(errs, fmt.Errorf("progress.on_corrupt must be %q or %q, got %q", OnCorruptAbort, OnCorruptReset, s.Progress.OnCorrupt))
	}
	if s.Progress.Path == "" {
		errs = append(errs, errors.New("progress.path must not be empty"))
	}

	return errors.Join(errs...)
}

// WorkerConfig converts settings to the download worker's retry policy.
func (s *Settings) WorkerConfig() download.WorkerConfig {
	return download.WorkerConfig{
		MaxRetries:  s.Download.MaxRetries,
		BackoffUnit: s.Download.BackoffUnit,
	}
}

// ManagerConfig converts settings to the download manager's scheduling options.
func (s *Settings) ManagerConfig() download.ManagerConfig {
	policy := download.CorruptAbort
	if s.Progress.OnCorrupt == OnCorruptReset {
		policy = download.CorruptReset
	}
	return download.ManagerConfig{
		MaxParallel: s.Download.MaxParallel,
		OnCorrupt:   policy,
		Incremental: s.Progress.Incremental,
	}
}

// ClientOptions converts settings to HTTP client options.
func (s *Settings) ClientOptions() http.Options {
	return http.Options{
		Timeout:   s.Download.RequestTimeout,
		UserAgent: s.Download.UserAgent,
	}
}

// PlaylistFormat returns the configured playlist format, M3U when unknown.
func (s *Settings) PlaylistFormat() model.PlaylistFormat {
	return model.ParsePlaylistFormat(s.Playlist.Format)
}

// NewStore opens the configured progress backend.
func (s *Settings) NewStore() progress.Store {
	if s.Progress.Backend == BackendSQLite {
		return progress.NewSQLiteStore(s.Progress.Path)
	}
	return progress.NewJSONStore(s.Progress.Path)
}

func (s *Settings) values() map[string]any {
	return map[string]any{
		"download.output_root":     s.Download.OutputRoot,
		"download.max_parallel":    s.Download.MaxParallel,
		"download.max_retries":     s.Download.MaxRetries,
		"download.backoff_unit":    s.Download.BackoffUnit.String(),
		"download.request_timeout": s.Download.RequestTimeout.String(),
		"download.user_agent":      s.Download.UserAgent,
		"progress.path":            s.Progress.Path,
		"progress.backend":         s.Progress.Backend,
		"progress.on_corrupt":      s.Progress.OnCorrupt,
		"progress.incremental":     s.Progress.Incremental,
		"failure_log.path":         s.FailureLog.Path,
		"tags.modify":              s.Tags.Modify,
		"cover_art.save_in_folder": s.CoverArt.SaveInFolder,
		"cover_art.save_in_tags":   s.CoverArt.SaveInTags,
		"cover_art.max_size":       s.CoverArt.MaxSize,
		"playlist.create":          s.Playlist.Create,
		"playlist.format":          s.Playlist.Format,
		"playlist.m3u_extended":    s.Playlist.M3UExtended,
		"log.level":                s.Log.Level,
		"log.path":                 s.Log.Path,
		"log.json":                 s.Log.JSON,
	}
}

func setDefaults(v *viper.Viper, s *Settings) {
	for key, value := range s.values() {
		v.SetDefault(key, value)
	}
}
