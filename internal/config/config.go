package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"acg/internal/codegen"
	"acg/internal/errs"
	"acg/internal/ipc"
	"acg/internal/rewrite"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	LogFile  string        `mapstructure:"log_file"`
	Socket   string        `mapstructure:"socket"`
	Proxy    string        `mapstructure:"proxy"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Whisper  WhisperConfig `mapstructure:"whisper"`
	Voice    VoiceConfig   `mapstructure:"voice"`
	Launch   LaunchConfig  `mapstructure:"launch"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type WhisperConfig struct {
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
	Threads  int    `mapstructure:"threads"`
}

type VoiceConfig struct {
	Mode     string        `mapstructure:"mode"`
	Duration time.Duration `mapstructure:"duration"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Beep     string        `mapstructure:"beep"`
	Duck     bool          `mapstructure:"duck"`
	KeepDir  string        `mapstructure:"keep_dir"`
	Announce bool          `mapstructure:"announce"`
}

type LaunchConfig struct {
	OnLaunch     string              `mapstructure:"on_launch"`
	Interpreters map[string][]string `mapstructure:"interpreters"`
}

const (
	ModeFixed = "fixed"
	ModeAuto  = "auto"
)

var defaults = map[string]any{
	"log_level":          "info",
	"log_file":           "",
	"socket":             ipc.DefaultSocketPath,
	"proxy":              "",
	"openai.api_key":     "",
	"openai.base_url":    "",
	"openai.model":       codegen.DefaultModel,
	"openai.temperature": codegen.DefaultTemperature,
	"openai.timeout":     rewrite.DefaultTimeout,
	"whisper.model":      "models/ggml-base.bin",
	"whisper.language":   "auto",
	"whisper.threads":    0,
	"voice.mode":         ModeFixed,
	"voice.duration":     10 * time.Second,
	"voice.timeout":      rewrite.DefaultTimeout,
	"voice.beep":         "",
	"voice.duck":         false,
	"voice.keep_dir":     "",
	"voice.announce":     false,
	"launch.on_launch":   string(rewrite.KeepOld),
}

// flag name -> config key
var flagKeys = map[string]string{
	"log":        "log_level",
	"log-file":   "log_file",
	"socket":     "socket",
	"proxy":      "proxy",
	"model":      "openai.model",
	"timeout":    "openai.timeout",
	"whisper":    "whisper.model",
	"language":   "whisper.language",
	"record":     "voice.duration",
	"mode":       "voice.mode",
	"duck":       "voice.duck",
	"keep-audio": "voice.keep_dir",
	"on-launch":  "launch.on_launch",
}

// LoadEnv reads a dotenv file. A missing default file is not an error.
func LoadEnv(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	return err
}

// Load merges defaults, the optional config file, ACG_* environment
// variables, OPENAI_API_KEY and any flags set on the command line.
func Load(v *viper.Viper, file string, flags *cli.FlagSet) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.ErrConfiguration, fmt.Errorf("read %s: %w", file, err))
		}
	} else {
		v.SetConfigName("acg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errs.Wrap(errs.ErrConfiguration, err)
			}
		}
	}

	v.SetEnvPrefix("acg")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", "ACG_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "ACG_OPENAI_BASE_URL", "OPENAI_BASE_URL")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errs.Wrap(errs.ErrConfiguration, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, fmt.Errorf("decode config: %w", err))
	}
	return &cfg, nil
}

// Validate checks what a change request needs before any work starts.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return errs.Wrapf(errs.ErrConfiguration, "OPENAI_API_KEY not set")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return errs.Wrapf(errs.ErrConfiguration, "openai.temperature %v outside [0, 2]", c.OpenAI.Temperature)
	}
	switch c.Voice.Mode {
	case ModeFixed, ModeAuto:
	default:
		return errs.Wrapf(errs.ErrConfiguration, "voice.mode %q, want fixed or auto", c.Voice.Mode)
	}
	switch rewrite.Policy(c.Launch.OnLaunch) {
	case rewrite.KeepOld, rewrite.TerminateOld:
	default:
		return errs.Wrapf(errs.ErrConfiguration, "launch.on_launch %q, want keep or terminate", c.Launch.OnLaunch)
	}
	if c.Voice.Duration <= 0 {
		return errs.Wrapf(errs.ErrConfiguration, "voice.duration must be positive")
	}
	// recording and transcription share one capture deadline
	if c.Voice.Duration >= c.Voice.Timeout {
		return errs.Wrapf(errs.ErrConfiguration, "voice.duration %v must be shorter than voice.timeout %v", c.Voice.Duration, c.Voice.Timeout)
	}
	return nil
}
