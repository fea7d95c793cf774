package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cli "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acg/internal/errs"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ACG_OPENAI_API_KEY", "OPENAI_BASE_URL", "ACG_OPENAI_MODEL", "ACG_VOICE_MODE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(viper.New(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", cfg.OpenAI.Model)
	assert.InDelta(t, 0.3, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Voice.Duration)
	assert.Equal(t, ModeFixed, cfg.Voice.Mode)
	assert.Equal(t, "keep", cfg.Launch.OnLaunch)
	assert.Empty(t, cfg.OpenAI.APIKey)

	assert.ErrorIs(t, cfg.Validate(), errs.ErrConfiguration)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ACG_OPENAI_MODEL", "gpt-4o")
	t.Setenv("ACG_VOICE_MODE", "auto")

	cfg, err := Load(viper.New(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, ModeAuto, cfg.Voice.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndFlags(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "acg.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
openai:
  api_key: sk-file
  model: gpt-4o-mini
  timeout: 30s
voice:
  duration: 5s
  duck: true
launch:
  on_launch: terminate
  interpreters:
    py: [python3.12, -u]
`), 0o644))

	flags := cli.NewFlagSet("acg", cli.ContinueOnError)
	flags.String("model", "", "")
	flags.Duration("record", 0, "")
	require.NoError(t, flags.Parse([]string{"--model", "gpt-4.1"}))

	cfg, err := Load(viper.New(), file, flags)
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1", cfg.OpenAI.Model, "flag beats file")
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Voice.Duration, "unset flag keeps file value")
	assert.True(t, cfg.Voice.Duck)
	assert.Equal(t, "terminate", cfg.Launch.OnLaunch)
	assert.Equal(t, []string{"python3.12", "-u"}, cfg.Launch.Interpreters["py"])
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OpenAI: OpenAIConfig{APIKey: "sk", Temperature: 0.3},
			Voice:  VoiceConfig{Mode: ModeFixed, Duration: time.Second, Timeout: time.Minute},
			Launch: LaunchConfig{OnLaunch: "keep"},
		}
	}
	require.NoError(t, valid().Validate())

	for name, mutate := range map[string]func(*Config){
		"no key":      func(c *Config) { c.OpenAI.APIKey = " " },
		"temperature": func(c *Config) { c.OpenAI.Temperature = 3 },
		"mode":        func(c *Config) { c.Voice.Mode = "push-to-talk" },
		"policy":      func(c *Config) { c.Launch.OnLaunch = "restart" },
		"duration":    func(c *Config) { c.Voice.Duration = 0 },
		"timeout":     func(c *Config) { c.Voice.Duration = time.Minute },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.ErrorIs(t, c.Validate(), errs.ErrConfiguration)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("OPENAI_API_KEY=sk-dotenv\n"), 0o644))

	require.NoError(t, LoadEnv(file, true))
	t.Cleanup(func() { os.Unsetenv("OPENAI_API_KEY") })

	cfg, err := Load(viper.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.OpenAI.APIKey)

	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), false))
	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), true))
}
