package main

import (
	"fmt"
	"io"
	log "log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"acg/internal/config"
	"acg/internal/errs"
	"acg/internal/logging"
)

type app struct {
	configFile string
	envFile    string

	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "acg",
		Short: "Rewrite a program from a spoken or typed request and run the new version",
		Long: "acg sends a program's source and a change request to a language model,\n" +
			"saves the reply as the next version (name_v1.py, name_v2.py, ...) and launches it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.boot(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "Config file (default ./acg.yaml if present)")
	pf.StringVarP(&a.envFile, "env", "e", ".env", "Env file path")
	pf.StringP("log", "l", "", "Log level (debug|info|warn|error)")
	pf.String("log-file", "", "Also append JSON logs to this file")
	pf.String("socket", "", "Daemon control socket path")
	pf.StringP("proxy", "p", "", "SOCKS5 proxy address for the generation API")
	pf.StringP("model", "m", "", "Chat model used for generation")
	pf.Duration("timeout", 0, "Generation timeout")
	pf.String("whisper", "", "Whisper ggml model path")
	pf.String("language", "", "Speech language, or auto")
	pf.Duration("record", 0, "Maximum recording length")
	pf.String("mode", "", "Recording mode (fixed|auto)")
	pf.Bool("duck", false, "Lower other audio while recording")
	pf.String("keep-audio", "", "Directory to save each recording to")
	pf.String("on-launch", "", "What to do with the old process (keep|terminate)")

	root.AddCommand(
		newChangeCmd(a),
		newDaemonCmd(a),
		newSendCmd(a),
		newPingCmd(a),
		newNextVersionCmd(),
	)
	return root
}

// boot loads the environment, configuration and logger for every command.
func (a *app) boot(cmd *cobra.Command) error {
	if err := config.LoadEnv(a.envFile, cmd.Flags().Changed("env")); err != nil {
		return errs.Wrap(errs.ErrConfiguration, fmt.Errorf("load env %s: %w", a.envFile, err))
	}
	log.Debug("Loaded env", "file", a.envFile)

	cfg, err := config.Load(viper.New(), a.configFile, cmd.Flags())
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errs.Wrap(errs.ErrConfiguration, err)
	}
	logger, closer, err := logging.New(os.Stderr, level, cfg.LogFile)
	if err != nil {
		return errs.Wrap(errs.ErrConfiguration, err)
	}
	log.SetDefault(logger)

	a.cfg = cfg
	a.logCloser = closer

	log.Debug("Loaded config", "model", cfg.OpenAI.Model, "socket", cfg.Socket, "on_launch", cfg.Launch.OnLaunch)
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
