package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"acg/internal/console"
	"acg/internal/errs"
	"acg/internal/rewrite"
)

func newChangeCmd(a *app) *cobra.Command {
	var (
		useVoice  bool
		audioFile string
		pid       int
		show      bool
		diff      bool
	)

	cmd := &cobra.Command{
		Use:   "change FILE [DESCRIPTION...]",
		Short: "Generate the next version of FILE and launch it",
		Long: "Without a description on the command line acg asks for one, or records\n" +
			"it with --voice (or decodes it from --audio-file).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if audioFile != "" {
				useVoice = true
			}

			orch, cleanup, err := a.pipeline(audioFile, typedSource())
			if err != nil {
				return err
			}
			defer cleanup()

			req := rewrite.Request{
				Path:        args[0],
				UseVoice:    useVoice,
				Description: strings.Join(args[1:], " "),
				PID:         pid,
			}

			// the spinner would fight with the prompt and the recorder logs
			var sp *console.Spinner
			if !useVoice && req.Description != "" {
				sp = console.StartSpinner(fmt.Sprintf("Generating the next version of %s", req.Path))
			}

			res, err := orch.RequestChange(cmd.Context(), req)
			if useVoice {
				path := ""
				if res != nil {
					path = res.Path
				}
				a.announce(path, errs.Kind(err))
			}
			if err != nil {
				if sp != nil {
					sp.Fail("Generation failed")
				}
				if res != nil && res.Path != "" {
					pterm.Warning.Printfln("%s was written but could not be launched", res.Path)
				}
				return err
			}
			if sp != nil {
				sp.Done(fmt.Sprintf("Wrote %s", res.Path))
			}

			if diff {
				fmt.Print(console.Diff(res.Source, res.Generated))
			}
			if show {
				if err := console.Highlight(os.Stdout, res.Path, res.Generated); err != nil {
					fmt.Println(res.Generated)
				}
			}

			pterm.Success.Printfln("Launched %s (pid %d)", res.Path, res.Process.PID)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&useVoice, "voice", "v", false, "Speak the change instead of typing it")
	f.StringVar(&audioFile, "audio-file", "", "Transcribe this audio file instead of recording")
	f.IntVar(&pid, "pid", 0, "PID of the running version, retired when on_launch is terminate")
	f.BoolVar(&show, "show", false, "Print the generated source")
	f.BoolVar(&diff, "diff", false, "Print a line diff against the previous version")
	return cmd
}

// typedSource asks on the terminal, or reads one line when stdin is piped.
func typedSource() *console.Asker {
	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return &console.Asker{}
	}
	return &console.Asker{In: os.Stdin, Out: os.Stderr}
}
