package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"acg/internal/errs"
	"acg/internal/ipc"
	"acg/internal/version"
)

// slack on top of the daemon's own capture and generation timeouts
const sendSlack = 10 * time.Second

func newSendCmd(a *app) *cobra.Command {
	var (
		useVoice bool
		pid      int
	)

	cmd := &cobra.Command{
		Use:   "send FILE [DESCRIPTION...]",
		Short: "Ask a running daemon to change FILE",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return errs.Wrap(errs.ErrFileSystem, err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.OpenAI.Timeout+a.cfg.Voice.Timeout+sendSlack)
			defer cancel()

			reply, err := ipc.Send(ctx, a.cfg.Socket, ipc.ControlMessage{
				Cmd:   ipc.CmdChange,
				Path:  path,
				Text:  strings.Join(args[1:], " "),
				Voice: useVoice,
				PID:   pid,
			})
			if err != nil {
				return fmt.Errorf("acg daemon not reachable at %s: %w", a.cfg.Socket, err)
			}
			if !reply.OK {
				if reply.Path != "" {
					pterm.Warning.Printfln("%s was written but could not be launched", reply.Path)
				}
				return errs.Remote(reply.Kind, reply.Error)
			}

			pterm.Success.Printfln("Launched %s (pid %d, request %s)", reply.Path, reply.PID, reply.RequestID)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&useVoice, "voice", "v", false, "Let the daemon record the change")
	f.IntVar(&pid, "pid", 0, "PID of the running version, retired when on_launch is terminate")
	return cmd
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()

			if _, err := ipc.Send(ctx, a.cfg.Socket, ipc.ControlMessage{Cmd: ipc.CmdPing}); err != nil {
				return fmt.Errorf("acg daemon not reachable at %s: %w", a.cfg.Socket, err)
			}
			pterm.Success.Printfln("acg daemon is listening on %s", a.cfg.Socket)
			return nil
		},
	}
}

func newNextVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-version FILE",
		Short: "Print the path the next change of FILE would be written to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := version.NextFree(afero.NewOsFs(), args[0])
			if err != nil {
				return errs.Wrap(errs.ErrFileSystem, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
