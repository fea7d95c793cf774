package main

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/spf13/cobra"

	"acg/internal/errs"
	"acg/internal/ipc"
	"acg/internal/rewrite"
)

func newDaemonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Serve change requests on the control socket",
		Long: "The daemon keeps the speech model and microphone ready between requests\n" +
			"and handles one request at a time.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info("Booting up")

			orch, cleanup, err := a.pipeline("", nil)
			if err != nil {
				return err
			}
			defer cleanup()

			var mu sync.Mutex
			srv, err := ipc.StartServer(a.cfg.Socket, func(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
				switch msg.Cmd {
				case ipc.CmdPing:
					return ipc.Reply{OK: true}
				case ipc.CmdChange:
					mu.Lock()
					defer mu.Unlock()
					reply := serveChange(ctx, orch, msg)
					if msg.Voice {
						a.announce(reply.Path, reply.Kind)
					}
					return reply
				default:
					log.Warn("Unknown command", "cmd", msg.Cmd)
					err := errs.Wrapf(errs.ErrInvalidRequest, "unknown command %q", msg.Cmd)
					return ipc.Reply{Kind: errs.Kind(err), Error: err.Error()}
				}
			})
			if err != nil {
				return errs.Wrap(errs.ErrConfiguration, fmt.Errorf("control socket %s: %w", a.cfg.Socket, err))
			}
			defer srv.Close()

			log.Info("Boot up - successful", "socket", srv.Addr())

			<-cmd.Context().Done()
			log.Info("Shutting down")
			return nil
		},
	}
}

func serveChange(ctx context.Context, orch *rewrite.Orchestrator, msg ipc.ControlMessage) ipc.Reply {
	res, err := orch.RequestChange(ctx, rewrite.Request{
		Path:        msg.Path,
		UseVoice:    msg.Voice,
		Description: msg.Text,
		PID:         msg.PID,
	})

	var reply ipc.Reply
	if res != nil {
		reply.RequestID = res.ID
		reply.Path = res.Path
		reply.PID = res.Process.PID
	}
	if err != nil {
		log.Error("Request failed", "path", msg.Path, "kind", errs.Kind(err), "err", err)
		reply.Kind = errs.Kind(err)
		reply.Error = err.Error()
		return reply
	}
	reply.OK = true
	return reply
}
