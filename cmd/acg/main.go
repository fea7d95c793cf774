package main

import (
	"context"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"

	"acg/internal/errs"
)

// exit status per error kind; anything unclassified exits 1
var exitCodes = map[string]int{
	"configuration":   2,
	"invalid_request": 3,
	"service":         4,
	"timeout":         5,
	"audio":           6,
	"transcription":   6,
	"filesystem":      7,
	"spawn":           8,
}

func main() {
	os.Exit(run())
}

func run() int {
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: log.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		kind := errs.Kind(err)
		log.Error("Failed", "kind", kind, "err", err)
		if code, ok := exitCodes[kind]; ok {
			return code
		}
		return 1
	}
	return 0
}
