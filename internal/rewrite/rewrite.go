package rewrite

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"acg/internal/errs"
	"acg/internal/launcher"
	"acg/internal/prompt"
	"acg/internal/version"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DescriptionSource yields a natural-language change description.
type DescriptionSource interface {
	Describe(ctx context.Context) (string, error)
}

// Policy decides what happens to the requesting process once its
// replacement runs.
type Policy string

const (
	KeepOld      Policy = "keep"
	TerminateOld Policy = "terminate"
)

const DefaultTimeout = 60 * time.Second

const maxCreateAttempts = 100

type Options struct {
	Policy          Policy
	GenerateTimeout time.Duration
	CaptureTimeout  time.Duration
}

type Request struct {
	Path        string
	UseVoice    bool
	Description string // used for typed requests when set
	PID         int    // requesting process, for TerminateOld
}

type Result struct {
	ID          string
	Description string
	Path        string
	Source      string // the version the request started from
	Generated   string
	Process     launcher.Handle
}

type Orchestrator struct {
	fs        afero.Fs
	gen       Generator
	launch    launcher.ProcessLauncher
	typed     DescriptionSource
	voice     DescriptionSource
	terminate func(pid int) error
	opt       Options
}

type Option func(*Orchestrator)

// WithTyped sets where typed descriptions come from when a request has none.
func WithTyped(src DescriptionSource) Option {
	return func(o *Orchestrator) { o.typed = src }
}

func WithVoice(src DescriptionSource) Option {
	return func(o *Orchestrator) { o.voice = src }
}

func WithFs(fs afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fs }
}

func WithTerminate(fn func(pid int) error) Option {
	return func(o *Orchestrator) { o.terminate = fn }
}

func New(gen Generator, l launcher.ProcessLauncher, opt Options, opts ...Option) *Orchestrator {
	if opt.Policy == "" {
		opt.Policy = KeepOld
	}
	if opt.GenerateTimeout <= 0 {
		opt.GenerateTimeout = DefaultTimeout
	}
	if opt.CaptureTimeout <= 0 {
		opt.CaptureTimeout = DefaultTimeout
	}

	o := &Orchestrator{
		fs:        afero.NewOsFs(),
		gen:       gen,
		launch:    l,
		terminate: launcher.Terminate,
		opt:       opt,
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// RequestChange runs one change request end to end. Every call produces a
// new version file. When only the launch fails, the written file stays on
// disk and the returned Result names it alongside an ErrSpawn error.
func (o *Orchestrator) RequestChange(ctx context.Context, req Request) (*Result, error) {
	res := &Result{ID: uuid.NewString()}
	logger := log.With("request", res.ID, "path", req.Path)

	desc, err := o.describe(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Description = desc
	logger.Info("Change requested", "voice", req.UseVoice, "description", desc)

	source, err := afero.ReadFile(o.fs, req.Path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrFileSystem, fmt.Errorf("read %s: %w", req.Path, err))
	}
	res.Source = string(source)
	if err := prompt.Check(req.Path, res.Source); err != nil {
		return nil, err
	}

	p, err := prompt.Build(res.Source, desc, req.Path)
	if err != nil {
		return nil, err
	}

	logger.Info("Generating")
	generated, err := o.generate(ctx, p)
	if err != nil {
		return nil, err
	}
	res.Generated = generated

	path, err := o.write(req.Path, generated)
	if err != nil {
		return nil, err
	}
	res.Path = path
	logger.Info("Saved new version", "version", path)

	h, err := o.launch.Launch(path)
	if err != nil {
		return res, errs.Wrap(errs.ErrSpawn, fmt.Errorf("launch %s (the file was kept): %w", path, err))
	}
	res.Process = h

	o.retire(logger, req.PID)

	return res, nil
}

func (o *Orchestrator) describe(ctx context.Context, req Request) (string, error) {
	var (
		desc string
		err  error
	)

	switch {
	case req.UseVoice:
		if o.voice == nil {
			return "", errs.Wrapf(errs.ErrAudio, "voice input is not configured")
		}
		cctx, cancel := context.WithTimeout(ctx, o.opt.CaptureTimeout)
		defer cancel()
		desc, err = o.voice.Describe(cctx)
		if err != nil && !errs.Classified(err) {
			err = errs.Wrap(errs.ErrTranscription, err)
		}
	case req.Description != "":
		desc = req.Description
	case o.typed != nil:
		desc, err = o.typed.Describe(ctx)
		if err != nil && !errs.Classified(err) {
			err = errs.Wrap(errs.ErrInvalidRequest, err)
		}
	default:
		return "", errs.Wrapf(errs.ErrInvalidRequest, "no change description given")
	}
	if err != nil {
		return "", err
	}

	if desc == "" {
		return "", errs.Wrapf(errs.ErrInvalidRequest, "empty change description")
	}
	return desc, nil
}

func (o *Orchestrator) generate(ctx context.Context, p string) (string, error) {
	gctx, cancel := context.WithTimeout(ctx, o.opt.GenerateTimeout)
	defer cancel()

	out, err := o.gen.Generate(gctx, p)
	if err != nil {
		if errs.Classified(err) {
			return "", err
		}
		return "", errs.Wrap(errs.ErrService, err)
	}
	if out == "" {
		return "", errs.Wrapf(errs.ErrService, "empty generated source")
	}
	return out, nil
}

// write stores source at the next free version beside base. The file is
// created exclusively so a concurrent writer is never overwritten.
func (o *Orchestrator) write(base, source string) (string, error) {
	perm := os.FileMode(0o644)
	if info, err := o.fs.Stat(base); err == nil {
		perm = info.Mode().Perm()
	}

	from := base
	for range maxCreateAttempts {
		path, err := version.NextFree(o.fs, from)
		if err != nil {
			return "", errs.Wrap(errs.ErrFileSystem, err)
		}

		f, err := o.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if errors.Is(err, os.ErrExist) {
			// someone took it between the probe and the create
			from = path
			continue
		}
		if err != nil {
			return "", errs.Wrap(errs.ErrFileSystem, fmt.Errorf("create %s: %w", path, err))
		}

		_, err = f.WriteString(source)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = o.fs.Remove(path)
			return "", errs.Wrap(errs.ErrFileSystem, fmt.Errorf("write %s: %w", path, err))
		}
		return path, nil
	}
	return "", errs.Wrapf(errs.ErrFileSystem, "no version of %s could be created after %d attempts", base, maxCreateAttempts)
}

func (o *Orchestrator) retire(logger *log.Logger, pid int) {
	if o.opt.Policy != TerminateOld {
		return
	}
	if pid <= 0 {
		logger.Warn("Policy is terminate but the request carried no pid")
		return
	}
	if err := o.terminate(pid); err != nil {
		logger.Warn("Failed to terminate old process", "pid", pid, "err", err)
		return
	}
	logger.Info("Terminated old process", "pid", pid)
}
