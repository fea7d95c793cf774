package main

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"acg/internal/audio"
	"acg/internal/codegen"
	"acg/internal/duck"
	"acg/internal/errs"
	"acg/internal/launcher"
	"acg/internal/notify"
	"acg/internal/proxy"
	"acg/internal/rewrite"
	"acg/internal/tts"
	"acg/internal/voice"
	"acg/pkg/audioconv"
	"acg/pkg/stt"
)

const (
	duckFloor = 15 // percent
	selfName  = "acg"
)

// pipeline builds the orchestrator for change requests. With audioFile set,
// voice requests decode that file instead of opening the microphone. typed
// may be nil when descriptions always arrive with the request.
func (a *app) pipeline(audioFile string, typed rewrite.DescriptionSource) (*rewrite.Orchestrator, func(), error) {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.OpenAI.Timeout)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrConfiguration, err)
	}
	if cfg.Proxy != "" {
		log.Debug("Loaded proxy", "proxy", cfg.Proxy)
	}

	gen, err := codegen.New(codegen.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debug("Loaded generation client", "model", gen.Model())

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	tr := voice.NewLazy(func() (voice.Engine, error) {
		t, err := stt.NewTranscriber(cfg.Whisper.Model, stt.Options{
			Language: cfg.Whisper.Language,
			Threads:  cfg.Whisper.Threads,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	closers = append(closers, func() { _ = tr.Close() })

	var (
		rec   voice.Recorder
		vopts []voice.Option
	)
	if audioFile != "" {
		rec = voice.FileRecorder{Path: audioFile, Decode: decodeAudio}
	} else {
		m := &microphone{rec: audio.NewRecorder(audio.Mode(cfg.Voice.Mode), cfg.Voice.Duration)}
		closers = append(closers, m.Close)
		rec = m

		if cfg.Voice.Beep != "" {
			cue := cfg.Voice.Beep
			vopts = append(vopts, voice.WithCue(func() error { return notify.Beep(cue) }))
		}
		if cfg.Voice.Duck {
			vopts = append(vopts, voice.WithDucker(duck.New(duck.Pactl{}, []string{selfName}, duckFloor)))
		}
	}
	if cfg.Voice.KeepDir != "" {
		rec = &archive{next: rec, dir: cfg.Voice.KeepDir}
	}

	opts := []rewrite.Option{
		rewrite.WithVoice(voice.NewAdapter(rec, tr, vopts...)),
	}
	if typed != nil {
		opts = append(opts, rewrite.WithTyped(typed))
	}

	orch := rewrite.New(gen, launcher.NewExec(cfg.Launch.Interpreters), rewrite.Options{
		Policy:          rewrite.Policy(cfg.Launch.OnLaunch),
		GenerateTimeout: cfg.OpenAI.Timeout,
		CaptureTimeout:  cfg.Voice.Timeout,
	}, opts...)

	return orch, cleanup, nil
}

func decodeAudio(ctx context.Context, path string) ([]float32, error) {
	return audioconv.DecodeFile(ctx, path, audioconv.Options{})
}

// microphone opens the input device on first use only, so typed requests
// never touch the audio stack.
type microphone struct {
	rec *audio.Recorder

	once  sync.Once
	ready bool
	err   error
}

func (m *microphone) Record(ctx context.Context) ([]float32, error) {
	m.once.Do(func() {
		if m.err = m.rec.Init(); m.err == nil {
			m.ready = true
			log.Debug("Loaded recorder")
		}
	})
	if m.err != nil {
		return nil, fmt.Errorf("init audio: %w", m.err)
	}
	return m.rec.Record(ctx)
}

func (m *microphone) Close() {
	if m.ready {
		m.rec.Close()
	}
}

// archive keeps a WAV copy of every recording in dir.
type archive struct {
	next voice.Recorder
	dir  string
}

func (a *archive) Record(ctx context.Context) ([]float32, error) {
	pcm, err := a.next.Record(ctx)
	if err != nil || len(pcm) == 0 {
		return pcm, err
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		log.Warn("Failed to keep recording", "dir", a.dir, "err", err)
		return pcm, nil
	}
	path := filepath.Join(a.dir, time.Now().Format("20060102-150405.000")+".wav")
	if err := audioconv.WriteWAV(path, pcm, audioconv.TargetRate); err != nil {
		log.Warn("Failed to keep recording", "path", path, "err", err)
		return pcm, nil
	}
	log.Info("Kept recording", "path", path)
	return pcm, nil
}

// announce reads the outcome of a voice request aloud when configured.
func (a *app) announce(path, kind string) {
	if !a.cfg.Voice.Announce {
		return
	}
	if err := tts.Speak(tts.Outcome(path, kind), a.cfg.Whisper.Language); err != nil {
		log.Warn("Failed to voice out", "err", err)
	}
}
