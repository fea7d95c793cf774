package voice

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"acg/internal/errs"
)

type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

// TextTranscriber turns 16 kHz mono PCM into text.
type TextTranscriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Ducker quiets other audio while the microphone is open.
type Ducker interface {
	Duck(ctx context.Context, factor float64, duration time.Duration) error
	Restore(ctx context.Context, duration time.Duration) error
}

const (
	duckFactor = 0.2
	duckFade   = 150 * time.Millisecond
)

// Adapter records one utterance and transcribes it into a change description.
type Adapter struct {
	rec    Recorder
	tr     TextTranscriber
	cue    func() error
	ducker Ducker
}

type Option func(*Adapter)

// WithCue plays a sound right before recording starts.
func WithCue(cue func() error) Option {
	return func(a *Adapter) { a.cue = cue }
}

func WithDucker(d Ducker) Option {
	return func(a *Adapter) { a.ducker = d }
}

func NewAdapter(rec Recorder, tr TextTranscriber, opts ...Option) *Adapter {
	a := &Adapter{rec: rec, tr: tr}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Describe captures audio and returns its transcription.
func (a *Adapter) Describe(ctx context.Context) (string, error) {
	pcm, err := a.record(ctx)
	if err != nil {
		return "", errs.Wrap(errs.ErrAudio, err)
	}
	if len(pcm) == 0 {
		return "", errs.Wrapf(errs.ErrAudio, "no audio recorded")
	}

	log.Info("Recorded", "samples", len(pcm))
	log.Info("Transcribing")

	text, err := a.tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", errs.Wrap(errs.ErrTranscription, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.Wrapf(errs.ErrTranscription, "no speech recognised")
	}

	log.Info("Transcribed", "text", text)
	return text, nil
}

func (a *Adapter) record(ctx context.Context) ([]float32, error) {
	if a.cue != nil {
		if err := a.cue(); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	}

	if a.ducker != nil {
		if err := a.ducker.Duck(ctx, duckFactor, duckFade); err != nil {
			log.Warn("Failed to duck audio", "err", err)
		}
		defer func() {
			// restore even when ctx is already done
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := a.ducker.Restore(rctx, duckFade); err != nil {
				log.Warn("Failed to restore audio", "err", err)
			}
		}()
	}

	log.Info("Listening...")

	pcm, err := a.rec.Record(ctx)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	return pcm, nil
}
