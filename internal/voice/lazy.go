package voice

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
)

var ErrClosed = errors.New("speech model closed")

// Engine is a loaded speech-to-text model.
type Engine interface {
	TextTranscriber
	Close() error
}

// Lazy defers loading the engine until the first Transcribe call and keeps
// it (or the load error) for the rest of the process. Transcriptions run one
// at a time and Close waits for the one in flight.
type Lazy struct {
	load func() (Engine, error)

	mu     sync.Mutex
	tried  bool
	closed bool
	engine Engine
	err    error
}

func NewLazy(load func() (Engine, error)) *Lazy {
	return &Lazy{load: load}
}

func (l *Lazy) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return "", ErrClosed
	}
	if !l.tried {
		l.tried = true
		log.Info("Loading speech model")
		l.engine, l.err = l.load()
		if l.err == nil {
			log.Debug("Loaded speech model")
		}
	}
	if l.err != nil {
		return "", l.err
	}
	return l.engine.Transcribe(ctx, pcm)
}

// Loaded reports whether the engine has been loaded successfully.
func (l *Lazy) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine != nil && !l.closed
}

func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.engine == nil {
		return nil
	}
	return l.engine.Close()
}
