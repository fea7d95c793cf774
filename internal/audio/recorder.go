package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const SampleRate = 16000

type Mode string

const (
	// ModeFixed records for the full duration unless the context ends first.
	ModeFixed Mode = "fixed"
	// ModeAuto stops once speech has been followed by a pause.
	ModeAuto Mode = "auto"
)

const (
	frameSize        = 320 // 20ms
	silenceThreshRMS = 0.015
	silenceDuration  = 600 * time.Millisecond
)

var ErrNoAudio = errors.New("no audio recorded")

type Recorder struct {
	mode   Mode
	maxDur time.Duration
}

func NewRecorder(mode Mode, maxDur time.Duration) *Recorder {
	if maxDur <= 0 {
		maxDur = 10 * time.Second
	}
	if mode == "" {
		mode = ModeFixed
	}
	return &Recorder{mode: mode, maxDur: maxDur}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures mono 16 kHz audio from the default input device.
// Cancelling ctx stops the recording and returns what was captured so far.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, int(float64(SampleRate)*r.maxDur.Seconds()))

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	var (
		speaking      bool
		silenceFrames int
	)

	maxFrames := int(r.maxDur.Seconds() * SampleRate / frameSize)
	silenceLimit := int(silenceDuration / (20 * time.Millisecond))

	for i := 0; i < maxFrames; i++ {
		if ctx.Err() != nil {
			break
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}

		if r.mode != ModeAuto {
			out = append(out, buf...)
			continue
		}

		if frameRMS(buf) > silenceThreshRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
		} else if speaking {
			silenceFrames++
			if silenceFrames >= silenceLimit {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}

	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
