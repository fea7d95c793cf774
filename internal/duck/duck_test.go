package duck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52429 /  80% / -5.81 dB,   front-right: 52429 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
		media.name = "Playback"

Sink Input #57
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "acg"

Sink Input #garbage
	Volume: front-left: 65536 / 100% / 0.00 dB
`

func TestParseSinkInputs(t *testing.T) {
	streams := ParseSinkInputs(sinkInputs)

	require.Len(t, streams, 2)
	assert.Equal(t, Stream{ID: 41, Volume: 80, AppName: "Firefox"}, streams[0])
	assert.Equal(t, Stream{ID: 57, Volume: 100, AppName: "acg"}, streams[1])

	assert.Empty(t, ParseSinkInputs(""))
}

type fakeMixer struct {
	streams []Stream
	volumes map[int]int
}

func (m *fakeMixer) Streams(context.Context) ([]Stream, error) {
	out := make([]Stream, len(m.streams))
	for i, s := range m.streams {
		if v, ok := m.volumes[s.ID]; ok {
			s.Volume = v
		}
		out[i] = s
	}
	return out, nil
}

func (m *fakeMixer) SetVolume(_ context.Context, id, percent int) error {
	m.volumes[id] = percent
	return nil
}

func TestDuckAndRestore(t *testing.T) {
	mixer := &fakeMixer{
		streams: []Stream{
			{ID: 1, Volume: 80, AppName: "Firefox"},
			{ID: 2, Volume: 100, AppName: "acg"},
			{ID: 3, Volume: 20, AppName: "mpv"},
		},
		volumes: map[int]int{},
	}
	d := New(mixer, []string{"acg"}, 15)
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx, 0.25, 30*time.Millisecond))

	assert.Equal(t, 20, mixer.volumes[1])
	assert.Equal(t, 15, mixer.volumes[3])
	_, touched := mixer.volumes[2]
	assert.False(t, touched)

	// second duck is a no-op
	require.NoError(t, d.Duck(ctx, 0.1, 0))
	assert.Equal(t, 20, mixer.volumes[1])

	require.NoError(t, d.Restore(ctx, 0))

	assert.Equal(t, 80, mixer.volumes[1])
	assert.Equal(t, 20, mixer.volumes[3])
}
